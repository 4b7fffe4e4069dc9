package shoptest

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, 400, "invalid id")
		return 0, false
	}
	return id, true
}

func (b *Book) discountPrice() float64 {
	if b.DiscountRate > 0 && b.DiscountRate < 1 {
		return b.Price * b.DiscountRate
	}
	return b.Price
}

func (s *Server) bookJSON(b *Book) gin.H {
	favorited := false
	for _, c := range s.collections {
		if c.bookID == b.ID {
			favorited = true
		}
	}
	comments := 0
	for _, c := range s.comments {
		if c.bookID == b.ID {
			comments++
		}
	}
	return gin.H{
		"id":            b.ID,
		"book_name":     b.Title,
		"author":        b.Author,
		"book_cover":    b.Cover,
		"publisher":     b.Publisher,
		"isbn":          b.ISBN,
		"category":      b.Category,
		"price":         b.Price,
		"discount_rate": b.DiscountRate,
		"total_score":   b.Score,
		"stock":         b.Stock,
		"comment_count": comments,
		"publish_time":  "2020-01-01",
		"is_favorited":  favorited,
		"description":   b.Description,
	}
}

func (s *Server) listBooks(c *gin.Context) {
	keyword := strings.ToLower(c.Query("keyword"))
	var cats []string
	if raw := c.Query("category"); raw != "" {
		cats = strings.Split(raw, ",")
	}
	minPrice, _ := strconv.ParseFloat(c.Query("min_price"), 64)
	maxPrice, _ := strconv.ParseFloat(c.Query("max_price"), 64)
	scoreMin, _ := strconv.ParseFloat(c.Query("score_min"), 64)

	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []*Book
	for _, b := range s.books {
		if keyword != "" && !strings.Contains(strings.ToLower(b.Title+" "+b.Author), keyword) {
			continue
		}
		if len(cats) > 0 && !contains(cats, b.Category) {
			continue
		}
		p := b.discountPrice()
		if minPrice > 0 && p < minPrice {
			continue
		}
		if maxPrice > 0 && p > maxPrice {
			continue
		}
		if b.Score < scoreMin {
			continue
		}
		rows = append(rows, b)
	}

	less := func(i, j int) bool { return rows[i].ID < rows[j].ID }
	switch c.Query("sort") {
	case "price_asc":
		less = func(i, j int) bool { return rows[i].discountPrice() < rows[j].discountPrice() }
	case "price_desc":
		less = func(i, j int) bool { return rows[i].discountPrice() > rows[j].discountPrice() }
	case "sales_asc":
		less = func(i, j int) bool { return rows[i].Sales < rows[j].Sales }
	case "sales_desc", "hot":
		less = func(i, j int) bool { return rows[i].Sales > rows[j].Sales }
	case "new":
		less = func(i, j int) bool { return rows[i].ID > rows[j].ID }
	}
	sort.SliceStable(rows, less)

	out := make([]gin.H, 0, len(rows))
	for _, b := range rows {
		out = append(out, s.bookJSON(b))
	}
	reply(c, pageOf(c, out))
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func (s *Server) getBook(c *gin.Context) {
	id, valid := paramID(c)
	if !valid {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, found := s.books[id]
	if !found {
		fail(c, http.StatusNotFound, 404, "book not found")
		return
	}
	reply(c, s.bookJSON(b))
}

func (s *Server) listComments(c *gin.Context) {
	id, valid := paramID(c)
	if !valid {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []gin.H{}
	for i, cm := range s.comments {
		if cm.bookID != id {
			continue
		}
		out = append(out, gin.H{
			"id":           i + 1,
			"user_name":    cm.user,
			"rating":       cm.rating,
			"content":      cm.text,
			"comment_time": "2025-09-12 10:00:00",
		})
	}
	reply(c, pageOf(c, out))
}

func (s *Server) cartJSON(r *CartRow) gin.H {
	row := gin.H{"id": r.ID, "book_id": r.BookID, "count": r.Count, "selected": r.Selected}
	if b, found := s.books[r.BookID]; found {
		row["book_name"] = b.Title
		row["author"] = b.Author
		row["image_url"] = b.Cover
		row["unit_price"] = b.Price
		row["stock"] = b.Stock
		if b.DiscountRate > 0 && b.DiscountRate < 1 {
			row["discount_price"] = b.discountPrice()
		}
	}
	return row
}

func (s *Server) getCart(c *gin.Context) {
	onlySelected := c.Query("only_selected") == "true"
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []gin.H{}
	for _, r := range s.cart {
		if onlySelected && !r.Selected {
			continue
		}
		out = append(out, s.cartJSON(r))
	}
	reply(c, pageOf(c, out))
}

type addCartRequest struct {
	Count int `json:"count" binding:"required,min=1"`
}

func (s *Server) addToCart(c *gin.Context) {
	bookID, valid := paramID(c)
	if !valid {
		return
	}
	var req addCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, 400, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.books[bookID]; !found {
		fail(c, http.StatusNotFound, 404, "book not found")
		return
	}
	for _, r := range s.cart {
		if r.BookID == bookID {
			r.Count += req.Count
			reply(c, s.cartJSON(r))
			return
		}
	}
	r := &CartRow{ID: s.id(), BookID: bookID, Count: req.Count, Selected: true}
	s.cart = append(s.cart, r)
	reply(c, s.cartJSON(r))
}

type updateCartRequest struct {
	Count    int  `json:"count" binding:"min=0"`
	Selected bool `json:"selected"`
}

func (s *Server) updateCart(c *gin.Context) {
	id, valid := paramID(c)
	if !valid {
		return
	}
	var req updateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, 400, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.cart {
		if r.ID != id {
			continue
		}
		if req.Count > 0 {
			r.Count = req.Count
		}
		r.Selected = req.Selected
		reply(c, s.cartJSON(r))
		return
	}
	fail(c, http.StatusNotFound, 404, "cart item not found")
}

func (s *Server) removeCart(c *gin.Context) {
	id, valid := paramID(c)
	if !valid {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.cart {
		if r.ID == id {
			s.cart = append(s.cart[:i], s.cart[i+1:]...)
			reply(c, nil)
			return
		}
	}
	fail(c, http.StatusNotFound, 404, "cart item not found")
}

func (s *Server) listCollections(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := append([]collection(nil), s.collections...)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].created.After(rows[j].created) })
	out := make([]gin.H, 0, len(rows))
	for _, col := range rows {
		row := gin.H{
			"id":           col.id,
			"book_id":      col.bookID,
			"collect_time": col.created.Format("2006-01-02 15:04:05"),
		}
		if b, found := s.books[col.bookID]; found {
			row["book_title"] = b.Title
			row["book_author"] = b.Author
			row["book_cover"] = b.Cover
			row["book_price"] = b.Price
		}
		out = append(out, row)
	}
	reply(c, pageOf(c, out))
}

func (s *Server) addCollection(c *gin.Context) {
	bookID, valid := paramID(c)
	if !valid {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.books[bookID]; !found {
		fail(c, http.StatusNotFound, 404, "book not found")
		return
	}
	for _, col := range s.collections {
		if col.bookID == bookID {
			fail(c, http.StatusConflict, 409, "already collected")
			return
		}
	}
	col := collection{id: s.id(), bookID: bookID, created: time.Now()}
	s.collections = append(s.collections, col)
	reply(c, gin.H{"collection_id": col.id, "book_id": bookID, "collect_time": col.created.Format(time.RFC3339)})
}

func (s *Server) removeCollection(c *gin.Context) {
	bookID, valid := paramID(c)
	if !valid {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, col := range s.collections {
		if col.bookID == bookID {
			s.collections = append(s.collections[:i], s.collections[i+1:]...)
			reply(c, nil)
			return
		}
	}
	fail(c, http.StatusNotFound, 404, "collection not found")
}

type orderLineRequest struct {
	BookID   int64 `json:"book_id" binding:"required,gt=0"`
	Quantity int   `json:"quantity" binding:"required,gt=0"`
}

type createOrderRequest struct {
	Items           []orderLineRequest `json:"items" binding:"required,min=1,dive"`
	ShippingAddress string             `json:"shipping_address" binding:"required"`
	Phone           string             `json:"phone" binding:"required"`
	Receiver        string             `json:"receiver" binding:"required"`
}

func (s *Server) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, 400, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	o := &order{
		no:       fmt.Sprintf("ORD%06d", s.id()),
		address:  req.ShippingAddress,
		phone:    req.Phone,
		receiver: req.Receiver,
		created:  time.Now(),
	}
	for _, it := range req.Items {
		b, found := s.books[it.BookID]
		if !found {
			fail(c, http.StatusBadRequest, 400, fmt.Sprintf("book %d not found", it.BookID))
			return
		}
		o.total += b.discountPrice() * float64(it.Quantity)
		o.lines = append(o.lines, CartRow{BookID: it.BookID, Count: it.Quantity})
	}
	s.orders = append(s.orders, o)
	reply(c, gin.H{"order_no": o.no, "total_amount": o.total, "payment_status": "pending"})
}

var statusNames = map[int]string{0: "pending", 1: "paid", 2: "completed", 3: "cancelled"}

func (s *Server) orderJSON(o *order) gin.H {
	return gin.H{
		"order_no":         o.no,
		"total_amount":     o.total,
		"actual_amount":    o.total,
		"shipping_address": o.address,
		"payment_status":   statusNames[o.status],
		"create_time":      o.created.Format("2006-01-02 15:04:05"),
	}
}

func (s *Server) listOrders(c *gin.Context) {
	status := -1
	if raw := c.Query("status"); raw != "" {
		status = atoiDefault(raw, -1)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []gin.H{}
	for _, o := range s.orders {
		if status >= 0 && o.status != status {
			continue
		}
		out = append(out, s.orderJSON(o))
	}
	reply(c, pageOf(c, out))
}

func (s *Server) findOrder(no string) *order {
	for _, o := range s.orders {
		if o.no == no {
			return o
		}
	}
	return nil
}

func (s *Server) getOrder(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.findOrder(c.Param("no"))
	if o == nil {
		fail(c, http.StatusNotFound, 404, "order not found")
		return
	}
	d := s.orderJSON(o)
	d["receiver"] = o.receiver
	d["phone"] = o.phone
	items := make([]gin.H, 0, len(o.lines))
	for _, l := range o.lines {
		it := gin.H{"book_id": l.BookID, "quantity": l.Count}
		if b, found := s.books[l.BookID]; found {
			it["book_name"] = b.Title
			it["author"] = b.Author
			it["price"] = strconv.FormatFloat(b.discountPrice(), 'f', 2, 64)
		}
		items = append(items, it)
	}
	d["items"] = items
	reply(c, d)
}

func (s *Server) cancelOrder(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.findOrder(c.Param("no"))
	if o == nil {
		fail(c, http.StatusNotFound, 404, "order not found")
		return
	}
	if o.status != 0 {
		fail(c, http.StatusOK, 4001, "only pending orders can be cancelled")
		return
	}
	o.status = 3
	reply(c, nil)
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Account  string `json:"account" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, 400, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.username == req.Username || a.email == req.Account {
			fail(c, http.StatusOK, 1001, "username or email already registered")
			return
		}
	}
	a := &account{id: s.id(), username: req.Username, email: req.Account, password: req.Password}
	s.accounts = append(s.accounts, a)
	reply(c, userJSON(a))
}

type loginRequest struct {
	Account  string `json:"account" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func userJSON(a *account) gin.H {
	return gin.H{"id": a.id, "username": a.username, "email": a.email, "avatar_url": a.avatar}
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, 400, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if (a.username == req.Account || a.email == req.Account) && a.password == req.Password {
			tok := fmt.Sprintf("tok-%s", a.username)
			s.tokens[tok] = a.id
			reply(c, gin.H{"token": tok, "user": userJSON(a)})
			return
		}
	}
	fail(c, http.StatusOK, 1002, "wrong account or password")
}

func (s *Server) currentAccount(c *gin.Context) *account {
	uid := c.GetInt64("uid")
	for _, a := range s.accounts {
		if a.id == uid {
			return a
		}
	}
	return nil
}

func (s *Server) me(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.currentAccount(c)
	if a == nil {
		fail(c, http.StatusUnauthorized, 401, "please log in")
		return
	}
	reply(c, userJSON(a))
}

type updateMeRequest struct {
	Username  *string `json:"username" binding:"omitempty,min=1"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,url"`
}

func (s *Server) updateMe(c *gin.Context) {
	var req updateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, 400, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.currentAccount(c)
	if a == nil {
		fail(c, http.StatusUnauthorized, 401, "please log in")
		return
	}
	if req.Username != nil {
		a.username = *req.Username
	}
	if req.AvatarURL != nil {
		a.avatar = *req.AvatarURL
	}
	reply(c, userJSON(a))
}

func (s *Server) upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, 400, "missing file")
		return
	}
	kind := c.PostForm("type")
	if kind != "avatar" && kind != "comment" {
		fail(c, http.StatusBadRequest, 400, "invalid type")
		return
	}
	reply(c, gin.H{
		"url":       "https://cdn.example.com/" + kind + "/" + fh.Filename,
		"file_name": fh.Filename,
		"size":      strconv.FormatInt(fh.Size, 10),
	})
}
