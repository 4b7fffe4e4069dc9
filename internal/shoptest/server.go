// Package shoptest runs an in-memory storefront backend for tests. It speaks
// the same {code,msg,data} envelope and snake_case fields as the real one and
// can be told to fail individual routes.
package shoptest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// Fixture credentials seeded by New.
const (
	Username = "alice"
	Email    = "alice@example.com"
	Password = "secret1"
	Token    = "tok-alice"
)

// Failure makes a route answer with an error. A zero Status means 200 with a
// non-zero envelope code.
type Failure struct {
	Status int
	Code   int
	Msg    string
}

// Book is a catalog row.
type Book struct {
	ID           int64
	Title        string
	Author       string
	Cover        string
	Publisher    string
	ISBN         string
	Category     string
	Price        float64
	DiscountRate float64
	Score        float64
	Stock        int
	Sales        int
	Description  string
}

// CartRow is one cart entry.
type CartRow struct {
	ID       int64
	BookID   int64
	Count    int
	Selected bool
}

type collection struct {
	id      int64
	bookID  int64
	created time.Time
}

type order struct {
	no       string
	total    float64
	address  string
	phone    string
	receiver string
	status   int
	created  time.Time
	lines    []CartRow
}

type account struct {
	id       int64
	username string
	email    string
	password string
	avatar   string
}

type comment struct {
	bookID int64
	user   string
	rating int
	text   string
}

// Server is the fake backend. Its URL already includes the /api prefix.
type Server struct {
	srv *httptest.Server
	URL string

	mu          sync.Mutex
	books       map[int64]*Book
	cart        []*CartRow
	collections []collection
	orders      []*order
	accounts    []*account
	tokens      map[string]int64
	comments    []comment
	failures    map[string]Failure
	calls       map[string]int
	headers     []http.Header
	nextID      int64
}

// New starts a server seeded with three books and the fixture account. It is
// closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &Server{
		books:    map[int64]*Book{},
		tokens:   map[string]int64{Token: 1},
		failures: map[string]Failure{},
		calls:    map[string]int{},
		nextID:   100,
	}
	s.accounts = append(s.accounts, &account{id: 1, username: Username, email: Email, password: Password})
	s.AddBook(Book{ID: 1, Title: "The Go Programming Language", Author: "Donovan", Category: "tech", Price: 89, DiscountRate: 0.8, Score: 4.8, Stock: 10, Sales: 120})
	s.AddBook(Book{ID: 2, Title: "Dune", Author: "Herbert", Category: "novel", Price: 49.9, Score: 4.5, Stock: 3, Sales: 300})
	s.AddBook(Book{ID: 3, Title: "SICP", Author: "Abelson", Category: "tech", Price: 149, Score: 3.9, Stock: 0, Sales: 40,
		Description: "Contents\nBuilding abstractions\n\nAudience\nStudents"})

	s.srv = httptest.NewServer(s.router())
	s.URL = s.srv.URL + "/api"
	t.Cleanup(s.srv.Close)
	return s
}

func (s *Server) id() int64 {
	s.nextID++
	return s.nextID
}

// AddBook inserts or replaces a catalog row.
func (s *Server) AddBook(b Book) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books[b.ID] = &b
}

// PutCart replaces the cart contents.
func (s *Server) PutCart(rows ...CartRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = s.cart[:0]
	for _, r := range rows {
		r := r
		s.cart = append(s.cart, &r)
	}
}

// Cart returns a snapshot of the server-side cart.
func (s *Server) Cart() []CartRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CartRow, 0, len(s.cart))
	for _, r := range s.cart {
		out = append(out, *r)
	}
	return out
}

// Collect favorites a book directly.
func (s *Server) Collect(bookID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections = append(s.collections, collection{id: s.id(), bookID: bookID, created: time.Now()})
}

// Collected returns the favorited book ids.
func (s *Server) Collected() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, 0, len(s.collections))
	for _, c := range s.collections {
		out = append(out, c.bookID)
	}
	return out
}

// AddComment attaches a review to a book.
func (s *Server) AddComment(bookID int64, user string, rating int, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments = append(s.comments, comment{bookID: bookID, user: user, rating: rating, text: text})
}

// OrderCount reports how many orders were created.
func (s *Server) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// Fail makes "METHOD /path" (path without the /api prefix) fail until Heal.
func (s *Server) Fail(method, path string, f Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = f
}

// Heal removes a failure set by Fail.
func (s *Server) Heal(method, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, method+" "+path)
}

// Calls counts requests received for "METHOD /path".
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

// TotalCalls counts every request received.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// LastHeaders returns the headers of the most recent request.
func (s *Server) LastHeaders() http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.headers) == 0 {
		return nil
	}
	return s.headers[len(s.headers)-1]
}

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.record, s.inject)

	g := r.Group("/api")
	g.GET("/books", s.listBooks)
	g.GET("/books/:id", s.getBook)
	g.GET("/books/:id/comments", s.listComments)
	g.POST("/auth/register", s.register)
	g.POST("/auth/login", s.login)

	auth := g.Group("", s.authenticate)
	auth.GET("/cart", s.getCart)
	auth.POST("/cart/:id", s.addToCart)
	auth.PUT("/cart/:id", s.updateCart)
	auth.DELETE("/cart/:id", s.removeCart)
	auth.GET("/user/me/collections", s.listCollections)
	auth.POST("/user/me/collections/:id", s.addCollection)
	auth.DELETE("/user/me/collections/:id", s.removeCollection)
	auth.POST("/orders", s.createOrder)
	auth.GET("/orders", s.listOrders)
	auth.GET("/orders/:no", s.getOrder)
	auth.PUT("/orders/:no/cancel", s.cancelOrder)
	auth.GET("/users/me", s.me)
	auth.PUT("/users/me", s.updateMe)
	auth.POST("/upload/image", s.upload)
	return r
}

func routeKey(c *gin.Context) string {
	return c.Request.Method + " " + strings.TrimPrefix(c.Request.URL.Path, "/api")
}

func (s *Server) record(c *gin.Context) {
	s.mu.Lock()
	s.calls[routeKey(c)]++
	s.headers = append(s.headers, c.Request.Header.Clone())
	s.mu.Unlock()
	c.Next()
}

func (s *Server) inject(c *gin.Context) {
	s.mu.Lock()
	f, ok := s.failures[routeKey(c)]
	s.mu.Unlock()
	if !ok {
		c.Next()
		return
	}
	status := f.Status
	if status == 0 {
		status = http.StatusOK
	}
	code := f.Code
	if code == 0 {
		code = status
	}
	msg := f.Msg
	if msg == "" {
		msg = "injected failure"
	}
	c.AbortWithStatusJSON(status, gin.H{"code": code, "msg": msg, "data": nil})
}

func (s *Server) authenticate(c *gin.Context) {
	tok := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	s.mu.Lock()
	uid, ok := s.tokens[tok]
	s.mu.Unlock()
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": 401, "msg": "please log in", "data": nil})
		return
	}
	c.Set("uid", uid)
	c.Next()
}

func reply(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"code": 0, "msg": "success", "data": data})
}

func fail(c *gin.Context, status, code int, msg string) {
	c.JSON(status, gin.H{"code": code, "msg": msg, "data": nil})
}

func pageOf[T any](c *gin.Context, rows []T) gin.H {
	page := max(atoiDefault(c.Query("page"), 1), 1)
	size := max(atoiDefault(c.Query("size"), 20), 1)
	start := min((page-1)*size, len(rows))
	end := min(start+size, len(rows))
	return gin.H{"page": page, "size": size, "total": len(rows), "list": rows[start:end]}
}
