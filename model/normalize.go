package model

import (
	"strings"
)

// Field aliases, in priority order. Snake case is what the current backend
// sends; camel case spellings come from older revisions.
var (
	cartIDKeys       = []string{"id", "cart_item_id", "cartItemId"}
	bookIDKeys       = []string{"book_id", "bookId"}
	cartTitleKeys    = []string{"book_name", "bookName", "title"}
	authorKeys       = []string{"author", "book_author", "bookAuthor"}
	cartCoverKeys    = []string{"image_url", "imageUrl", "book_cover", "bookCover", "cover"}
	isbnKeys         = []string{"isbn", "ISBN"}
	cartPriceKeys    = []string{"unit_price", "price", "book_price", "bookPrice"}
	discountKeys     = []string{"discount_price", "discountPrice"}
	quantityKeys     = []string{"count", "quantity"}
	stockKeys        = []string{"stock", "inventory"}
	collectIDKeys    = []string{"id", "collection_id", "collectionId"}
	collectTitleKeys = []string{"book_title", "bookTitle", "title", "book_name", "bookName"}
	collectAuthKeys  = []string{"book_author", "bookAuthor", "author"}
	collectCoverKeys = []string{"book_cover", "bookCover", "cover", "image_url"}
	collectPriceKeys = []string{"book_price", "bookPrice", "price"}
	collectTimeKeys  = []string{"collect_time", "collectTime", "created_at"}
	bookKeyIDs       = []string{"id", "book_id", "bookId"}
	bookTitleKeys    = []string{"book_name", "bookName", "title", "name"}
	bookCoverKeys    = []string{"book_cover", "bookCover", "cover", "image_url", "imageUrl"}
	bookPriceKeys    = []string{"price", "book_price", "bookPrice"}
	discountRateKeys = []string{"discount_rate", "discountRate", "discount"}
	ratingKeys       = []string{"total_score", "totalScore", "rating", "score"}
)

// NormalizeCartItems maps raw cart rows onto CartItem.
func NormalizeCartItems(records []Record) []CartItem {
	out := make([]CartItem, 0, len(records))
	for _, r := range records {
		out = append(out, CartItemFromRecord(r))
	}
	return out
}

// CartItemFromRecord maps one raw cart row. Quantity is clamped into
// [1, stock]; absent selected means false.
func CartItemFromRecord(r Record) CartItem {
	it := CartItem{
		ID:            r.Int64(cartIDKeys...),
		BookID:        r.Int64(bookIDKeys...),
		Title:         strings.TrimSpace(r.String(cartTitleKeys...)),
		Author:        r.String(authorKeys...),
		Cover:         coverOrPlaceholder(r.String(cartCoverKeys...)),
		ISBN:          r.String(isbnKeys...),
		Price:         nonNegative(r.Float(cartPriceKeys...)),
		DiscountPrice: discount(r, discountKeys...),
		Stock:         max(r.Int(stockKeys...), 0),
		Selected:      r.Bool("selected", "checked"),
	}
	it.Quantity = ClampQuantity(r.Int(quantityKeys...), it.Stock)
	return it
}

// ClampQuantity bounds q to [1, stock]. A stock of 0 or less is unknown and
// imposes no upper bound.
func ClampQuantity(q, stock int) int {
	if stock > 0 && q > stock {
		q = stock
	}
	if q < 1 {
		q = 1
	}
	return q
}

// NormalizeCollections maps raw favorites.
func NormalizeCollections(records []Record) []CollectionItem {
	out := make([]CollectionItem, 0, len(records))
	for _, r := range records {
		out = append(out, CollectionFromRecord(r))
	}
	return out
}

// CollectionFromRecord maps one raw favorite.
func CollectionFromRecord(r Record) CollectionItem {
	it := CollectionItem{
		ID:             r.Int64(collectIDKeys...),
		BookID:         r.Int64(bookIDKeys...),
		Title:          strings.TrimSpace(r.String(collectTitleKeys...)),
		Author:         r.String(collectAuthKeys...),
		Cover:          coverOrPlaceholder(r.String(collectCoverKeys...)),
		CollectedAt:    r.Time(collectTimeKeys...),
		CollectedAtRaw: r.String(collectTimeKeys...),
	}
	if p, ok := r.FloatOK(collectPriceKeys...); ok {
		p = nonNegative(p)
		it.Price = &p
	}
	if nested := r.Object("book"); nested != nil {
		if it.BookID == 0 {
			it.BookID = nested.Int64(bookKeyIDs...)
		}
		if it.Title == "" {
			it.Title = strings.TrimSpace(nested.String(bookTitleKeys...))
		}
		if it.Author == "" {
			it.Author = nested.String(authorKeys...)
		}
	}
	return it
}

// NormalizeBooks maps raw catalog rows.
func NormalizeBooks(records []Record) []BookSummary {
	out := make([]BookSummary, 0, len(records))
	for _, r := range records {
		out = append(out, BookSummaryFromRecord(r))
	}
	return out
}

// BookSummaryFromRecord maps one raw catalog row. A discount_rate in (0,1)
// stands in for a missing discount price.
func BookSummaryFromRecord(r Record) BookSummary {
	b := BookSummary{
		ID:            r.Int64(bookKeyIDs...),
		Title:         strings.TrimSpace(r.String(bookTitleKeys...)),
		Author:        r.String(authorKeys...),
		Cover:         coverOrPlaceholder(r.String(bookCoverKeys...)),
		Price:         nonNegative(r.Float(bookPriceKeys...)),
		DiscountPrice: discount(r, discountKeys...),
		FeatureLabel:  r.String("feature_label", "featureLabel"),
		Category:      r.String("category", "category_name", "categoryName"),
	}
	if b.DiscountPrice == nil {
		if rate, ok := r.FloatOK(discountRateKeys...); ok && rate > 0 && rate < 1 && b.Price > 0 {
			d := roundCents(b.Price * rate)
			b.DiscountPrice = &d
		}
	}
	if score, ok := r.FloatOK(ratingKeys...); ok {
		b.Rating = &score
	}
	return b
}

// BookDetailFromRecord maps GET /books/{id}.
func BookDetailFromRecord(r Record) BookDetail {
	return BookDetail{
		BookSummary:  BookSummaryFromRecord(r),
		Publisher:    r.String("publisher", "book_publisher"),
		ISBN:         r.String(isbnKeys...),
		Stock:        max(r.Int(stockKeys...), 0),
		CommentCount: max(r.Int("comment_count", "commentCount", "comments_count"), 0),
		PublishTime:  r.String("publish_time", "publishTime", "published_at"),
		Favorited:    r.Bool("is_favorited", "isFavorited", "favorited"),
		Description:  r.String("description", "detail", "content"),
	}
}

// NormalizeOrders maps raw order list rows.
func NormalizeOrders(records []Record) []OrderSummary {
	out := make([]OrderSummary, 0, len(records))
	for _, r := range records {
		out = append(out, orderSummaryFromRecord(r))
	}
	return out
}

func orderSummaryFromRecord(r Record) OrderSummary {
	return OrderSummary{
		OrderNo:         r.String("order_no", "orderNo", "id"),
		TotalAmount:     r.Float("total_amount", "totalAmount"),
		ActualAmount:    r.Float("actual_amount", "actualAmount"),
		ShippingAddress: r.String("shipping_address", "shippingAddress"),
		PaymentStatus:   r.String("payment_status", "paymentStatus", "status"),
		CreatedAt:       r.Time("create_time", "createTime", "created_at"),
	}
}

// OrderDetailFromRecord maps GET /orders/{id}.
func OrderDetailFromRecord(r Record) OrderDetail {
	d := OrderDetail{
		OrderSummary: orderSummaryFromRecord(r),
		Receiver:     r.String("receiver"),
		Phone:        r.String("phone"),
		PaymentTime:  r.Time("payment_time", "paymentTime"),
	}
	for _, it := range r.Records("items") {
		d.Items = append(d.Items, OrderLine{
			BookID:   it.Int64(bookIDKeys...),
			Title:    strings.TrimSpace(it.String(cartTitleKeys...)),
			Author:   it.String(authorKeys...),
			Cover:    coverOrPlaceholder(it.String(bookCoverKeys...)),
			ISBN:     it.String(isbnKeys...),
			Price:    nonNegative(it.Float("price", "unit_price")),
			Quantity: max(it.Int(quantityKeys...), 0),
		})
	}
	return d
}

// OrderConfirmationFromRecord maps the POST /orders echo. The backend may
// answer with an empty data object.
func OrderConfirmationFromRecord(r Record) OrderConfirmation {
	return OrderConfirmation{
		OrderNo:     r.String("order_no", "orderNo", "id"),
		TotalAmount: r.Float("total_amount", "totalAmount"),
		Status:      r.String("payment_status", "paymentStatus", "status"),
	}
}

// UserFromRecord maps a user payload.
func UserFromRecord(r Record) User {
	return User{
		ID:        r.Int64("id", "user_id", "userId"),
		Username:  r.String("username", "user_name", "name"),
		Email:     r.String("email", "account"),
		AvatarURL: r.String("avatar_url", "avatarUrl", "avatar"),
	}
}

// LoginResultFromRecord maps POST /auth/login.
func LoginResultFromRecord(r Record) LoginResult {
	res := LoginResult{Token: r.String("token", "access_token", "accessToken")}
	if u := r.Object("user"); u != nil {
		res.User = UserFromRecord(u)
	}
	return res
}

// UploadFromRecord maps POST /upload/image. size may be a number or a string.
func UploadFromRecord(r Record) Upload {
	return Upload{
		URL:      r.String("url"),
		FileName: r.String("file_name", "fileName"),
		Size:     max(r.Int64("size", "file_size", "fileSize"), 0),
	}
}

// NormalizeComments maps raw reviews.
func NormalizeComments(records []Record) []Comment {
	out := make([]Comment, 0, len(records))
	for _, r := range records {
		out = append(out, Comment{
			ID:        r.Int64("id", "comment_id"),
			UserName:  r.String("user_name", "userName", "username"),
			Rating:    r.Int("rating", "score"),
			Content:   r.String("content"),
			Images:    r.Strings("images"),
			Likes:     max(r.Int("like", "likes", "like_count"), 0),
			CreatedAt: r.Time("comment_time", "commentTime", "created_at"),
		})
	}
	return out
}

func coverOrPlaceholder(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return PlaceholderCover
	}
	return s
}

func nonNegative(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}

// discount returns a pointer only for a present, positive discount price.
func discount(r Record, keys ...string) *float64 {
	d, ok := r.FloatOK(keys...)
	if !ok || d <= 0 {
		return nil
	}
	return &d
}
