// Package model holds the canonical storefront entities, the adapters that
// map backend records onto them, and the aggregates derived from them.
package model

import "time"

// PlaceholderCover is used when a record carries no cover image.
const PlaceholderCover = "https://via.placeholder.com/120x180?text=Book+Cover"

// BookSummary is a catalog entry as shown in lists and cards.
// It is replaced wholesale on every fetch, never patched.
type BookSummary struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	Cover         string   `json:"cover"`
	Price         float64  `json:"price"`
	DiscountPrice *float64 `json:"discount_price,omitempty"`
	Rating        *float64 `json:"rating,omitempty"`
	FeatureLabel  string   `json:"feature_label,omitempty"`
	Category      string   `json:"category,omitempty"`
}

// EffectivePrice is the discount price when there is one, else the list price.
func (b BookSummary) EffectivePrice() float64 {
	return EffectivePrice(b.Price, b.DiscountPrice)
}

// BookDetail is the full book page payload.
type BookDetail struct {
	BookSummary
	Publisher    string `json:"publisher"`
	ISBN         string `json:"isbn"`
	Stock        int    `json:"stock"`
	CommentCount int    `json:"comment_count"`
	PublishTime  string `json:"publish_time"`
	Favorited    bool   `json:"favorited"`
	Description  string `json:"description,omitempty"`
}

// BookPage is one page of catalog results.
type BookPage struct {
	Page
	Books []BookSummary `json:"books"`
}

// CartItem is one cart row. Selected is client-side state the backend may
// or may not persist.
type CartItem struct {
	ID            int64    `json:"id"`
	BookID        int64    `json:"book_id"`
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	Cover         string   `json:"cover"`
	ISBN          string   `json:"isbn,omitempty"`
	Price         float64  `json:"price"`
	DiscountPrice *float64 `json:"discount_price,omitempty"`
	Quantity      int      `json:"quantity"`
	// Stock of 0 means the backend did not say.
	Stock    int  `json:"stock"`
	Selected bool `json:"selected"`
}

// CartUpdate is the body of PUT /cart/{itemId}.
type CartUpdate struct {
	Quantity int  `json:"count"`
	Selected bool `json:"selected"`
}

// CollectionItem is a favorite. Title, author and cover are captured at
// collect time.
type CollectionItem struct {
	ID             int64     `json:"id"`
	BookID         int64     `json:"book_id"`
	Title          string    `json:"title"`
	Author         string    `json:"author"`
	Cover          string    `json:"cover"`
	Price          *float64  `json:"price,omitempty"`
	CollectedAt    time.Time `json:"collected_at"`
	CollectedAtRaw string    `json:"-"`
}

// CheckoutLine is one entry in the selected-for-checkout set.
type CheckoutLine struct {
	BookID   int64 `json:"book_id"`
	Quantity int   `json:"quantity"`
}

// OrderRequest is the body of POST /orders.
type OrderRequest struct {
	Items           []CheckoutLine `json:"items"`
	ShippingAddress string         `json:"shipping_address"`
	Phone           string         `json:"phone"`
	Receiver        string         `json:"receiver"`
}

// OrderConfirmation is what the backend echoes after creating an order.
type OrderConfirmation struct {
	OrderNo     string  `json:"order_no"`
	TotalAmount float64 `json:"total_amount"`
	Status      string  `json:"status"`
}

// Order status filters understood by GET /orders.
const (
	OrderStatusPending   = 0
	OrderStatusPaid      = 1
	OrderStatusCompleted = 2
	OrderStatusCancelled = 3
)

// OrderSummary is one row of the order list.
type OrderSummary struct {
	OrderNo         string    `json:"order_no"`
	TotalAmount     float64   `json:"total_amount"`
	ActualAmount    float64   `json:"actual_amount"`
	ShippingAddress string    `json:"shipping_address"`
	PaymentStatus   string    `json:"payment_status"`
	CreatedAt       time.Time `json:"created_at"`
}

// OrderPage is one page of orders.
type OrderPage struct {
	Page
	Orders []OrderSummary `json:"orders"`
}

// OrderLine is one book inside an order.
type OrderLine struct {
	BookID   int64   `json:"book_id"`
	Title    string  `json:"title"`
	Author   string  `json:"author"`
	Cover    string  `json:"cover"`
	ISBN     string  `json:"isbn"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// OrderDetail is the full order.
type OrderDetail struct {
	OrderSummary
	Receiver    string      `json:"receiver"`
	Phone       string      `json:"phone"`
	PaymentTime time.Time   `json:"payment_time"`
	Items       []OrderLine `json:"items"`
}

// User is the signed-in account.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// LoginResult is the payload of POST /auth/login.
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Registration is the body of POST /auth/register.
type Registration struct {
	Username string `json:"username"`
	Account  string `json:"account"`
	Password string `json:"password"`
}

// ProfileUpdate is the body of PUT /users/me. Nil fields are left unchanged.
type ProfileUpdate struct {
	Username  *string `json:"username,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// Upload image kinds.
const (
	UploadAvatar  = "avatar"
	UploadComment = "comment"
)

// Upload is the result of POST /upload/image.
type Upload struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
	Size     int64  `json:"file_size"`
}

// Comment is one review on a book.
type Comment struct {
	ID        int64     `json:"id"`
	UserName  string    `json:"user_name"`
	Rating    int       `json:"rating"`
	Content   string    `json:"content"`
	Images    []string  `json:"images,omitempty"`
	Likes     int       `json:"likes"`
	CreatedAt time.Time `json:"created_at"`
}
