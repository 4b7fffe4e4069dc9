package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"bookstore-cli/model"
)

// GetCart lists the cart. onlySelected asks the backend for selected rows only.
func (c *Client) GetCart(ctx context.Context, onlySelected bool) ([]model.CartItem, error) {
	q := url.Values{"only_selected": {strconv.FormatBool(onlySelected)}}
	recs, _, err := c.getList(ctx, "/cart", q)
	if err != nil {
		return nil, err
	}
	return model.NormalizeCartItems(recs), nil
}

// AddToCart adds count copies of a book.
func (c *Client) AddToCart(ctx context.Context, bookID int64, count int) error {
	body := struct {
		Count int `json:"count"`
	}{Count: max(count, 1)}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/cart/%d", bookID), nil, body, nil)
}

// UpdateCartItem sets quantity and selection on one cart row.
func (c *Client) UpdateCartItem(ctx context.Context, itemID int64, u model.CartUpdate) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/cart/%d", itemID), nil, u, nil)
}

// RemoveCartItem deletes one cart row.
func (c *Client) RemoveCartItem(ctx context.Context, itemID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/cart/%d", itemID), nil, nil, nil)
}
