package api

import (
	"context"
	"fmt"
	"net/http"

	"bookstore-cli/model"
)

// ListCollections lists favorites, newest first.
func (c *Client) ListCollections(ctx context.Context, page, size int) ([]model.CollectionItem, error) {
	q := pageQuery(page, size)
	q.Set("sort_by", "collect_time")
	q.Set("order", "desc")
	recs, _, err := c.getList(ctx, "/user/me/collections", q)
	if err != nil {
		return nil, err
	}
	return model.NormalizeCollections(recs), nil
}

// AddCollection favorites a book.
func (c *Client) AddCollection(ctx context.Context, bookID int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/user/me/collections/%d", bookID), nil, nil, nil)
}

// RemoveCollection unfavorites a book. The backend keys favorites by book id.
func (c *Client) RemoveCollection(ctx context.Context, bookID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/user/me/collections/%d", bookID), nil, nil, nil)
}

// IsCollected scans the first hundred favorites for bookID.
func (c *Client) IsCollected(ctx context.Context, bookID int64) (bool, error) {
	items, err := c.ListCollections(ctx, 1, 100)
	if err != nil {
		return false, err
	}
	for _, it := range items {
		if it.BookID == bookID {
			return true, nil
		}
	}
	return false, nil
}
