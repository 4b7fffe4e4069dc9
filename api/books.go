package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"bookstore-cli/model"
)

func (c *Client) getList(ctx context.Context, path string, query url.Values) ([]model.Record, model.Page, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, query, nil, &raw); err != nil {
		return nil, model.Page{}, err
	}
	recs, page, err := model.DecodeList(raw)
	if err != nil {
		return nil, model.Page{}, &Error{Kind: KindDecode, Message: "unexpected list response from server", cause: err}
	}
	return recs, page, nil
}

func (c *Client) getRecord(ctx context.Context, method, path string, query url.Values, body any) (model.Record, error) {
	var raw json.RawMessage
	if err := c.do(ctx, method, path, query, body, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return model.Record{}, nil
	}
	rec, err := model.DecodeRecord(raw)
	if err != nil {
		return nil, &Error{Kind: KindDecode, Message: "unexpected response from server", cause: err}
	}
	return rec, nil
}

func pageQuery(page, size int) url.Values {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = model.DefaultPageSize
	}
	return url.Values{"page": {strconv.Itoa(page)}, "size": {strconv.Itoa(size)}}
}

// ListBooks searches the catalog.
func (c *Client) ListBooks(ctx context.Context, q model.BookQuery) (model.BookPage, error) {
	recs, page, err := c.getList(ctx, "/books", q.Values())
	if err != nil {
		return model.BookPage{}, err
	}
	return model.BookPage{Page: page, Books: model.NormalizeBooks(recs)}, nil
}

// NewBooks lists the newest arrivals.
func (c *Client) NewBooks(ctx context.Context, page, size int) (model.BookPage, error) {
	return c.ListBooks(ctx, model.BookQuery{Page: page, Size: size, Sort: model.SortNew})
}

// HotBooks lists the best sellers.
func (c *Client) HotBooks(ctx context.Context, page, size int) (model.BookPage, error) {
	return c.ListBooks(ctx, model.BookQuery{Page: page, Size: size, Sort: model.SortHot})
}

// GetBook fetches one book.
func (c *Client) GetBook(ctx context.Context, id int64) (model.BookDetail, error) {
	rec, err := c.getRecord(ctx, http.MethodGet, fmt.Sprintf("/books/%d", id), nil, nil)
	if err != nil {
		return model.BookDetail{}, err
	}
	return model.BookDetailFromRecord(rec), nil
}

// ListComments fetches one page of reviews for a book.
func (c *Client) ListComments(ctx context.Context, bookID int64, page, size int) ([]model.Comment, error) {
	recs, _, err := c.getList(ctx, fmt.Sprintf("/books/%d/comments", bookID), pageQuery(page, size))
	if err != nil {
		return nil, err
	}
	return model.NormalizeComments(recs), nil
}
