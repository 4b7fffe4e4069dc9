// Package storefront holds the client-side page state of the bookstore: the
// optimistic cart and favorites lists, the book and catalog pages, checkout,
// the signed-in session and the small SQLite store behind them.
package storefront

import (
	"errors"

	"go.uber.org/zap"
)

var (
	// ErrNothingSelected is returned by checkout with no selected cart items.
	ErrNothingSelected = errors.New("please select at least one item")
	// ErrBackToCart means checkout cannot proceed and the user must return
	// to the cart. It wraps the underlying cause.
	ErrBackToCart = errors.New("please select items in your cart first")
	// ErrNotLoggedIn is returned by operations that need a session.
	ErrNotLoggedIn = errors.New("please log in first")
	// ErrNotFound is returned when an id is not on the current page.
	ErrNotFound = errors.New("item not found")
)

// Status is the load state of a page.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// LoadState is a page's status plus the error that put it in StatusError.
type LoadState struct {
	Status Status
	Err    error
}

// Ready reports whether data is available.
func (l LoadState) Ready() bool { return l.Status == StatusReady }

// PageOption configures a page.
type PageOption func(*pageConfig)

type pageConfig struct {
	log         *zap.Logger
	concurrency int
}

// WithPageLogger sets the logger used for rollbacks and degraded loads.
func WithPageLogger(l *zap.Logger) PageOption {
	return func(c *pageConfig) {
		if l != nil {
			c.log = l
		}
	}
}

// WithConcurrency caps parallel requests in batch operations.
func WithConcurrency(n int) PageOption {
	return func(c *pageConfig) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

func newPageConfig(opts []PageOption) pageConfig {
	c := pageConfig{log: zap.NewNop(), concurrency: 4}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
