package storefront

import (
	"context"
	"errors"
	"sync"

	"bookstore-cli/model"
)

// CatalogService is what the search page needs from the backend.
type CatalogService interface {
	ListBooks(ctx context.Context, q model.BookQuery) (model.BookPage, error)
}

// ErrNoMorePages is returned when paging past either end of the results.
var ErrNoMorePages = errors.New("no more pages")

// CatalogPage is a search with its current page of results.
type CatalogPage struct {
	svc CatalogService

	mu    sync.Mutex
	query model.BookQuery
	page  model.BookPage
	state LoadState
}

// NewCatalogPage returns an idle search page.
func NewCatalogPage(svc CatalogService) *CatalogPage {
	return &CatalogPage{svc: svc}
}

// Search runs q and replaces the results.
func (p *CatalogPage) Search(ctx context.Context, q model.BookQuery) error {
	q = q.Normalized()
	p.mu.Lock()
	p.state = LoadState{Status: StatusLoading}
	p.mu.Unlock()

	res, err := p.svc.ListBooks(ctx, q)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.query = q
	if err != nil {
		p.page = model.BookPage{}
		p.state = LoadState{Status: StatusError, Err: err}
		return err
	}
	if res.Size == 0 {
		res.Size = q.Size
	}
	if res.Page.Page == 0 {
		res.Page.Page = q.Page
	}
	p.page = res
	p.state = LoadState{Status: StatusReady}
	return nil
}

// Query returns the last query run.
func (p *CatalogPage) Query() model.BookQuery {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.query
}

// Results returns the current page.
func (p *CatalogPage) Results() model.BookPage {
	p.mu.Lock()
	defer p.mu.Unlock()
	res := p.page
	res.Books = append([]model.BookSummary(nil), p.page.Books...)
	return res
}

// State returns the load state.
func (p *CatalogPage) State() LoadState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// TotalPages is the number of result pages, at least 1.
func (p *CatalogPage) TotalPages() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return totalPages(p.page.Total, p.query.Size)
}

func totalPages(total, size int) int {
	if size < 1 || total <= 0 {
		return 1
	}
	return (total + size - 1) / size
}

// Next loads the following page.
func (p *CatalogPage) Next(ctx context.Context) error {
	return p.Goto(ctx, p.Query().Page+1)
}

// Prev loads the preceding page.
func (p *CatalogPage) Prev(ctx context.Context) error {
	return p.Goto(ctx, p.Query().Page-1)
}

// Goto loads page n of the current query.
func (p *CatalogPage) Goto(ctx context.Context, n int) error {
	if n < 1 || n > p.TotalPages() {
		return ErrNoMorePages
	}
	q := p.Query()
	q.Page = n
	return p.Search(ctx, q)
}
