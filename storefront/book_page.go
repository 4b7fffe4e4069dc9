package storefront

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"bookstore-cli/model"
)

// CommentsPageSize is how many reviews the book page loads.
const CommentsPageSize = 50

// BookService is what the book page needs from the backend.
type BookService interface {
	GetBook(ctx context.Context, id int64) (model.BookDetail, error)
	ListComments(ctx context.Context, bookID int64, page, size int) ([]model.Comment, error)
	AddCollection(ctx context.Context, bookID int64) error
	RemoveCollection(ctx context.Context, bookID int64) error
	AddToCart(ctx context.Context, bookID int64, count int) error
}

// BookPage is one book's detail view.
type BookPage struct {
	svc BookService
	cfg pageConfig

	mu       sync.Mutex
	detail   model.BookDetail
	comments []model.Comment
	dist     model.Distribution
	state    LoadState
}

// NewBookPage returns an idle book page.
func NewBookPage(svc BookService, opts ...PageOption) *BookPage {
	return &BookPage{svc: svc, cfg: newPageConfig(opts)}
}

// Load fetches the book and its first page of reviews. A failed review fetch
// leaves the page usable with no reviews; a failed detail fetch is a page
// error.
func (p *BookPage) Load(ctx context.Context, bookID int64) error {
	p.mu.Lock()
	p.state = LoadState{Status: StatusLoading}
	p.mu.Unlock()

	detail, err := p.svc.GetBook(ctx, bookID)
	if err != nil {
		p.mu.Lock()
		p.detail, p.comments, p.dist = model.BookDetail{}, nil, model.Distribution{}
		p.state = LoadState{Status: StatusError, Err: err}
		p.mu.Unlock()
		return err
	}

	comments, err := p.svc.ListComments(ctx, bookID, 1, CommentsPageSize)
	if err != nil {
		p.cfg.log.Warn("comments unavailable", zap.Int64("book_id", bookID), zap.Error(err))
		comments = nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.detail = detail
	p.comments = comments
	p.dist = model.RatingDistribution(model.CommentRatings(comments))
	p.state = LoadState{Status: StatusReady}
	return nil
}

// State returns the load state.
func (p *BookPage) State() LoadState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Detail returns the loaded book.
func (p *BookPage) Detail() model.BookDetail {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.detail
}

// Comments returns the loaded reviews.
func (p *BookPage) Comments() []model.Comment {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.Comment(nil), p.comments...)
}

// Distribution is the star breakdown of the loaded reviews.
func (p *BookPage) Distribution() model.Distribution {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dist
}

// Sections splits the description into titled blocks.
func (p *BookPage) Sections() []model.Section {
	p.mu.Lock()
	defer p.mu.Unlock()
	return model.ParseDetailSections(p.detail.Description)
}

var errNotLoaded = errors.New("book not loaded")

// ToggleFavorite flips the favorite flag, rolling back if the backend
// rejects it. It returns the new value.
func (p *BookPage) ToggleFavorite(ctx context.Context) (bool, error) {
	p.mu.Lock()
	if p.state.Status != StatusReady {
		p.mu.Unlock()
		return false, errNotLoaded
	}
	id := p.detail.ID
	target := !p.detail.Favorited
	p.detail.Favorited = target
	p.mu.Unlock()

	var err error
	if target {
		err = p.svc.AddCollection(ctx, id)
	} else {
		err = p.svc.RemoveCollection(ctx, id)
	}
	if err != nil {
		p.mu.Lock()
		if p.detail.ID == id && p.detail.Favorited == target {
			p.detail.Favorited = !target
		}
		p.mu.Unlock()
		p.cfg.log.Warn("favorite toggle rolled back", zap.Int64("book_id", id), zap.Error(err))
		return !target, err
	}
	return target, nil
}

// AddToCart puts count copies of the loaded book in the cart.
func (p *BookPage) AddToCart(ctx context.Context, count int) error {
	p.mu.Lock()
	if p.state.Status != StatusReady {
		p.mu.Unlock()
		return errNotLoaded
	}
	id, stock := p.detail.ID, p.detail.Stock
	p.mu.Unlock()
	return p.svc.AddToCart(ctx, id, model.ClampQuantity(count, stock))
}
