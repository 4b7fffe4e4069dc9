package storefront

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"bookstore-cli/model"
)

// CollectionsPageSize is how many favorites one Load fetches.
const CollectionsPageSize = 100

// CollectionService is what the favorites page needs from the backend.
type CollectionService interface {
	ListCollections(ctx context.Context, page, size int) ([]model.CollectionItem, error)
	AddCollection(ctx context.Context, bookID int64) error
	RemoveCollection(ctx context.Context, bookID int64) error
}

// CollectionsPage is the local copy of the favorites list. Rows are keyed
// by book id because that is what the backend deletes by.
type CollectionsPage struct {
	svc CollectionService
	cfg pageConfig

	mu    sync.Mutex
	items []model.CollectionItem
	state LoadState
}

// NewCollectionsPage returns an idle favorites page.
func NewCollectionsPage(svc CollectionService, opts ...PageOption) *CollectionsPage {
	return &CollectionsPage{svc: svc, cfg: newPageConfig(opts)}
}

// Load fetches the newest favorites and replaces the local list.
func (p *CollectionsPage) Load(ctx context.Context) error {
	p.mu.Lock()
	p.state = LoadState{Status: StatusLoading}
	p.mu.Unlock()

	items, err := p.svc.ListCollections(ctx, 1, CollectionsPageSize)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.items = nil
		p.state = LoadState{Status: StatusError, Err: err}
		return err
	}
	p.items = items
	p.state = LoadState{Status: StatusReady}
	return nil
}

// State returns the load state.
func (p *CollectionsPage) State() LoadState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Items returns a copy of the current list.
func (p *CollectionsPage) Items() []model.CollectionItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.CollectionItem(nil), p.items...)
}

// Len is the number of favorites shown.
func (p *CollectionsPage) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

// Contains reports whether bookID is in the list.
func (p *CollectionsPage) Contains(bookID int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.indexLocked(bookID) >= 0
}

func (p *CollectionsPage) indexLocked(bookID int64) int {
	for i := range p.items {
		if p.items[i].BookID == bookID {
			return i
		}
	}
	return -1
}

// Add favorites a book and reloads the list once the backend confirms.
func (p *CollectionsPage) Add(ctx context.Context, bookID int64) error {
	if err := p.svc.AddCollection(ctx, bookID); err != nil {
		return err
	}
	return p.Load(ctx)
}

// Remove unfavorites one book. On failure the row is put back where it was.
func (p *CollectionsPage) Remove(ctx context.Context, bookID int64) error {
	p.mu.Lock()
	if p.indexLocked(bookID) < 0 {
		p.mu.Unlock()
		return fmt.Errorf("book %d is not in your collections: %w", bookID, ErrNotFound)
	}
	snapshot := append([]model.CollectionItem(nil), p.items...)
	p.dropLocked(map[int64]bool{bookID: true})
	p.mu.Unlock()

	if err := p.svc.RemoveCollection(ctx, bookID); err != nil {
		p.restore(snapshot, map[int64]bool{bookID: true})
		p.cfg.log.Warn("collection removal rolled back", zap.Int64("book_id", bookID), zap.Error(err))
		return err
	}
	return nil
}

// RemoveMany unfavorites several books in parallel. Books whose removal
// failed are restored and listed in the returned *BatchError. Ids not in
// the list are ignored.
func (p *CollectionsPage) RemoveMany(ctx context.Context, bookIDs []int64) error {
	p.mu.Lock()
	targets := make(map[int64]bool, len(bookIDs))
	var ids []int64
	for _, id := range bookIDs {
		if p.indexLocked(id) >= 0 && !targets[id] {
			targets[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		p.mu.Unlock()
		return nil
	}
	snapshot := append([]model.CollectionItem(nil), p.items...)
	p.dropLocked(targets)
	p.mu.Unlock()

	err := runBatch(ctx, "remove collections", ids, p.cfg.concurrency, func(ctx context.Context, id int64) error {
		return p.svc.RemoveCollection(ctx, id)
	})
	var be *BatchError
	if errors.As(err, &be) {
		failed := make(map[int64]bool, len(be.Failures))
		for _, f := range be.Failures {
			failed[f.ID] = true
			p.cfg.log.Warn("collection removal rolled back", zap.Int64("book_id", f.ID), zap.Error(f.Err))
		}
		p.restore(snapshot, failed)
	}
	return err
}

// Clear unfavorites everything shown.
func (p *CollectionsPage) Clear(ctx context.Context) error {
	items := p.Items()
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.BookID)
	}
	return p.RemoveMany(ctx, ids)
}

func (p *CollectionsPage) dropLocked(bookIDs map[int64]bool) {
	kept := p.items[:0:0]
	for _, it := range p.items {
		if !bookIDs[it.BookID] {
			kept = append(kept, it)
		}
	}
	p.items = kept
}

// restore rebuilds the list from snapshot order, keeping current rows and
// bringing back the ones in failed.
func (p *CollectionsPage) restore(snapshot []model.CollectionItem, failed map[int64]bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	present := make(map[int64]bool, len(p.items))
	for _, it := range p.items {
		present[it.BookID] = true
	}
	out := make([]model.CollectionItem, 0, len(p.items)+len(failed))
	for _, it := range snapshot {
		if present[it.BookID] || failed[it.BookID] {
			out = append(out, it)
			delete(present, it.BookID)
		}
	}
	// Rows that arrived after the snapshot keep their place at the end.
	for _, it := range p.items {
		if present[it.BookID] {
			out = append(out, it)
		}
	}
	p.items = out
}
