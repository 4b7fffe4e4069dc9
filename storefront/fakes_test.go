package storefront

import (
	"context"
	"errors"
	"sync"

	"bookstore-cli/model"
)

var errBackend = errors.New("backend said no")

// fakeCart is an in-memory CartService that fails the item ids it is told to.
type fakeCart struct {
	mu      sync.Mutex
	items   []model.CartItem
	fail    map[int64]bool
	failGet error
	updates []int64
	removes []int64
}

func newFakeCart(items ...model.CartItem) *fakeCart {
	return &fakeCart{items: items, fail: map[int64]bool{}}
}

func (f *fakeCart) GetCart(ctx context.Context, onlySelected bool) ([]model.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		return nil, f.failGet
	}
	return append([]model.CartItem(nil), f.items...), nil
}

func (f *fakeCart) UpdateCartItem(ctx context.Context, id int64, u model.CartUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, id)
	if f.fail[id] {
		return errBackend
	}
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Quantity = u.Quantity
			f.items[i].Selected = u.Selected
		}
	}
	return nil
}

func (f *fakeCart) RemoveCartItem(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removes = append(f.removes, id)
	if f.fail[id] {
		return errBackend
	}
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeCart) calls() (updates, removes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates), len(f.removes)
}

type fakeCollections struct {
	mu      sync.Mutex
	items   []model.CollectionItem
	fail    map[int64]bool
	removes []int64
}

func (f *fakeCollections) ListCollections(ctx context.Context, page, size int) ([]model.CollectionItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.CollectionItem(nil), f.items...), nil
}

func (f *fakeCollections) AddCollection(ctx context.Context, bookID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[bookID] {
		return errBackend
	}
	f.items = append([]model.CollectionItem{{ID: bookID * 10, BookID: bookID, Title: "new"}}, f.items...)
	return nil
}

func (f *fakeCollections) RemoveCollection(ctx context.Context, bookID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removes = append(f.removes, bookID)
	if f.fail[bookID] {
		return errBackend
	}
	for i := range f.items {
		if f.items[i].BookID == bookID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			break
		}
	}
	return nil
}

func sampleCart() []model.CartItem {
	d := 68.5
	return []model.CartItem{
		{ID: 1, BookID: 11, Title: "A", Price: 89, DiscountPrice: &d, Quantity: 1, Stock: 5, Selected: true},
		{ID: 2, BookID: 12, Title: "B", Price: 49.9, Quantity: 2, Stock: 0, Selected: true},
		{ID: 3, BookID: 13, Title: "C", Price: 149, Quantity: 1, Stock: 2, Selected: false},
		{ID: 4, BookID: 14, Title: "D", Price: 10, Quantity: 3, Stock: 9, Selected: false},
	}
}

func ids(items []model.CartItem) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}
