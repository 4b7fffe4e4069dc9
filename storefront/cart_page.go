package storefront

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"bookstore-cli/model"
)

// CartService is what the cart page needs from the backend.
type CartService interface {
	GetCart(ctx context.Context, onlySelected bool) ([]model.CartItem, error)
	UpdateCartItem(ctx context.Context, itemID int64, u model.CartUpdate) error
	RemoveCartItem(ctx context.Context, itemID int64) error
}

// SelectionSaver persists the selected-for-checkout set.
type SelectionSaver interface {
	SaveSelection(lines []model.CheckoutLine) error
}

// CartSummary is everything the cart footer shows.
type CartSummary struct {
	Count         int
	SelectedCount int
	Subtotal      float64
	AllSelected   bool
	Empty         bool
	CanCheckout   bool
}

// CartPage is the local, optimistically updated copy of the cart. Mutations
// apply locally first and are rolled back item by item when the backend
// rejects them.
type CartPage struct {
	svc CartService
	cfg pageConfig

	mu    sync.Mutex
	items []model.CartItem
	state LoadState
}

// NewCartPage returns an idle cart page.
func NewCartPage(svc CartService, opts ...PageOption) *CartPage {
	return &CartPage{svc: svc, cfg: newPageConfig(opts)}
}

// Load fetches the whole cart and replaces the local list.
func (p *CartPage) Load(ctx context.Context) error {
	p.mu.Lock()
	p.state = LoadState{Status: StatusLoading}
	p.mu.Unlock()

	items, err := p.svc.GetCart(ctx, false)

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
func (p *CartPage) State() LoadState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Items returns a copy of the current list.
func (p *CartPage) Items() []model.CartItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.CartItem(nil), p.items...)
}

// Item returns one row by cart item id.
func (p *CartPage) Item(itemID int64) (model.CartItem, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i := p.indexLocked(itemID); i >= 0 {
		return p.items[i], true
	}
	return model.CartItem{}, false
}

// Summary recomputes the footer from the current list.
func (p *CartPage) Summary() CartSummary {
	p.mu.Lock()
	defer p.mu.Unlock()
	sel := model.SelectedCount(p.items)
	return CartSummary{
		Count:         len(p.items),
		SelectedCount: sel,
		Subtotal:      model.Subtotal(p.items),
		AllSelected:   model.AllSelected(p.items),
		Empty:         len(p.items) == 0,
		CanCheckout:   sel > 0,
	}
}

func (p *CartPage) indexLocked(itemID int64) int {
	for i := range p.items {
		if p.items[i].ID == itemID {
			return i
		}
	}
	return -1
}

func (p *CartPage) rolledBack(op string, itemID int64, err error) {
	p.cfg.log.Warn("cart update rolled back",
		zap.String("op", op),
		zap.Int64("item_id", itemID),
		zap.Error(err))
}

// Toggle flips the selection of one item.
func (p *CartPage) Toggle(ctx context.Context, itemID int64) error {
	p.mu.Lock()
	i := p.indexLocked(itemID)
	if i < 0 {
		p.mu.Unlock()
		return fmt.Errorf("cart item %d: %w", itemID, ErrNotFound)
	}
	target := !p.items[i].Selected
	p.mu.Unlock()
	return p.SetSelected(ctx, itemID, target)
}

// SetSelected sets the selection of one item. No request is made when the
// item already has that value.
func (p *CartPage) SetSelected(ctx context.Context, itemID int64, selected bool) error {
	p.mu.Lock()
	i := p.indexLocked(itemID)
	if i < 0 {
		p.mu.Unlock()
		return fmt.Errorf("cart item %d: %w", itemID, ErrNotFound)
	}
	if p.items[i].Selected == selected {
		p.mu.Unlock()
		return nil
	}
	p.items[i].Selected = selected
	update := model.CartUpdate{Quantity: p.items[i].Quantity, Selected: selected}
	p.mu.Unlock()

	if err := p.svc.UpdateCartItem(ctx, itemID, update); err != nil {
		p.revertSelection(itemID, selected)
		p.rolledBack("select", itemID, err)
		return err
	}
	return nil
}

// revertSelection undoes an optimistic selection change unless something
// else has changed it since.
func (p *CartPage) revertSelection(itemID int64, applied bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i := p.indexLocked(itemID); i >= 0 && p.items[i].Selected == applied {
		p.items[i].Selected = !applied
	}
}

// SelectAll sets every item to selected. Items already at that value are
// left alone; the rest are updated in parallel and each failure is rolled
// back on its own and reported in a *BatchError.
func (p *CartPage) SelectAll(ctx context.Context, selected bool) error {
	p.mu.Lock()
	updates := make(map[int64]model.CartUpdate)
	var ids []int64
	for i := range p.items {
		if p.items[i].Selected == selected {
			continue
		}
		p.items[i].Selected = selected
		ids = append(ids, p.items[i].ID)
		updates[p.items[i].ID] = model.CartUpdate{Quantity: p.items[i].Quantity, Selected: selected}
	}
	p.mu.Unlock()

	err := runBatch(ctx, "select all", ids, p.cfg.concurrency, func(ctx context.Context, id int64) error {
		if err := p.svc.UpdateCartItem(ctx, id, updates[id]); err != nil {
			p.revertSelection(id, selected)
			p.rolledBack("select all", id, err)
			return err
		}
		return nil
	})
	return err
}

// SetQuantity sets the quantity of one item, clamped to [1, stock]. No
// request is made when the clamped value equals the current one.
func (p *CartPage) SetQuantity(ctx context.Context, itemID int64, qty int) error {
	p.mu.Lock()
	i := p.indexLocked(itemID)
	if i < 0 {
		p.mu.Unlock()
		return fmt.Errorf("cart item %d: %w", itemID, ErrNotFound)
	}
	prev := p.items[i].Quantity
	next := model.ClampQuantity(qty, p.items[i].Stock)
	if next == prev {
		p.mu.Unlock()
		return nil
	}
	p.items[i].Quantity = next
	update := model.CartUpdate{Quantity: next, Selected: p.items[i].Selected}
	p.mu.Unlock()

	if err := p.svc.UpdateCartItem(ctx, itemID, update); err != nil {
		p.mu.Lock()
		if j := p.indexLocked(itemID); j >= 0 && p.items[j].Quantity == next {
			p.items[j].Quantity = prev
		}
		p.mu.Unlock()
		p.rolledBack("quantity", itemID, err)
		return err
	}
	return nil
}

// Increment adds one to an item's quantity.
func (p *CartPage) Increment(ctx context.Context, itemID int64) error {
	return p.step(ctx, itemID, 1)
}

// Decrement removes one from an item's quantity; it never goes below 1.
func (p *CartPage) Decrement(ctx context.Context, itemID int64) error {
	return p.step(ctx, itemID, -1)
}

func (p *CartPage) step(ctx context.Context, itemID int64, delta int) error {
	it, ok := p.Item(itemID)
	if !ok {
		return fmt.Errorf("cart item %d: %w", itemID, ErrNotFound)
	}
	return p.SetQuantity(ctx, itemID, it.Quantity+delta)
}

type removed struct {
	item  model.CartItem
	index int
}

// Remove deletes one item. On failure it is put back where it was.
func (p *CartPage) Remove(ctx context.Context, itemID int64) error {
	p.mu.Lock()
	i := p.indexLocked(itemID)
	if i < 0 {
		p.mu.Unlock()
		return fmt.Errorf("cart item %d: %w", itemID, ErrNotFound)
	}
	r := removed{item: p.items[i], index: i}
	order := positions(p.items)
	p.items = append(p.items[:i:i], p.items[i+1:]...)
	p.mu.Unlock()

	if err := p.svc.RemoveCartItem(ctx, itemID); err != nil {
		p.restore([]removed{r}, order)
		p.rolledBack("remove", itemID, err)
		return err
	}
	return nil
}

// RemoveSelected deletes every selected item in parallel. Items whose
// delete failed are restored in their original order.
func (p *CartPage) RemoveSelected(ctx context.Context) error {
	p.mu.Lock()
	var (
		gone []removed
		keep []model.CartItem
		ids  []int64
	)
	for i, it := range p.items {
		if it.Selected {
			gone = append(gone, removed{item: it, index: i})
			ids = append(ids, it.ID)
			continue
		}
		keep = append(keep, it)
	}
	if len(gone) == 0 {
		p.mu.Unlock()
		return ErrNothingSelected
	}
	order := positions(p.items)
	p.items = keep
	p.mu.Unlock()

	err := runBatch(ctx, "remove selected", ids, p.cfg.concurrency, func(ctx context.Context, id int64) error {
		return p.svc.RemoveCartItem(ctx, id)
	})
	var be *BatchError
	if errors.As(err, &be) {
		failed := make(map[int64]bool, len(be.Failures))
		for _, f := range be.Failures {
			failed[f.ID] = true
			p.rolledBack("remove selected", f.ID, f.Err)
		}
		var back []removed
		for _, r := range gone {
			if failed[r.item.ID] {
				back = append(back, r)
			}
		}
		p.restore(back, order)
	}
	return err
}

// restore puts removed rows back in front of the first row that originally
// followed them. order maps item ids to their positions before the removal.
// Rows already present (a reload happened meanwhile) are skipped.
func (p *CartPage) restore(rows []removed, order map[int64]int) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].index < rows[j].index })
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, r := range rows {
		if p.indexLocked(r.item.ID) >= 0 {
			continue
		}
		at := len(p.items)
		for j, it := range p.items {
			if o, ok := order[it.ID]; ok && o > r.index {
				at = j
				break
			}
		}
		p.items = append(p.items, model.CartItem{})
		copy(p.items[at+1:], p.items[at:])
		p.items[at] = r.item
	}
}

func positions(items []model.CartItem) map[int64]int {
	m := make(map[int64]int, len(items))
	for i, it := range items {
		m[it.ID] = i
	}
	return m
}

// Checkout persists the selected-for-checkout set and returns it.
func (p *CartPage) Checkout(store SelectionSaver) ([]model.CheckoutLine, error) {
	p.mu.Lock()
	lines := model.SelectionLines(p.items)
	p.mu.Unlock()
	if len(lines) == 0 {
		return nil, ErrNothingSelected
	}
	if err := store.SaveSelection(lines); err != nil {
		return nil, fmt.Errorf("save selection: %w", err)
	}
	return lines, nil
}
