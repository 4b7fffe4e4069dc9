package storefront

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"bookstore-cli/model"
)

// OrderService is what checkout needs from the backend.
type OrderService interface {
	CreateOrder(ctx context.Context, req model.OrderRequest) (model.OrderConfirmation, error)
}

// SelectionStore loads and clears the persisted selected-for-checkout set.
type SelectionStore interface {
	LoadSelection() ([]model.CheckoutLine, error)
	ClearSelection() error
}

// CheckoutPage turns the persisted selection and a shipping form into an
// order.
type CheckoutPage struct {
	svc OrderService
	cfg pageConfig

	mu    sync.Mutex
	store SelectionStore
	lines []model.CheckoutLine
}

// NewCheckoutPage returns a checkout page that has not been opened.
func NewCheckoutPage(svc OrderService, opts ...PageOption) *CheckoutPage {
	return &CheckoutPage{svc: svc, cfg: newPageConfig(opts)}
}

// Open loads the selection. A missing or malformed selection returns an
// error wrapping both ErrBackToCart and the cause.
func (p *CheckoutPage) Open(store SelectionStore) ([]model.CheckoutLine, error) {
	lines, err := store.LoadSelection()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackToCart, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.store = store
	p.lines = lines
	return append([]model.CheckoutLine(nil), lines...), nil
}

// Lines returns the opened selection.
func (p *CheckoutPage) Lines() []model.CheckoutLine {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.CheckoutLine(nil), p.lines...)
}

// Submit validates the form and places the order. The persisted selection
// is cleared only after the backend accepts the order.
func (p *CheckoutPage) Submit(ctx context.Context, form ShippingForm) (model.OrderConfirmation, error) {
	p.mu.Lock()
	store, lines := p.store, append([]model.CheckoutLine(nil), p.lines...)
	p.mu.Unlock()
	if store == nil || len(lines) == 0 {
		return model.OrderConfirmation{}, fmt.Errorf("%w: %w", ErrBackToCart, ErrNoSelection)
	}

	form = ShippingForm{
		Receiver: strings.TrimSpace(form.Receiver),
		Phone:    strings.TrimSpace(form.Phone),
		Address:  strings.TrimSpace(form.Address),
	}
	if err := Validate(form); err != nil {
		return model.OrderConfirmation{}, err
	}

	conf, err := p.svc.CreateOrder(ctx, model.OrderRequest{
		Items:           lines,
		ShippingAddress: form.Address,
		Phone:           form.Phone,
		Receiver:        form.Receiver,
	})
	if err != nil {
		return model.OrderConfirmation{}, err
	}

	if err := store.ClearSelection(); err != nil {
		p.cfg.log.Warn("order placed but selection not cleared", zap.String("order_no", conf.OrderNo), zap.Error(err))
	}
	p.mu.Lock()
	p.lines = nil
	p.mu.Unlock()
	return conf, nil
}
