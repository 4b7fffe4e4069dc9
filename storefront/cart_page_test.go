package storefront

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"pgregory.net/rapid"

	"bookstore-cli/model"
)

func loadedCart(t *testing.T, svc *fakeCart) *CartPage {
	t.Helper()
	p := NewCartPage(svc, WithConcurrency(2))
	require.NoError(t, p.Load(context.Background()))
	return p
}

func TestCartLoadStates(t *testing.T) {
	svc := newFakeCart(sampleCart()...)
	p := NewCartPage(svc)
	assert.Equal(t, StatusIdle, p.State().Status)

	require.NoError(t, p.Load(context.Background()))
	assert.Equal(t, StatusReady, p.State().Status)
	assert.Len(t, p.Items(), 4)

	svc.failGet = errBackend
	err := p.Load(context.Background())
	assert.ErrorIs(t, err, errBackend)
	st := p.State()
	assert.Equal(t, StatusError, st.Status)
	assert.ErrorIs(t, st.Err, errBackend)
	assert.Empty(t, p.Items(), "no stale or fabricated rows after a failed load")
}

func TestCartSummary(t *testing.T) {
	p := loadedCart(t, newFakeCart(sampleCart()...))
	s := p.Summary()
	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 2, s.SelectedCount)
	assert.InDelta(t, 168.3, s.Subtotal, 1e-9)
	assert.False(t, s.AllSelected)
	assert.True(t, s.CanCheckout)
	assert.False(t, s.Empty)

	empty := loadedCart(t, newFakeCart())
	s = empty.Summary()
	assert.True(t, s.Empty)
	assert.False(t, s.AllSelected)
	assert.False(t, s.CanCheckout)
}

func TestToggleRollsBack(t *testing.T) {
	svc := newFakeCart(sampleCart()...)
	p := loadedCart(t, svc)

	require.NoError(t, p.Toggle(context.Background(), 3))
	it, _ := p.Item(3)
	assert.True(t, it.Selected)

	svc.fail[3] = true
	err := p.Toggle(context.Background(), 3)
	assert.ErrorIs(t, err, errBackend)
	it, _ = p.Item(3)
	assert.True(t, it.Selected, "selection restored after failed toggle")

	err = p.Toggle(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSelectAllSkipsAlreadySelected(t *testing.T) {
	defer goleak.VerifyNone(t)
	svc := newFakeCart(sampleCart()...)
	p := loadedCart(t, svc)

	require.NoError(t, p.SelectAll(context.Background(), true))
	assert.True(t, p.Summary().AllSelected)
	updates, _ := svc.calls()
	assert.Equal(t, 2, updates, "only items 3 and 4 needed a request")

	require.NoError(t, p.SelectAll(context.Background(), true))
	updates, _ = svc.calls()
	assert.Equal(t, 2, updates, "idempotent: no requests the second time")
}

func TestSelectAllPartialFailure(t *testing.T) {
	defer goleak.VerifyNone(t)
	svc := newFakeCart(sampleCart()...)
	svc.fail[4] = true
	p := loadedCart(t, svc)

	err := p.SelectAll(context.Background(), true)
	var be *BatchError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, []int64{4}, be.FailedIDs())
	assert.ErrorIs(t, err, errBackend)

	got := map[int64]bool{}
	for _, it := range p.Items() {
		got[it.ID] = it.Selected
	}
	assert.Equal(t, map[int64]bool{1: true, 2: true, 3: true, 4: false}, got)
}

func TestSetQuantityClampsAndSkips(t *testing.T) {
	svc := newFakeCart(sampleCart()...)
	p := loadedCart(t, svc)
	ctx := context.Background()

	require.NoError(t, p.SetQuantity(ctx, 3, 10))
	it, _ := p.Item(3)
	assert.Equal(t, 2, it.Quantity, "clamped to stock")

	before, _ := svc.calls()
	require.NoError(t, p.SetQuantity(ctx, 3, 7))
	require.NoError(t, p.Decrement(ctx, 1))
	after, _ := svc.calls()
	assert.Equal(t, before, after, "unchanged clamped value issues no request")

	require.NoError(t, p.Increment(ctx, 2))
	it, _ = p.Item(2)
	assert.Equal(t, 3, it.Quantity, "unknown stock has no upper bound")
}

func TestSetQuantityRollsBack(t *testing.T) {
	svc := newFakeCart(sampleCart()...)
	svc.fail[4] = true
	p := loadedCart(t, svc)

	before := p.Summary().Subtotal
	err := p.SetQuantity(context.Background(), 4, 5)
	assert.ErrorIs(t, err, errBackend)
	it, _ := p.Item(4)
	assert.Equal(t, 3, it.Quantity)
	assert.Equal(t, before, p.Summary().Subtotal)
}

func TestRemoveRestoresPosition(t *testing.T) {
	svc := newFakeCart(sampleCart()...)
	svc.fail[2] = true
	p := loadedCart(t, svc)

	err := p.Remove(context.Background(), 2)
	assert.ErrorIs(t, err, errBackend)
	assert.Equal(t, []int64{1, 2, 3, 4}, ids(p.Items()))

	require.NoError(t, p.Remove(context.Background(), 3))
	assert.Equal(t, []int64{1, 2, 4}, ids(p.Items()))
}

func TestRemoveSelectedPartialFailure(t *testing.T) {
	defer goleak.VerifyNone(t)
	items := sampleCart()
	items[0].Selected = false
	items[2].Selected = true
	items[3].Selected = true
	// Selected: 2, 3, 4.
	svc := newFakeCart(items...)
	svc.fail[3] = true
	p := loadedCart(t, svc)

	err := p.RemoveSelected(context.Background())
	var be *BatchError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, []int64{3}, be.FailedIDs())
	assert.Equal(t, 3, be.Total)
	if diff := cmp.Diff([]int64{1, 3}, ids(p.Items())); diff != "" {
		t.Errorf("items after partial delete (-want +got):\n%s", diff)
	}

	items = sampleCart()
	items[0].Selected = true
	items[1].Selected = false
	items[2].Selected = true
	svc = newFakeCart(items...)
	svc.fail[3] = true
	p = loadedCart(t, svc)
	_ = p.RemoveSelected(context.Background())
	assert.Equal(t, []int64{2, 3, 4}, ids(p.Items()), "restored row keeps its relative order")
}

func TestRemoveSelectedNothingSelected(t *testing.T) {
	items := sampleCart()
	for i := range items {
		items[i].Selected = false
	}
	p := loadedCart(t, newFakeCart(items...))
	assert.ErrorIs(t, p.RemoveSelected(context.Background()), ErrNothingSelected)
}

func TestCartCheckout(t *testing.T) {
	s := tempStore(t)
	p := loadedCart(t, newFakeCart(sampleCart()...))

	lines, err := p.Checkout(s)
	require.NoError(t, err)
	assert.Equal(t, []model.CheckoutLine{{BookID: 11, Quantity: 1}, {BookID: 12, Quantity: 2}}, lines)

	saved, err := s.LoadSelection()
	require.NoError(t, err)
	assert.Equal(t, lines, saved)

	require.NoError(t, p.SelectAll(context.Background(), false))
	_, err = p.Checkout(s)
	assert.ErrorIs(t, err, ErrNothingSelected)
}

// Whatever sequence of operations runs and whichever requests fail, the
// local list never holds an item the backend does not also hold with the
// same values once every failure has been rolled back.
func TestCartMatchesBackendAfterRollbacks(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		svc := newFakeCart(sampleCart()...)
		p := NewCartPage(svc)
		ctx := context.Background()
		if err := p.Load(ctx); err != nil {
			t.Fatalf("load: %v", err)
		}

		steps := rapid.IntRange(1, 25).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			id := rapid.Int64Range(1, 4).Draw(t, "id")
			svc.mu.Lock()
			svc.fail = map[int64]bool{id: rapid.Bool().Draw(t, "fail")}
			svc.mu.Unlock()

			switch rapid.IntRange(0, 5).Draw(t, "op") {
			case 0:
				_ = p.Toggle(ctx, id)
			case 1:
				_ = p.SetQuantity(ctx, id, rapid.IntRange(-2, 12).Draw(t, "qty"))
			case 2:
				_ = p.SelectAll(ctx, rapid.Bool().Draw(t, "sel"))
			case 3:
				_ = p.Remove(ctx, id)
			case 4:
				_ = p.RemoveSelected(ctx)
			case 5:
				_ = p.Increment(ctx, id)
			}

			local := p.Items()
			remote, _ := svc.GetCart(ctx, false)
			if diff := cmp.Diff(remote, local); diff != "" {
				t.Fatalf("local diverged from backend (-remote +local):\n%s", diff)
			}
			sum := p.Summary()
			if sum.Subtotal != model.Subtotal(local) {
				t.Fatalf("summary subtotal %v != %v", sum.Subtotal, model.Subtotal(local))
			}
			for _, it := range local {
				if it.Quantity < 1 || (it.Stock > 0 && it.Quantity > it.Stock) {
					t.Fatalf("quantity invariant broken: %+v", it)
				}
			}
		}
	})
}
