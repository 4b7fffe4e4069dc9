package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func ptr(f float64) *float64 { return &f }

func TestSubtotalUsesDiscountAndSelection(t *testing.T) {
	items := []CartItem{
		{ID: 1, BookID: 11, Price: 89, DiscountPrice: ptr(68.5), Quantity: 1, Selected: true},
		{ID: 2, BookID: 12, Price: 49.9, Quantity: 2, Selected: true},
		{ID: 3, BookID: 13, Price: 149, DiscountPrice: ptr(119), Quantity: 1, Selected: false},
	}
	assert.InDelta(t, 168.3, Subtotal(items), 1e-9)
	assert.Equal(t, 2, SelectedCount(items))
	assert.False(t, AllSelected(items))
	assert.Equal(t, []CheckoutLine{{BookID: 11, Quantity: 1}, {BookID: 12, Quantity: 2}}, SelectionLines(items))
}

func TestAllSelectedEmpty(t *testing.T) {
	assert.False(t, AllSelected(nil))
	assert.Equal(t, 0.0, Subtotal(nil))
	assert.Empty(t, SelectionLines(nil))
}

func TestRatingDistribution(t *testing.T) {
	d := RatingDistribution([]int{5, 5, 4, 3, 1, 0, 9})
	assert.InDelta(t, 42.9, d.Stars(5), 1e-9) // 5, 5, 9
	assert.InDelta(t, 14.3, d.Stars(4), 1e-9)
	assert.InDelta(t, 14.3, d.Stars(3), 1e-9)
	assert.Equal(t, 0.0, d.Stars(2))
	assert.InDelta(t, 28.6, d.Stars(1), 1e-9) // 1, 0
	assert.Equal(t, 0.0, d.Stars(6))

	assert.Equal(t, Distribution{}, RatingDistribution(nil))
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "¥168.30", FormatMoney(168.299999999))
	assert.Equal(t, "¥0.00", FormatMoney(0))
}

func cartGen() *rapid.Generator[[]CartItem] {
	return rapid.Custom(func(t *rapid.T) []CartItem {
		n := rapid.IntRange(0, 12).Draw(t, "n")
		items := make([]CartItem, n)
		for i := range items {
			items[i] = CartItem{
				ID:       int64(i + 1),
				BookID:   int64(100 + i),
				Price:    float64(rapid.IntRange(0, 50000).Draw(t, "cents")) / 100,
				Quantity: rapid.IntRange(1, 20).Draw(t, "qty"),
				Selected: rapid.Bool().Draw(t, "selected"),
			}
			if rapid.Bool().Draw(t, "discounted") {
				d := float64(rapid.IntRange(1, 50000).Draw(t, "discount")) / 100
				items[i].DiscountPrice = &d
			}
		}
		return items
	})
}

func TestSubtotalProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		items := cartGen().Draw(t, "items")

		var want float64
		for _, it := range items {
			if !it.Selected {
				continue
			}
			p := it.Price
			if it.DiscountPrice != nil {
				p = *it.DiscountPrice
			}
			want += p * float64(it.Quantity)
		}
		if got := Subtotal(items); got != want {
			t.Fatalf("subtotal %v, want %v", got, want)
		}

		// Changing the quantity of an unselected item leaves the subtotal alone.
		for i := range items {
			if items[i].Selected {
				continue
			}
			before := Subtotal(items)
			items[i].Quantity = rapid.IntRange(1, 20).Draw(t, "newQty")
			if after := Subtotal(items); after != before {
				t.Fatalf("unselected quantity change moved subtotal %v -> %v", before, after)
			}
		}
	})
}

func TestRatingDistributionSumsToHundred(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ratings := rapid.SliceOfN(rapid.IntRange(-2, 8), 1, 200).Draw(t, "ratings")
		d := RatingDistribution(ratings)
		var sum float64
		for _, p := range d {
			if p < 0 || p > 100 {
				t.Fatalf("bucket out of range: %v", p)
			}
			sum += p
		}
		if sum < 99.7 || sum > 100.3 {
			t.Fatalf("distribution sums to %v", sum)
		}
	})
}
