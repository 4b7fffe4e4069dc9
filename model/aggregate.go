package model

import (
	"fmt"
	"math"
)

// EffectivePrice picks the discount price when present, else the list price.
func EffectivePrice(price float64, discount *float64) float64 {
	if discount != nil {
		return *discount
	}
	return price
}

// EffectivePrice of a cart row.
func (c CartItem) EffectivePrice() float64 {
	return EffectivePrice(c.Price, c.DiscountPrice)
}

// LineTotal is effective price × quantity.
func (c CartItem) LineTotal() float64 {
	return c.EffectivePrice() * float64(c.Quantity)
}

// SelectedCount counts selected rows.
func SelectedCount(items []CartItem) int {
	n := 0
	for _, it := range items {
		if it.Selected {
			n++
		}
	}
	return n
}

// Subtotal sums LineTotal over selected rows. It is not rounded; use
// FormatMoney for display.
func Subtotal(items []CartItem) float64 {
	var sum float64
	for _, it := range items {
		if it.Selected {
			sum += it.LineTotal()
		}
	}
	return sum
}

// AllSelected is false for an empty cart.
func AllSelected(items []CartItem) bool {
	if len(items) == 0 {
		return false
	}
	for _, it := range items {
		if !it.Selected {
			return false
		}
	}
	return true
}

// SelectionLines returns the selected-for-checkout set in cart order.
func SelectionLines(items []CartItem) []CheckoutLine {
	lines := make([]CheckoutLine, 0, len(items))
	for _, it := range items {
		if it.Selected {
			lines = append(lines, CheckoutLine{BookID: it.BookID, Quantity: it.Quantity})
		}
	}
	return lines
}

// Distribution holds the percentage of ratings per star, index 0 = 1 star.
type Distribution [5]float64

// Stars returns the percentage for n stars (1..5); 0 outside that range.
func (d Distribution) Stars(n int) float64 {
	if n < 1 || n > 5 {
		return 0
	}
	return d[n-1]
}

// RatingDistribution buckets ratings into five stars. Ratings outside 1..5
// are clamped into range. Percentages are rounded to one decimal.
func RatingDistribution(ratings []int) Distribution {
	var d Distribution
	if len(ratings) == 0 {
		return d
	}
	var counts [5]int
	for _, r := range ratings {
		r = min(max(r, 1), 5)
		counts[r-1]++
	}
	for i, c := range counts {
		d[i] = math.Round(float64(c)*1000/float64(len(ratings))) / 10
	}
	return d
}

// CommentRatings extracts the ratings of a comment list.
func CommentRatings(comments []Comment) []int {
	out := make([]int, 0, len(comments))
	for _, c := range comments {
		out = append(out, c.Rating)
	}
	return out
}

// FormatMoney renders an amount with two decimals.
func FormatMoney(v float64) string {
	return fmt.Sprintf("¥%.2f", roundCents(v))
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
