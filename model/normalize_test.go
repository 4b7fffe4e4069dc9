package model

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCartItemFromRecordSnakeCase(t *testing.T) {
	recs, _, err := DecodeList(json.RawMessage(`[{"book_id": 7, "count": 2, "unit_price": 50, "selected": true}]`))
	require.NoError(t, err)
	require.Len(t, recs, 1)

	items := NormalizeCartItems(recs)
	it := items[0]
	assert.Equal(t, int64(7), it.BookID)
	assert.Equal(t, 2, it.Quantity)
	assert.Equal(t, 50.0, it.Price)
	assert.True(t, it.Selected)
	assert.Nil(t, it.DiscountPrice)
	assert.Equal(t, 100.0, Subtotal(items))
}

func TestCartItemDefaults(t *testing.T) {
	it := CartItemFromRecord(Record{})
	assert.False(t, it.Selected)
	assert.Equal(t, 0.0, it.Price)
	assert.Equal(t, 1, it.Quantity)
	assert.Equal(t, PlaceholderCover, it.Cover)
	assert.Equal(t, "", it.Title)
	assert.Nil(t, it.DiscountPrice)
}

func TestCartItemCamelCaseAliases(t *testing.T) {
	rec, err := DecodeRecord(json.RawMessage(`{
		"id": 3, "bookId": 11, "bookName": "Go in Action", "imageUrl": "c.png",
		"bookPrice": "39.9", "discountPrice": 29.9, "quantity": 4, "stock": 3
	}`))
	require.NoError(t, err)

	it := CartItemFromRecord(rec)
	assert.Equal(t, int64(3), it.ID)
	assert.Equal(t, int64(11), it.BookID)
	assert.Equal(t, "Go in Action", it.Title)
	assert.Equal(t, "c.png", it.Cover)
	assert.InDelta(t, 39.9, it.Price, 1e-9)
	require.NotNil(t, it.DiscountPrice)
	assert.InDelta(t, 29.9, *it.DiscountPrice, 1e-9)
	assert.Equal(t, 3, it.Quantity, "quantity is clamped to stock")
}

func TestZeroDiscountIsNoDiscount(t *testing.T) {
	it := CartItemFromRecord(Record{"price": json.Number("10"), "discount_price": json.Number("0"), "count": json.Number("1"), "selected": true})
	assert.Nil(t, it.DiscountPrice)
	assert.Equal(t, 10.0, it.EffectivePrice())
}

func TestDecodeListShapes(t *testing.T) {
	recs, page, err := DecodeList(json.RawMessage(`{"page": 2, "size": 10, "total": 31, "list": [{"id": 1}, 5, {"id": 2}]}`))
	require.NoError(t, err)
	assert.Len(t, recs, 2)
	assert.Equal(t, Page{Page: 2, Size: 10, Total: 31}, page)

	recs, page, err = DecodeList(json.RawMessage(`{"list": []}`))
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Equal(t, 0, page.Total)

	for _, empty := range []string{
		`{"page": 1, "size": 20, "total": 0, "list": null}`,
		`{"page": 1, "size": 20, "total": 0}`,
		`null`,
		``,
	} {
		recs, _, err := DecodeList(json.RawMessage(empty))
		require.NoError(t, err, "input %q", empty)
		assert.NotNil(t, recs, "input %q", empty)
		assert.Empty(t, recs, "input %q", empty)
	}

	for _, bad := range []string{`{"items": []}`, `"x"`, `42`, `{"list": "x"}`, `{"list": {}}`, `not json`} {
		_, _, err := DecodeList(json.RawMessage(bad))
		assert.True(t, errors.Is(err, ErrNotList), "input %s", bad)
	}
}

func TestInt64OutOfRange(t *testing.T) {
	rec, err := DecodeRecord(json.RawMessage(`{"a": 1e20, "b": -1e20, "c": "1e20", "d": 9.2e18, "e": 12.7, "f": 9223372036854775807}`))
	require.NoError(t, err)
	assert.Equal(t, int64(0), rec.Int64("a"))
	assert.Equal(t, int64(0), rec.Int64("b"))
	assert.Equal(t, int64(0), rec.Int64("c"))
	assert.Equal(t, int64(9.2e18), rec.Int64("d"))
	assert.Equal(t, int64(12), rec.Int64("e"))
	assert.Equal(t, int64(math.MaxInt64), rec.Int64("f"))

	item := CartItemFromRecord(Record{"id": json.Number("1e20"), "book_id": 3})
	assert.Equal(t, int64(0), item.ID)
	assert.Equal(t, int64(3), item.BookID)
}

func TestCollectionFromRecord(t *testing.T) {
	rec, err := DecodeRecord(json.RawMessage(`{"id": 9, "book_id": 4, "book_title": "Dune", "book_author": "Herbert", "collect_time": "2025-10-01 14:30:00"}`))
	require.NoError(t, err)

	c := CollectionFromRecord(rec)
	assert.Equal(t, int64(9), c.ID)
	assert.Equal(t, int64(4), c.BookID)
	assert.Equal(t, "Dune", c.Title)
	assert.Equal(t, "Herbert", c.Author)
	assert.Equal(t, PlaceholderCover, c.Cover)
	assert.Nil(t, c.Price)
	assert.Equal(t, 2025, c.CollectedAt.Year())
	assert.Equal(t, "2025-10-01 14:30:00", c.CollectedAtRaw)
}

func TestBookSummaryDiscountRate(t *testing.T) {
	b := BookSummaryFromRecord(Record{
		"id":            json.Number("5"),
		"book_name":     "SICP",
		"price":         json.Number("100"),
		"discount_rate": json.Number("0.85"),
		"total_score":   json.Number("4.5"),
	})
	require.NotNil(t, b.DiscountPrice)
	assert.Equal(t, 85.0, *b.DiscountPrice)
	require.NotNil(t, b.Rating)
	assert.Equal(t, 4.5, *b.Rating)
	assert.Equal(t, 85.0, b.EffectivePrice())

	b = BookSummaryFromRecord(Record{"price": json.Number("100"), "discount_rate": json.Number("1")})
	assert.Nil(t, b.DiscountPrice)
	assert.Nil(t, b.Rating)
}

func TestUploadSizeAsString(t *testing.T) {
	u := UploadFromRecord(Record{"url": "https://cdn/x.png", "file_name": "x.png", "size": "2048"})
	assert.Equal(t, int64(2048), u.Size)
	assert.Equal(t, int64(0), UploadFromRecord(Record{"size": "n/a"}).Size)
}

func TestClampQuantity(t *testing.T) {
	cases := []struct{ q, stock, want int }{
		{0, 10, 1},
		{-3, 0, 1},
		{5, 0, 5},
		{12, 10, 10},
		{10, 10, 10},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ClampQuantity(c.q, c.stock), "q=%d stock=%d", c.q, c.stock)
	}
}

// Normalization is total: arbitrary field values never panic and always
// produce an item satisfying the quantity invariant.
func TestNormalizeCartIsTotal(t *testing.T) {
	value := rapid.OneOf(
		rapid.Just[any](nil),
		rapid.Map(rapid.Bool(), func(b bool) any { return b }),
		rapid.Map(rapid.Float64(), func(f float64) any { return json.Number(formatFloat(f)) }),
		rapid.Map(rapid.String(), func(s string) any { return s }),
		rapid.Just[any](map[string]any{"nested": true}),
		rapid.Just[any]([]any{1, "x"}),
	)
	keys := rapid.SampledFrom([]string{"id", "book_id", "bookId", "count", "quantity", "unit_price", "price", "discount_price", "stock", "selected", "book_name", "image_url"})

	rapid.Check(t, func(t *rapid.T) {
		rec := Record(rapid.MapOf(keys, value).Draw(t, "record"))
		it := CartItemFromRecord(rec)
		if it.Quantity < 1 {
			t.Fatalf("quantity %d < 1", it.Quantity)
		}
		if it.Stock > 0 && it.Quantity > it.Stock {
			t.Fatalf("quantity %d > stock %d", it.Quantity, it.Stock)
		}
		if it.Price < 0 {
			t.Fatalf("negative price %v", it.Price)
		}
		if it.DiscountPrice != nil && *it.DiscountPrice <= 0 {
			t.Fatalf("non-positive discount kept")
		}
	})
}

func formatFloat(f float64) string {
	b, err := json.Marshal(f)
	if err != nil {
		return "0"
	}
	return string(b)
}
