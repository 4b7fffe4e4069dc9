package model

import (
	"net/url"
	"strconv"
	"strings"
)

// SortOption is a catalog ordering understood by GET /books.
type SortOption string

const (
	SortRelevance SortOption = ""
	SortSalesDesc SortOption = "sales_desc"
	SortSalesAsc  SortOption = "sales_asc"
	SortPriceDesc SortOption = "price_desc"
	SortPriceAsc  SortOption = "price_asc"
	SortNew       SortOption = "new"
	SortHot       SortOption = "hot"
)

// SortOptions lists the orderings in menu order.
var SortOptions = []SortOption{SortRelevance, SortSalesDesc, SortSalesAsc, SortPriceDesc, SortPriceAsc, SortNew, SortHot}

// ParseSortOption accepts the wire value or "relevance".
func ParseSortOption(s string) (SortOption, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "relevance" {
		return SortRelevance, true
	}
	for _, o := range SortOptions {
		if string(o) == s {
			return o, true
		}
	}
	return SortRelevance, false
}

// Default catalog paging.
const (
	DefaultPageSize = 20
	MaxScoreFloor   = 5
)

// BookQuery is a catalog search. Zero values mean "no constraint".
type BookQuery struct {
	Page       int
	Size       int
	Keyword    string
	Sort       SortOption
	Categories []string
	MinPrice   float64
	MaxPrice   float64
	ScoreMin   int
}

// Normalized fills paging defaults, swaps an inverted price range, drops
// blank categories and clamps the score floor to 0 or 2..5.
func (q BookQuery) Normalized() BookQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Size < 1 {
		q.Size = DefaultPageSize
	}
	q.Keyword = strings.TrimSpace(q.Keyword)
	if q.MinPrice < 0 {
		q.MinPrice = 0
	}
	if q.MaxPrice < 0 {
		q.MaxPrice = 0
	}
	if q.MaxPrice > 0 && q.MinPrice > q.MaxPrice {
		q.MinPrice, q.MaxPrice = q.MaxPrice, q.MinPrice
	}
	switch {
	case q.ScoreMin <= 0:
		q.ScoreMin = 0
	case q.ScoreMin < 2:
		q.ScoreMin = 2
	case q.ScoreMin > MaxScoreFloor:
		q.ScoreMin = MaxScoreFloor
	}
	cats := q.Categories[:0:0]
	for _, c := range q.Categories {
		if c = strings.TrimSpace(c); c != "" {
			cats = append(cats, c)
		}
	}
	q.Categories = cats
	return q
}

// Values encodes the query for GET /books, omitting unset constraints.
func (q BookQuery) Values() url.Values {
	q = q.Normalized()
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("size", strconv.Itoa(q.Size))
	if q.Keyword != "" {
		v.Set("keyword", q.Keyword)
	}
	if q.Sort != SortRelevance {
		v.Set("sort", string(q.Sort))
	}
	if len(q.Categories) > 0 {
		v.Set("category", strings.Join(q.Categories, ","))
	}
	if q.MinPrice > 0 {
		v.Set("min_price", strconv.FormatFloat(q.MinPrice, 'f', -1, 64))
	}
	if q.MaxPrice > 0 {
		v.Set("max_price", strconv.FormatFloat(q.MaxPrice, 'f', -1, 64))
	}
	if q.ScoreMin > 0 {
		v.Set("score_min", strconv.Itoa(q.ScoreMin))
	}
	return v
}
