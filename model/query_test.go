package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestBookQueryValues(t *testing.T) {
	tests := []struct {
		name string
		q    BookQuery
		want map[string]string
	}{
		{
			name: "defaults",
			q:    BookQuery{},
			want: map[string]string{"page": "1", "size": "20"},
		},
		{
			name: "full",
			q: BookQuery{
				Page: 3, Size: 10, Keyword: "  golang ", Sort: SortPriceAsc,
				Categories: []string{"tech", " ", "novel"}, MinPrice: 10, MaxPrice: 99.5, ScoreMin: 4,
			},
			want: map[string]string{
				"page": "3", "size": "10", "keyword": "golang", "sort": "price_asc",
				"category": "tech,novel", "min_price": "10", "max_price": "99.5", "score_min": "4",
			},
		},
		{
			name: "inverted range is swapped",
			q:    BookQuery{MinPrice: 80, MaxPrice: 20},
			want: map[string]string{"page": "1", "size": "20", "min_price": "20", "max_price": "80"},
		},
		{
			name: "score floor clamps",
			q:    BookQuery{ScoreMin: 1},
			want: map[string]string{"page": "1", "size": "20", "score_min": "2"},
		},
		{
			name: "score floor ceiling",
			q:    BookQuery{ScoreMin: 9, MinPrice: -4},
			want: map[string]string{"page": "1", "size": "20", "score_min": "5"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := map[string]string{}
			for k := range tt.q.Values() {
				got[k] = tt.q.Values().Get(k)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Values() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseSortOption(t *testing.T) {
	o, ok := ParseSortOption(" Hot ")
	assert.True(t, ok)
	assert.Equal(t, SortHot, o)

	o, ok = ParseSortOption("relevance")
	assert.True(t, ok)
	assert.Equal(t, SortRelevance, o)

	_, ok = ParseSortOption("cheapest")
	assert.False(t, ok)
}

func TestParseDetailSections(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Section
	}{
		{name: "empty", in: "   ", want: nil},
		{
			name: "blocks",
			in:   "About the author\nA retired engineer.\n\nContents\nPart 1\nPart 2\n\nlonely",
			want: []Section{
				{Title: "About the author", Body: "A retired engineer."},
				{Title: "Contents", Body: "Part 1\nPart 2"},
			},
		},
		{
			name: "colon lines",
			in:   "作者：张三\r\nPublisher: Example Press\nno separator here\nEmpty:",
			want: []Section{
				{Title: "作者", Body: "张三"},
				{Title: "Publisher", Body: "Example Press"},
			},
		},
		{name: "plain prose", in: "Just one paragraph of text.", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ParseDetailSections(tt.in)); diff != "" {
				t.Errorf("sections mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
