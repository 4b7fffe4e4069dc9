package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrNotList is returned when a list endpoint answers with something that is
// neither a JSON array nor a page object carrying a "list" array.
var ErrNotList = errors.New("response is not a list")

// Record is one raw backend object. Field names vary between backend
// revisions, so every accessor takes the accepted aliases in priority order.
// Accessors never panic; an absent or unusable field yields the zero value.
type Record map[string]any

// Page is the pagination block that accompanies list payloads.
type Page struct {
	Page  int `json:"page"`
	Size  int `json:"size"`
	Total int `json:"total"`
}

// DecodeRecord decodes a single JSON object.
func DecodeRecord(raw json.RawMessage) (Record, error) {
	var r Record
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if r == nil {
		r = Record{}
	}
	return r, nil
}

// DecodeList accepts either a bare array or a page object {page,size,total,list}.
// Non-object array entries are skipped. An absent or null payload, and a page
// object whose list is null or missing, decode as an empty list.
func DecodeList(raw json.RawMessage) ([]Record, Page, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return []Record{}, Page{}, nil
	}
	var top any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&top); err != nil {
		return nil, Page{}, fmt.Errorf("%w: %v", ErrNotList, err)
	}

	var (
		items []any
		page  Page
	)
	switch v := top.(type) {
	case nil:
	case []any:
		items = v
	case map[string]any:
		rec := Record(v)
		switch list := v["list"].(type) {
		case []any:
			items = list
		case nil:
			if !isPageObject(v) {
				return nil, Page{}, ErrNotList
			}
		default:
			return nil, Page{}, ErrNotList
		}
		page = Page{
			Page:  rec.Int("page"),
			Size:  rec.Int("size"),
			Total: rec.Int("total"),
		}
	default:
		return nil, Page{}, ErrNotList
	}

	records := make([]Record, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			records = append(records, Record(m))
		}
	}
	if page.Total == 0 {
		page.Total = len(records)
	}
	return records, page, nil
}

func isPageObject(v map[string]any) bool {
	if _, ok := v["list"]; ok {
		return true
	}
	for _, k := range []string{"page", "size", "total"} {
		if _, ok := v[k]; ok {
			return true
		}
	}
	return false
}

func (r Record) lookup(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// Has reports whether any alias is present with a non-null value.
func (r Record) Has(keys ...string) bool {
	_, ok := r.lookup(keys...)
	return ok
}

// Float returns the first alias as a float64.
func (r Record) Float(keys ...string) float64 {
	f, _ := r.FloatOK(keys...)
	return f
}

// FloatOK is Float plus whether a usable number was found. NaN and
// infinities are not usable.
func (r Record) FloatOK(keys ...string) (float64, bool) {
	f, ok := r.rawFloat(keys...)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func (r Record) rawFloat(keys ...string) (float64, bool) {
	v, ok := r.lookup(keys...)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Int returns the first alias as an int, truncating fractions.
func (r Record) Int(keys ...string) int {
	return int(r.Int64(keys...))
}

// Int64 returns the first alias as an int64. Values outside the int64 range
// yield 0.
func (r Record) Int64(keys ...string) int64 {
	v, ok := r.lookup(keys...)
	if !ok {
		return 0
	}
	if n, isNum := v.(json.Number); isNum {
		if i, err := n.Int64(); err == nil {
			return i
		}
	}
	if s, isStr := v.(string); isStr {
		if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return i
		}
	}
	f, _ := r.FloatOK(keys...)
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0
	}
	return int64(f)
}

// String returns the first alias as a string. Numbers are formatted,
// other types yield "".
func (r Record) String(keys ...string) string {
	v, ok := r.lookup(keys...)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case bool:
		return strconv.FormatBool(s)
	}
	return ""
}

// Bool returns the first alias as a bool. Numbers are true when non-zero,
// strings when they parse as true.
func (r Record) Bool(keys ...string) bool {
	v, ok := r.lookup(keys...)
	if !ok {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case json.Number:
		f, err := b.Float64()
		return err == nil && f != 0
	case string:
		p, err := strconv.ParseBool(strings.TrimSpace(b))
		return err == nil && p
	}
	return false
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Time parses the first alias as a timestamp. Numbers are unix seconds, or
// milliseconds when they are too large to be seconds.
func (r Record) Time(keys ...string) time.Time {
	v, ok := r.lookup(keys...)
	if !ok {
		return time.Time{}
	}
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timeLayouts {
			if ts, err := time.ParseInLocation(layout, s, time.Local); err == nil {
				return ts
			}
		}
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return time.Time{}
		}
		if n > 1e11 {
			return time.UnixMilli(n)
		}
		return time.Unix(n, 0)
	}
	return time.Time{}
}

// Object returns a nested object, or nil.
func (r Record) Object(keys ...string) Record {
	v, ok := r.lookup(keys...)
	if !ok {
		return nil
	}
	if m, isMap := v.(map[string]any); isMap {
		return Record(m)
	}
	return nil
}

// Records returns a nested array of objects.
func (r Record) Records(keys ...string) []Record {
	v, ok := r.lookup(keys...)
	if !ok {
		return nil
	}
	arr, isArr := v.([]any)
	if !isArr {
		return nil
	}
	out := make([]Record, 0, len(arr))
	for _, it := range arr {
		if m, isMap := it.(map[string]any); isMap {
			out = append(out, Record(m))
		}
	}
	return out
}

// Strings returns a nested array of strings.
func (r Record) Strings(keys ...string) []string {
	v, ok := r.lookup(keys...)
	if !ok {
		return nil
	}
	arr, isArr := v.([]any)
	if !isArr {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, it := range arr {
		if s, isStr := it.(string); isStr {
			out = append(out, s)
		}
	}
	return out
}
