package storefront

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ItemFailure is one failed request of a batch.
type ItemFailure struct {
	ID  int64
	Err error
}

// BatchError names every item of a batch whose request failed.
type BatchError struct {
	Op       string
	Total    int
	Failures []ItemFailure
}

func (e *BatchError) Error() string {
	ids := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		ids = append(ids, fmt.Sprintf("%d (%v)", f.ID, f.Err))
	}
	return fmt.Sprintf("%s: %d of %d failed: %s", e.Op, len(e.Failures), e.Total, strings.Join(ids, ", "))
}

// Summary is the user-facing form: how many failed and, for each failed
// item, its id and error.
func (e *BatchError) Summary() string {
	items := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		items = append(items, fmt.Sprintf("#%d (%v)", f.ID, f.Err))
	}
	return fmt.Sprintf("%d of %d failed and were restored: %s", len(e.Failures), e.Total, strings.Join(items, ", "))
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *BatchError) Unwrap() []error {
	out := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f.Err)
	}
	return out
}

// FailedIDs lists the failed item ids in ascending order.
func (e *BatchError) FailedIDs() []int64 {
	out := make([]int64, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f.ID)
	}
	return out
}

// runBatch calls fn for every id in parallel, at most limit at a time. It
// waits for all of them and returns a *BatchError listing each failure, or
// nil. One failure does not cancel the others.
func runBatch(ctx context.Context, op string, ids []int64, limit int, fn func(context.Context, int64) error) error {
	if len(ids) == 0 {
		return nil
	}
	var (
		g        errgroup.Group
		mu       sync.Mutex
		failures []ItemFailure
	)
	g.SetLimit(max(limit, 1))
	for _, id := range ids {
		g.Go(func() error {
			if err := fn(ctx, id); err != nil {
				mu.Lock()
				failures = append(failures, ItemFailure{ID: id, Err: err})
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(failures) == 0 {
		return nil
	}
	sort.Slice(failures, func(i, j int) bool { return failures[i].ID < failures[j].ID })
	return &BatchError{Op: op, Total: len(ids), Failures: failures}
}
