package storefront

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"bookstore-cli/model"
)

type fakeBooks struct {
	detail      model.BookDetail
	comments    []model.Comment
	detailErr   error
	commentsErr error
	favErr      error
	added       []int
}

func (f *fakeBooks) GetBook(ctx context.Context, id int64) (model.BookDetail, error) {
	return f.detail, f.detailErr
}

func (f *fakeBooks) ListComments(ctx context.Context, bookID int64, page, size int) ([]model.Comment, error) {
	return f.comments, f.commentsErr
}

func (f *fakeBooks) AddCollection(ctx context.Context, bookID int64) error {
	return f.favErr
}

func (f *fakeBooks) RemoveCollection(ctx context.Context, bookID int64) error {
	return f.favErr
}

func (f *fakeBooks) AddToCart(ctx context.Context, bookID int64, count int) error {
	f.added = append(f.added, count)
	return nil
}

func sampleBook() model.BookDetail {
	return model.BookDetail{
		BookSummary: model.BookSummary{ID: 3, Title: "SICP", Price: 149},
		Stock:       4,
		Description: "Contents\nBuilding abstractions\n\nAudience\nStudents",
	}
}

func TestBookPageCommentsDegrade(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	svc := &fakeBooks{detail: sampleBook(), commentsErr: errBackend}
	p := NewBookPage(svc, WithPageLogger(zap.New(core)))

	require.NoError(t, p.Load(context.Background(), 3))
	assert.True(t, p.State().Ready())
	assert.Empty(t, p.Comments())
	assert.Equal(t, model.Distribution{}, p.Distribution())
	warned := logs.FilterLevelExact(zap.WarnLevel).FilterMessage("comments unavailable")
	assert.Equal(t, 1, warned.Len())

	secs := p.Sections()
	require.Len(t, secs, 2)
	assert.Equal(t, "Contents", secs[0].Title)
}

func TestBookPageDetailError(t *testing.T) {
	svc := &fakeBooks{detail: sampleBook()}
	p := NewBookPage(svc)
	require.NoError(t, p.Load(context.Background(), 3))

	svc.detailErr = errBackend
	assert.ErrorIs(t, p.Load(context.Background(), 3), errBackend)
	assert.Equal(t, StatusError, p.State().Status)
	assert.Zero(t, p.Detail().ID)

	_, err := p.ToggleFavorite(context.Background())
	assert.ErrorIs(t, err, errNotLoaded)
}

func TestBookPageDistribution(t *testing.T) {
	svc := &fakeBooks{detail: sampleBook(), comments: []model.Comment{{Rating: 5}, {Rating: 5}, {Rating: 4}, {Rating: 1}}}
	p := NewBookPage(svc)
	require.NoError(t, p.Load(context.Background(), 3))
	d := p.Distribution()
	assert.Equal(t, 50.0, d.Stars(5))
	assert.Equal(t, 25.0, d.Stars(4))
	assert.Equal(t, 25.0, d.Stars(1))
}

func TestToggleFavoriteRollsBack(t *testing.T) {
	svc := &fakeBooks{detail: sampleBook()}
	p := NewBookPage(svc)
	require.NoError(t, p.Load(context.Background(), 3))

	fav, err := p.ToggleFavorite(context.Background())
	require.NoError(t, err)
	assert.True(t, fav)
	assert.True(t, p.Detail().Favorited)

	svc.favErr = errBackend
	fav, err = p.ToggleFavorite(context.Background())
	assert.ErrorIs(t, err, errBackend)
	assert.True(t, fav)
	assert.True(t, p.Detail().Favorited)
}

func TestBookAddToCartClamps(t *testing.T) {
	svc := &fakeBooks{detail: sampleBook()}
	p := NewBookPage(svc)
	require.NoError(t, p.Load(context.Background(), 3))

	require.NoError(t, p.AddToCart(context.Background(), 9))
	require.NoError(t, p.AddToCart(context.Background(), 0))
	assert.Equal(t, []int{4, 1}, svc.added)
}
