package storefront

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore-cli/api"
	"bookstore-cli/internal/shoptest"
	"bookstore-cli/model"
)

// newSession wires a session, a store and a client against srv the way the
// shell does.
func newSession(t *testing.T, srv *shoptest.Server, s *Store) *Session {
	t.Helper()
	sess := NewSession(s, nil)
	client, err := api.New(srv.URL, api.WithTokenSource(sess.Token))
	require.NoError(t, err)
	sess.Bind(client)
	return sess
}

func TestSessionLoginPersists(t *testing.T) {
	srv := shoptest.New(t)
	s := tempStore(t)
	sess := newSession(t, srv, s)
	ctx := context.Background()

	assert.ErrorIs(t, sess.RequireLogin(), ErrNotLoggedIn)

	_, err := sess.Login(ctx, LoginForm{Account: " alice ", Password: "wrong"})
	assert.True(t, api.IsBackend(err))
	assert.False(t, sess.LoggedIn())

	u, err := sess.Login(ctx, LoginForm{Account: shoptest.Email, Password: shoptest.Password})
	require.NoError(t, err)
	assert.Equal(t, shoptest.Username, u.Username)
	assert.Equal(t, shoptest.Token, sess.Token())
	assert.NoError(t, sess.RequireLogin())

	tok, err := s.LoadToken()
	require.NoError(t, err)
	assert.Equal(t, shoptest.Token, tok)

	// A new process restores the saved session.
	again := newSession(t, srv, s)
	require.NoError(t, again.Restore(ctx))
	got, ok := again.User()
	assert.True(t, ok)
	assert.Equal(t, shoptest.Email, got.Email)
}

func TestSessionLoginValidatesFirst(t *testing.T) {
	srv := shoptest.New(t)
	sess := newSession(t, srv, tempStore(t))
	_, err := sess.Login(context.Background(), LoginForm{Account: "   "})
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Zero(t, srv.TotalCalls())
}

func TestSessionRestoreExpired(t *testing.T) {
	srv := shoptest.New(t)
	s := tempStore(t)
	require.NoError(t, s.SaveToken("tok-stale"))
	require.NoError(t, s.SaveUser(model.User{ID: 9, Username: "ghost"}))

	sess := newSession(t, srv, s)
	require.NoError(t, sess.Restore(context.Background()))
	assert.False(t, sess.LoggedIn())
	tok, _ := s.LoadToken()
	assert.Empty(t, tok)
	_, ok, _ := s.LoadUser()
	assert.False(t, ok)
}

func TestSessionRestoreOffline(t *testing.T) {
	srv := shoptest.New(t)
	srv.Fail(http.MethodGet, "/users/me", shoptest.Failure{Status: http.StatusServiceUnavailable})
	s := tempStore(t)
	require.NoError(t, s.SaveToken(shoptest.Token))
	require.NoError(t, s.SaveUser(model.User{ID: 1, Username: shoptest.Username}))

	sess := newSession(t, srv, s)
	require.NoError(t, sess.Restore(context.Background()))
	assert.True(t, sess.LoggedIn())
	u, _ := sess.User()
	assert.Equal(t, shoptest.Username, u.Username)
}

func TestSessionLogoutClearsEverything(t *testing.T) {
	srv := shoptest.New(t)
	s := tempStore(t)
	sess := newSession(t, srv, s)
	_, err := sess.Login(context.Background(), LoginForm{Account: shoptest.Username, Password: shoptest.Password})
	require.NoError(t, err)
	sess.SetCartCount(3)
	require.NoError(t, s.SaveSelection([]model.CheckoutLine{{BookID: 1, Quantity: 1}}))

	require.NoError(t, sess.Logout())
	assert.False(t, sess.LoggedIn())
	assert.Zero(t, sess.CartCount())
	assert.Empty(t, sess.Token())
	_, err = s.LoadSelection()
	assert.ErrorIs(t, err, ErrNoSelection)
}

func TestSessionRegister(t *testing.T) {
	srv := shoptest.New(t)
	sess := newSession(t, srv, tempStore(t))
	ctx := context.Background()

	u, err := sess.Register(ctx, RegisterForm{Username: "bob", Email: "bob@example.com", Password: "hunter22", Confirm: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, "bob", u.Username)
	assert.False(t, sess.LoggedIn(), "registering does not sign in")

	_, err = sess.Register(ctx, RegisterForm{Username: "alice", Email: shoptest.Email, Password: "hunter22", Confirm: "hunter22"})
	assert.True(t, api.IsBackend(err))

	_, err = sess.Login(ctx, LoginForm{Account: "bob", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, "tok-bob", sess.Token())
}

// brokenTokenStore refuses to persist tokens.
type brokenTokenStore struct {
	*Store
}

func (brokenTokenStore) SaveToken(string) error { return errors.New("disk full") }

func TestSessionLoginSaveFailureStaysSignedOut(t *testing.T) {
	srv := shoptest.New(t)
	s := tempStore(t)
	sess := NewSession(brokenTokenStore{s}, nil)
	client, err := api.New(srv.URL, api.WithTokenSource(sess.Token))
	require.NoError(t, err)
	sess.Bind(client)

	_, err = sess.Login(context.Background(), LoginForm{Account: shoptest.Username, Password: shoptest.Password})
	require.ErrorContains(t, err, "disk full")

	assert.False(t, sess.LoggedIn())
	assert.Empty(t, sess.Token())
	_, ok := sess.User()
	assert.False(t, ok)
	assert.ErrorIs(t, sess.RequireLogin(), ErrNotLoggedIn)

	tok, err := s.LoadToken()
	require.NoError(t, err)
	assert.Empty(t, tok)
}
