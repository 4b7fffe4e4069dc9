package storefront

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"bookstore-cli/api"
	"bookstore-cli/model"
)

// AuthService is what the session needs from the backend.
type AuthService interface {
	Login(ctx context.Context, account, password string) (model.LoginResult, error)
	Register(ctx context.Context, r model.Registration) (model.User, error)
	Me(ctx context.Context) (model.User, error)
}

// SessionStore is the persisted half of the session.
type SessionStore interface {
	SaveToken(token string) error
	LoadToken() (string, error)
	ClearToken() error
	SaveUser(u model.User) error
	LoadUser() (model.User, bool, error)
	ClearUser() error
	ClearSelection() error
}

// Session is the one piece of application state shared across pages: the
// bearer token, the signed-in user and the cart badge count. It is written
// by Restore, Login and Logout and read everywhere else.
type Session struct {
	store SessionStore
	log   *zap.Logger

	mu        sync.RWMutex
	svc       AuthService
	token     string
	user      model.User
	loggedIn  bool
	cartCount int
}

// NewSession returns a signed-out session backed by store.
func NewSession(store SessionStore, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{store: store, log: log}
}

// Bind sets the backend used by Restore, Login and Register. The client
// usually takes Session.Token as its token source, so it is built after the
// session and bound here.
func (s *Session) Bind(svc AuthService) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.svc = svc
}

func (s *Session) service() (AuthService, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.svc == nil {
		return nil, errors.New("session has no backend")
	}
	return s.svc, nil
}

// Token returns the bearer token, or "". It is an api.TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the signed-in user.
func (s *Session) User() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.loggedIn
}

// LoggedIn reports whether a token is held.
func (s *Session) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loggedIn
}

// CartCount is the last known number of cart rows.
func (s *Session) CartCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cartCount
}

// SetCartCount records the cart size after a cart load or mutation.
func (s *Session) SetCartCount(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cartCount = max(n, 0)
}

// RequireLogin returns ErrNotLoggedIn when signed out.
func (s *Session) RequireLogin() error {
	if !s.LoggedIn() {
		return ErrNotLoggedIn
	}
	return nil
}

// Restore picks up a saved token at start-up and confirms it with the
// backend. A rejected token is forgotten; a network failure keeps it and
// the cached user.
func (s *Session) Restore(ctx context.Context) error {
	tok, err := s.store.LoadToken()
	if err != nil {
		return fmt.Errorf("load token: %w", err)
	}
	if tok == "" {
		return nil
	}
	cached, _, _ := s.store.LoadUser()

	s.mu.Lock()
	s.token, s.user, s.loggedIn = tok, cached, true
	s.mu.Unlock()

	svc, err := s.service()
	if err != nil {
		return err
	}
	u, err := svc.Me(ctx)
	switch {
	case api.IsUnauthorized(err):
		s.log.Info("saved session expired")
		s.clear()
		return nil
	case err != nil:
		s.log.Warn("could not confirm saved session", zap.Error(err))
		return nil
	}

	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
	if err := s.store.SaveUser(u); err != nil {
		s.log.Warn("cache user", zap.Error(err))
	}
	return nil
}

// Login validates the form, signs in and persists the token.
func (s *Session) Login(ctx context.Context, form LoginForm) (model.User, error) {
	form.Account = strings.TrimSpace(form.Account)
	if err := Validate(form); err != nil {
		return model.User{}, err
	}
	svc, err := s.service()
	if err != nil {
		return model.User{}, err
	}
	res, err := svc.Login(ctx, form.Account, form.Password)
	if err != nil {
		return model.User{}, err
	}

	// Nothing is published in memory until the token is on disk.
	if err := s.store.SaveToken(res.Token); err != nil {
		return model.User{}, fmt.Errorf("save token: %w", err)
	}
	s.mu.Lock()
	s.token, s.user, s.loggedIn = res.Token, res.User, true
	s.mu.Unlock()

	if res.User.ID == 0 && res.User.Username == "" {
		if u, err := svc.Me(ctx); err == nil {
			s.mu.Lock()
			s.user = u
			s.mu.Unlock()
			res.User = u
		}
	}

	if err := s.store.SaveUser(res.User); err != nil {
		s.log.Warn("cache user", zap.Error(err))
	}
	s.log.Info("logged in", zap.String("user", res.User.Username))
	return res.User, nil
}

// Register validates the form and creates an account. It does not sign in.
func (s *Session) Register(ctx context.Context, form RegisterForm) (model.User, error) {
	form.Username = strings.TrimSpace(form.Username)
	form.Email = strings.TrimSpace(form.Email)
	if err := Validate(form); err != nil {
		return model.User{}, err
	}
	svc, err := s.service()
	if err != nil {
		return model.User{}, err
	}
	return svc.Register(ctx, model.Registration{
		Username: form.Username,
		Account:  form.Email,
		Password: form.Password,
	})
}

// Logout forgets the token, the user, the cart count and any pending
// checkout selection.
func (s *Session) Logout() error {
	s.clear()
	return s.store.ClearSelection()
}

// UpdateUser replaces the cached user after a profile change.
func (s *Session) UpdateUser(u model.User) {
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
	if err := s.store.SaveUser(u); err != nil {
		s.log.Warn("cache user", zap.Error(err))
	}
}

func (s *Session) clear() {
	s.mu.Lock()
	s.token, s.user, s.loggedIn, s.cartCount = "", model.User{}, false, 0
	s.mu.Unlock()
	if err := s.store.ClearToken(); err != nil {
		s.log.Warn("clear token", zap.Error(err))
	}
	if err := s.store.ClearUser(); err != nil {
		s.log.Warn("clear user", zap.Error(err))
	}
}
