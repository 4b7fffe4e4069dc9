package storefront

import (
	"errors"
	"path/filepath"
	"testing"

	"bookstore-cli/model"
)

func tempStore(t *testing.T, opts ...StoreOption) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := OpenStore(filepath.Join(dir, "state", "shop.db"), opts...)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSelectionRoundTrip(t *testing.T) {
	s := tempStore(t)

	if _, err := s.LoadSelection(); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("want ErrNoSelection, got %v", err)
	}

	want := []model.CheckoutLine{{BookID: 3, Quantity: 1}, {BookID: 7, Quantity: 2}}
	if err := s.SaveSelection(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.LoadSelection()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("selection = %+v, want %+v", got, want)
	}

	if err := s.ClearSelection(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := s.LoadSelection(); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("after clear want ErrNoSelection, got %v", err)
	}
}

func TestSaveEmptySelection(t *testing.T) {
	s := tempStore(t)
	if err := s.SaveSelection(nil); !errors.Is(err, ErrNothingSelected) {
		t.Fatalf("want ErrNothingSelected, got %v", err)
	}
}

func TestMalformedSelection(t *testing.T) {
	s := tempStore(t)
	cases := []string{
		`not json`,
		`{"book_id": 1, "quantity": 1}`,
		`[]`,
		`[1, 2]`,
		`[null]`,
		`[{"book_id": 0, "quantity": 1}]`,
		`[{"book_id": 4, "quantity": 0}]`,
		`[{"book_id": 4}]`,
	}
	for _, raw := range cases {
		if err := s.Put(KeySelection, raw); err != nil {
			t.Fatalf("put: %v", err)
		}
		if _, err := s.LoadSelection(); !errors.Is(err, ErrMalformedSelection) {
			t.Errorf("%s: want ErrMalformedSelection, got %v", raw, err)
		}
	}
}

func TestSelectionAcceptsCamelCase(t *testing.T) {
	s := tempStore(t)
	if err := s.Put(KeySelection, `[{"bookId": 9, "count": 3}]`); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.LoadSelection()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got[0].BookID != 9 || got[0].Quantity != 3 {
		t.Fatalf("got %+v", got)
	}
}

func TestTokenPlain(t *testing.T) {
	s := tempStore(t)

	tok, err := s.LoadToken()
	if err != nil || tok != "" {
		t.Fatalf("empty store: token=%q err=%v", tok, err)
	}
	if err := s.SaveToken("abc"); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, _, _ := s.Get(KeyToken)
	if raw != "plain:abc" {
		t.Fatalf("stored %q", raw)
	}
	if tok, _ = s.LoadToken(); tok != "abc" {
		t.Fatalf("token = %q", tok)
	}
	if err := s.ClearToken(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if tok, _ = s.LoadToken(); tok != "" {
		t.Fatalf("token after clear = %q", tok)
	}
}

func TestTokenSealed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shop.db")

	s, err := OpenStore(path, WithPassphrase("correct horse"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.SaveToken("secret-token"); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, _, _ := s.Get(KeyToken)
	if raw == "" || raw == "plain:secret-token" {
		t.Fatalf("token not sealed: %q", raw)
	}
	s.Close()

	// Same passphrase reopens.
	s, err = OpenStore(path, WithPassphrase("correct horse"))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if tok, err := s.LoadToken(); err != nil || tok != "secret-token" {
		t.Fatalf("token=%q err=%v", tok, err)
	}
	s.Close()

	for _, opts := range [][]StoreOption{{WithPassphrase("wrong")}, nil} {
		s, err = OpenStore(path, opts...)
		if err != nil {
			t.Fatalf("reopen: %v", err)
		}
		if _, err := s.LoadToken(); !errors.Is(err, ErrSealedToken) {
			t.Errorf("want ErrSealedToken, got %v", err)
		}
		s.Close()
	}
}

func TestUserCache(t *testing.T) {
	s := tempStore(t)
	if _, ok, err := s.LoadUser(); ok || err != nil {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}
	u := model.User{ID: 1, Username: "alice", Email: "alice@example.com"}
	if err := s.SaveUser(u); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := s.LoadUser()
	if err != nil || !ok || got != u {
		t.Fatalf("user=%+v ok=%v err=%v", got, ok, err)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shop.db")
	for i := 0; i < 2; i++ {
		s, err := OpenStore(path)
		if err != nil {
			t.Fatalf("open #%d: %v", i, err)
		}
		if err := s.Put("k", "v"); err != nil {
			t.Fatalf("put: %v", err)
		}
		s.Close()
	}
}
