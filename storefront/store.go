package storefront

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"bookstore-cli/model"
)

// Keys of the persisted slots.
const (
	KeyToken     = "auth_token"
	KeyUser      = "current_user"
	KeySelection = "selected_cart_items"
)

var (
	// ErrNoSelection means no selected-for-checkout set has been saved.
	ErrNoSelection = errors.New("no items selected for checkout")
	// ErrMalformedSelection means the saved set could not be used.
	ErrMalformedSelection = errors.New("saved checkout selection is malformed")
)

// Store is the local persistent state: a small key/value table in SQLite.
type Store struct {
	db     *sql.DB
	sealer *sealer

	getStmt *sql.Stmt
	putStmt *sql.Stmt
	delStmt *sql.Stmt
}

// StoreOption configures OpenStore.
type StoreOption func(*storeConfig)

type storeConfig struct {
	passphrase string
}

// WithPassphrase seals the auth token under a key derived from passphrase.
func WithPassphrase(passphrase string) StoreOption {
	return func(c *storeConfig) { c.passphrase = passphrase }
}

// OpenStore opens (or creates) the state database at path and applies
// schema migrations.
func OpenStore(path string, opts ...StoreOption) (*Store, error) {
	var cfg storeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.prepareStatements(); err != nil {
		s.Close()
		return nil, err
	}
	if cfg.passphrase != "" {
		if s.sealer, err = s.loadSealer(cfg.passphrase); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

// Close releases prepared statements and closes the database.
func (s *Store) Close() error {
	for _, st := range []*sql.Stmt{s.getStmt, s.putStmt, s.delStmt} {
		if st != nil {
			st.Close()
		}
	}
	return s.db.Close()
}

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
            key TEXT PRIMARY KEY,
            value TEXT NOT NULL,
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return tx.Commit()
}

func (s *Store) prepareStatements() error {
	var err error
	if s.getStmt, err = s.db.Prepare(`SELECT value FROM kv WHERE key=?`); err != nil {
		return err
	}
	if s.putStmt, err = s.db.Prepare(`INSERT INTO kv(key,value,updated_at) VALUES(?,?,?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`); err != nil {
		return err
	}
	if s.delStmt, err = s.db.Prepare(`DELETE FROM kv WHERE key=?`); err != nil {
		return err
	}
	return nil
}

// Get returns the raw value for key and whether it exists.
func (s *Store) Get(key string) (string, bool, error) {
	var v string
	err := s.getStmt.QueryRow(key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return v, true, nil
}

// Put stores value under key.
func (s *Store) Put(key, value string) error {
	if _, err := s.putStmt.Exec(key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	if _, err := s.delStmt.Exec(key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// ------------------ Checkout selection ------------------

// SaveSelection persists the selected-for-checkout set.
func (s *Store) SaveSelection(lines []model.CheckoutLine) error {
	if len(lines) == 0 {
		return ErrNothingSelected
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode selection: %w", err)
	}
	return s.Put(KeySelection, string(raw))
}

// LoadSelection returns the saved set. A missing set is ErrNoSelection; one
// that is not a non-empty array of positive book_id/quantity pairs is
// ErrMalformedSelection.
func (s *Store) LoadSelection() ([]model.CheckoutLine, error) {
	raw, ok, err := s.Get(KeySelection)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoSelection
	}
	return parseSelection(raw)
}

func parseSelection(raw string) ([]model.CheckoutLine, error) {
	var entries []map[string]any
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSelection, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrMalformedSelection)
	}
	lines := make([]model.CheckoutLine, 0, len(entries))
	for i, e := range entries {
		rec := model.Record(e)
		line := model.CheckoutLine{
			BookID:   rec.Int64("book_id", "bookId"),
			Quantity: rec.Int("quantity", "count"),
		}
		if line.BookID <= 0 || line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: entry %d", ErrMalformedSelection, i)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// ClearSelection forgets the saved set.
func (s *Store) ClearSelection() error { return s.Delete(KeySelection) }

// ------------------ Auth ------------------

// SaveToken stores the bearer token, sealed when a passphrase is set.
func (s *Store) SaveToken(token string) error {
	v, err := s.sealer.seal(token)
	if err != nil {
		return err
	}
	return s.Put(KeyToken, v)
}

// LoadToken returns the stored token, or "" when there is none.
func (s *Store) LoadToken() (string, error) {
	v, ok, err := s.Get(KeyToken)
	if err != nil || !ok {
		return "", err
	}
	return s.sealer.open(v)
}

// ClearToken forgets the token.
func (s *Store) ClearToken() error { return s.Delete(KeyToken) }

// SaveUser caches the signed-in user for display before the first request.
func (s *Store) SaveUser(u model.User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return s.Put(KeyUser, string(raw))
}

// LoadUser returns the cached user and whether there is one.
func (s *Store) LoadUser() (model.User, bool, error) {
	raw, ok, err := s.Get(KeyUser)
	if err != nil || !ok {
		return model.User{}, false, err
	}
	var u model.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return model.User{}, false, nil
	}
	return u, true, nil
}

// ClearUser forgets the cached user.
func (s *Store) ClearUser() error { return s.Delete(KeyUser) }
