package storefront

import (
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	plainPrefix  = "plain:"
	sealedPrefix = "sealed:"
	saltSize     = 16
	nonceSize    = 24
)

// ErrSealedToken means the stored token is sealed and the passphrase is
// missing or wrong.
var ErrSealedToken = errors.New("stored token is sealed: missing or wrong state passphrase")

type sealer struct {
	key [32]byte
}

// loadSealer derives the sealing key, creating the per-database salt on
// first use.
func (s *Store) loadSealer(passphrase string) (*sealer, error) {
	var encoded string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key='token_salt'`).Scan(&encoded)
	var salt []byte
	switch {
	case errors.Is(err, sql.ErrNoRows):
		salt = make([]byte, saltSize)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return nil, fmt.Errorf("generate salt: %w", err)
		}
		if _, err := s.db.Exec(`INSERT INTO meta(key,value) VALUES('token_salt',?)`, base64.StdEncoding.EncodeToString(salt)); err != nil {
			return nil, fmt.Errorf("store salt: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("read salt: %w", err)
	default:
		if salt, err = base64.StdEncoding.DecodeString(encoded); err != nil {
			return nil, fmt.Errorf("decode salt: %w", err)
		}
	}

	sl := &sealer{}
	copy(sl.key[:], argon2.IDKey([]byte(passphrase), salt, 1, 64*1024, 4, 32))
	return sl, nil
}

// seal encodes a token for storage. A nil sealer stores it as-is.
func (sl *sealer) seal(token string) (string, error) {
	if sl == nil {
		return plainPrefix + token, nil
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(token), &nonce, &sl.key)
	return sealedPrefix + base64.StdEncoding.EncodeToString(box), nil
}

func (sl *sealer) open(v string) (string, error) {
	switch {
	case strings.HasPrefix(v, plainPrefix):
		return strings.TrimPrefix(v, plainPrefix), nil
	case strings.HasPrefix(v, sealedPrefix):
		if sl == nil {
			return "", ErrSealedToken
		}
		box, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(v, sealedPrefix))
		if err != nil || len(box) < nonceSize {
			return "", ErrSealedToken
		}
		var nonce [nonceSize]byte
		copy(nonce[:], box[:nonceSize])
		out, ok := secretbox.Open(nil, box[nonceSize:], &nonce, &sl.key)
		if !ok {
			return "", ErrSealedToken
		}
		return string(out), nil
	}
	// Unprefixed values are plain.
	return v, nil
}
