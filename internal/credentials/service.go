// Package credentials holds the single process-wide (username, secret) pair
// presented to every switch (§3's Credential entity). It is loaded once at
// startup from configuration and never persisted by this core; the secret
// is kept AES-256-GCM encrypted in memory with a process-random key so that
// a value formatted via %v or captured in a core dump never shows the
// plaintext.
package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"io"
	"sync"
)

// ErrInvalidCredentials is returned when username or secret is empty.
var ErrInvalidCredentials = errors.New("credentials: username and secret are required")

// Credential is the decrypted (username, secret) pair as the switch driver
// needs it. Never log a Credential value directly; Redacted() is the safe
// stringer.
type Credential struct {
	Username string
	Secret   string
}

// Redacted returns a string safe for logging.
func (c Credential) Redacted() string {
	return c.Username + ":[REDACTED]"
}

// Store holds the process-wide credential, encrypted at rest in memory.
type Store struct {
	mu        sync.RWMutex
	aead      cipher.AEAD
	username  string
	encrypted []byte
	nonce     []byte
}

// NewStore encrypts and stores cred, returning an error if either field is
// empty.
func NewStore(cred Credential) (*Store, error) {
	if cred.Username == "" || cred.Secret == "" {
		return nil, ErrInvalidCredentials
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	s := &Store{aead: aead, username: cred.Username, nonce: nonce}
	s.encrypted = aead.Seal(nil, nonce, []byte(cred.Secret), nil)
	return s, nil
}

// Get decrypts and returns the held credential. Every call re-decrypts
// rather than caching plaintext.
func (s *Store) Get() (Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	plain, err := s.aead.Open(nil, s.nonce, s.encrypted, nil)
	if err != nil {
		return Credential{}, err
	}
	return Credential{Username: s.username, Secret: string(plain)}, nil
}

// Rotate replaces the held credential (used when an operator updates the
// running config without a restart).
func (s *Store) Rotate(cred Credential) error {
	if cred.Username == "" || cred.Secret == "" {
		return ErrInvalidCredentials
	}
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = cred.Username
	s.nonce = nonce
	s.encrypted = s.aead.Seal(nil, nonce, []byte(cred.Secret), nil)
	return nil
}
