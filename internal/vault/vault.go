// Package vault stores small JSON blobs on disk, identified by string
// keys. Entries are either plain files or sealed with a key derived
// from an app secret, for state that must be encrypted at rest.
package vault

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

var (
	ErrNotFound   = errors.New("vault: key not found")
	ErrBadKeyName = errors.New("vault: invalid key name")
)

const saltFile = ".salt"

type Vault struct {
	mu  sync.Mutex
	dir string
	key []byte
}

// New opens (or initializes) a vault rooted at dir. The sealing key is
// derived from secret with a per-vault random salt, so moving the
// files to another machine without the secret yields nothing.
func New(dir, secret string) (*Vault, error) {
	if dir == "" {
		return nil, errors.New("vault: directory required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("vault: cannot create directory: %w", err)
	}

	salt, err := loadOrCreateSalt(filepath.Join(dir, saltFile))
	if err != nil {
		return nil, err
	}

	key, err := scrypt.Key([]byte(secret), salt, 1<<15, 8, 1, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("vault: cannot derive key: %w", err)
	}

	return &Vault{dir: dir, key: key}, nil
}

// Put writes value as a plain JSON file under key.
func (v *Vault) Put(key string, value interface{}) error {
	path, err := v.path(key, false)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("vault: cannot encode %q: %w", key, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	return writeAtomic(path, raw)
}

// Get reads the plain entry under key into dest.
func (v *Vault) Get(key string, dest interface{}) error {
	path, err := v.path(key, false)
	if err != nil {
		return err
	}

	v.mu.Lock()
	raw, err := os.ReadFile(path)
	v.mu.Unlock()
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("vault: cannot read %q: %w", key, err)
	}
	return json.Unmarshal(raw, dest)
}

// PutSealed writes value encrypted at rest under key.
func (v *Vault) PutSealed(key string, value interface{}) error {
	path, err := v.path(key, true)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("vault: cannot encode %q: %w", key, err)
	}

	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return fmt.Errorf("vault: cannot seal %q: %w", key, err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("vault: cannot seal %q: %w", key, err)
	}
	sealed := aead.Seal(nonce, nonce, raw, []byte(key))

	v.mu.Lock()
	defer v.mu.Unlock()
	return writeAtomic(path, sealed)
}

// GetSealed reads and decrypts the sealed entry under key into dest.
func (v *Vault) GetSealed(key string, dest interface{}) error {
	path, err := v.path(key, true)
	if err != nil {
		return err
	}

	v.mu.Lock()
	sealed, err := os.ReadFile(path)
	v.mu.Unlock()
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("vault: cannot read %q: %w", key, err)
	}

	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return fmt.Errorf("vault: cannot open %q: %w", key, err)
	}
	if len(sealed) < aead.NonceSize() {
		return fmt.Errorf("vault: entry %q is truncated", key)
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	raw, err := aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return fmt.Errorf("vault: cannot open %q: %w", key, err)
	}
	return json.Unmarshal(raw, dest)
}

// Delete removes the entry under key, plain or sealed. Missing
// entries are not an error.
func (v *Vault) Delete(key string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	for _, sealed := range []bool{false, true} {
		path, err := v.path(key, sealed)
		if err != nil {
			return err
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("vault: cannot delete %q: %w", key, err)
		}
	}
	return nil
}

func (v *Vault) path(key string, sealed bool) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", ErrBadKeyName
	}
	for _, r := range key {
		if !isKeyRune(r) {
			return "", ErrBadKeyName
		}
	}
	ext := ".json"
	if sealed {
		ext = ".sealed"
	}
	return filepath.Join(v.dir, key+ext), nil
}

func isKeyRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-' || r == '_':
		return true
	}
	return false
}

func loadOrCreateSalt(path string) ([]byte, error) {
	salt, err := os.ReadFile(path)
	if err == nil && len(salt) >= 16 {
		return salt, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("vault: cannot read salt: %w", err)
	}

	salt = make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("vault: cannot generate salt: %w", err)
	}
	if err := os.WriteFile(path, salt, 0o600); err != nil {
		return nil, fmt.Errorf("vault: cannot persist salt: %w", err)
	}
	return salt, nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("vault: cannot write %q: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("vault: cannot write %q: %w", path, err)
	}
	return nil
}
