package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	sealSaltSize   = 16
	argonTime      = 1
	argonMemoryKiB = 64 * 1024
	argonThreads   = 4
)

// ErrSealBroken indicates a stored value could not be opened with the
// configured passphrase. Store treats it like a missing field.
var ErrSealBroken = errors.New("sealed session value cannot be opened")

// SealedBackend encrypts every value before handing it to the wrapped
// backend. Values are XChaCha20-Poly1305 sealed with an argon2id key derived
// from a passphrase and a per-value salt; the field name is bound as
// additional data so token and user cannot be swapped on disk.
type SealedBackend struct {
	base       Backend
	passphrase []byte

	mu   sync.Mutex
	keys map[string][]byte
}

// NewSealedBackend wraps base. An empty passphrase is rejected.
func NewSealedBackend(base Backend, passphrase string) (*SealedBackend, error) {
	if base == nil {
		return nil, ErrBackendUnavailable
	}
	if passphrase == "" {
		return nil, errors.New("sealed session backend: passphrase must not be empty")
	}
	return &SealedBackend{
		base:       base,
		passphrase: []byte(passphrase),
		keys:       make(map[string][]byte),
	}, nil
}

// Get opens the stored value. A value that fails to open yields ErrSealBroken.
func (b *SealedBackend) Get(ctx context.Context, key string) (string, bool, error) {
	raw, ok, err := b.base.Get(ctx, key)
	if err != nil || !ok {
		return "", ok, err
	}
	plain, err := b.open(key, raw)
	if err != nil {
		return "", false, err
	}
	return plain, true, nil
}

// Set seals value before storing it.
func (b *SealedBackend) Set(ctx context.Context, key, value string) error {
	sealed, err := b.seal(key, value)
	if err != nil {
		return err
	}
	return b.base.Set(ctx, key, sealed)
}

// Delete implements Backend.
func (b *SealedBackend) Delete(ctx context.Context, keys ...string) error {
	return b.base.Delete(ctx, keys...)
}

func (b *SealedBackend) seal(key, value string) (string, error) {
	salt := make([]byte, sealSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	aead, err := chacha20poly1305.NewX(b.derive(salt))
	if err != nil {
		return "", fmt.Errorf("init cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, len(salt)+len(nonce)+len(value)+aead.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, []byte(value), []byte(key))
	return base64.RawStdEncoding.EncodeToString(out), nil
}

func (b *SealedBackend) open(key, encoded string) (string, error) {
	raw, err := base64.RawStdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrSealBroken
	}
	if len(raw) < sealSaltSize+chacha20poly1305.NonceSizeX+chacha20poly1305.Overhead {
		return "", ErrSealBroken
	}
	salt := raw[:sealSaltSize]
	nonce := raw[sealSaltSize : sealSaltSize+chacha20poly1305.NonceSizeX]
	body := raw[sealSaltSize+chacha20poly1305.NonceSizeX:]

	aead, err := chacha20poly1305.NewX(b.derive(salt))
	if err != nil {
		return "", fmt.Errorf("init cipher: %w", err)
	}
	plain, err := aead.Open(nil, nonce, body, []byte(key))
	if err != nil {
		return "", ErrSealBroken
	}
	return string(plain), nil
}

// derive memoises argon2 output per salt; restore reads the same two values
// every time and the KDF is deliberately slow.
func (b *SealedBackend) derive(salt []byte) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	if key, ok := b.keys[string(salt)]; ok {
		return key
	}
	key := argon2.IDKey(b.passphrase, salt, argonTime, argonMemoryKiB, argonThreads, chacha20poly1305.KeySize)
	b.keys[string(salt)] = key
	return key
}
