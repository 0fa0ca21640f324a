package session

import (
	"context"
	"errors"
)

// Persisted field names. Both are written by Save and removed together by Clear.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// ErrBackendUnavailable indicates a backend was used before it was configured.
var ErrBackendUnavailable = errors.New("session backend unavailable")

// Backend is the key-value persistence the session fields live in.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}
