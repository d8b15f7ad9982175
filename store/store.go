// Package store persists editor documents by key. Stores deal in raw JSON;
// decoding and validation are left to the caller.
package store

import (
	"context"
	"errors"
	"regexp"
)

type DocumentStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, body []byte) error
	Delete(ctx context.Context, key string) error
}

var (
	ErrNotFound   = errors.New("document does not exist")
	ErrInvalidKey = errors.New("invalid document key")
)

var keyRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidKey reports whether key is usable by every store: 1 to 64 ASCII
// letters, digits, '-' or '_'.
func ValidKey(key string) bool {
	return keyRegex.MatchString(key)
}
