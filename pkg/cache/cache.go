// Package cache holds read-through caches for short code lookups. Mappings
// never change once written, so entries are never invalidated.
package cache

import (
	"context"
	"errors"
)

var ErrCacheMiss = errors.New("cache miss")

// Cache maps short codes to full URLs.
type Cache interface {
	// Lookup returns ErrCacheMiss when shortURL is not cached.
	Lookup(ctx context.Context, shortURL string) (string, error)
	Store(ctx context.Context, shortURL, fullURL string) error
	// Layer names the cache in metrics and logs.
	Layer() string
}
