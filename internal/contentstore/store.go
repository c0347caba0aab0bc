// Package contentstore reads and writes content-addressed blobs, the place where
// market metadata documents live.
package contentstore

import (
	"context"
	"errors"
)

// ErrEmptyLocator is returned when a fetch is asked for no content.
var ErrEmptyLocator = errors.New("empty content locator")

// Store fetches and publishes blobs by content address.
type Store interface {
	Fetch(ctx context.Context, locator string) ([]byte, error)
	Put(ctx context.Context, data []byte) (string, error)
}
