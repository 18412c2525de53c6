package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Scan keys beginning with this prefix resolve to bundled placeholder
// art instead of an object in the bucket. Seed data and demo tenants
// use them so no real upload is required.
const PlaceholderPrefix = "placeholder:"

// BulkDeleteResult reports a prefix purge. Errors counts keys that
// failed; ErrorDetails carries at most one message per failed key.
type BulkDeleteResult struct {
	Deleted      int      `json:"deleted"`
	Errors       int      `json:"errors"`
	ErrorDetails []string `json:"error_details,omitempty"`
}

// Store persists card scan images keyed by scan key.
type Store interface {
	Put(ctx context.Context, key string, contentType string, body io.Reader) error
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) (*BulkDeleteResult, error)
}

// ResolvePlaceholder maps a placeholder scan key to its static asset
// path. Returns false for real keys.
func ResolvePlaceholder(key string) (string, bool) {
	if !strings.HasPrefix(key, PlaceholderPrefix) {
		return "", false
	}
	name := strings.TrimPrefix(key, PlaceholderPrefix)
	if name == "" {
		name = "card"
	}
	return fmt.Sprintf("/static/placeholders/%s.jpg", name), true
}
