package storage

import "context"

// Store persists image bytes and rendered documents. Refs are
// slash-separated keys whose first segment is the owning conversation id,
// so one conversation's artifacts can be dropped as a unit.
type Store interface {
	Save(ctx context.Context, ref string, data []byte) error
	Load(ctx context.Context, ref string) ([]byte, error)
	Delete(ctx context.Context, ref string) error
	// DeletePrefix removes every object under prefix. An empty prefix
	// clears the whole store.
	DeletePrefix(ctx context.Context, prefix string) error
	// List returns the refs of all objects under prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
