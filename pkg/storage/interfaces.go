package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrObjectExists is returned by Put when the key is already taken and the
// caller did not ask for an overwrite.
var ErrObjectExists = errors.New("object already exists")

type PutOptions struct {
	ContentType string
	// Upsert overwrites an existing object instead of failing with
	// ErrObjectExists.
	Upsert bool
}

// ObjectStore is the gateway every blob read/write goes through.
type ObjectStore interface {
	// Put stores data under key and returns its public URL.
	Put(ctx context.Context, key string, data []byte, opts PutOptions) (string, error)
	// Delete removes all keys it can. A *PartialDeleteError lists the keys
	// that could not be removed.
	Delete(ctx context.Context, keys []string) error
	PublicURL(key string) string
}

// PartialDeleteError reports the subset of keys a Delete call left behind.
type PartialDeleteError struct {
	Failed map[string]error
}

func (e *PartialDeleteError) Error() string {
	keys := e.Keys()
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, fmt.Sprintf("%s: %v", k, e.Failed[k]))
	}
	return fmt.Sprintf("failed to delete %d object(s): %s", len(keys), strings.Join(msgs, "; "))
}

// Keys returns the failed keys in sorted order.
func (e *PartialDeleteError) Keys() []string {
	keys := make([]string, 0, len(e.Failed))
	for k := range e.Failed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
