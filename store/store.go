package store

import (
	"context"
	"encoding/json"
	"errors"
)

// Fixed keys of the shared store. Every process sharing the store reads and
// writes the same three entries.
const (
	KeyProjects   = "admin_projects"
	KeyUser       = "admin_user"
	KeyLastUpdate = "admin_projects_last_update"
)

// ErrKeyNotFound is returned by Get when the key has never been written or
// has been deleted.
var ErrKeyNotFound = errors.New("store: key not found")

// KV is a string-keyed, string-valued store shared across processes.
// Implementations are safe for concurrent use. Writes are last-writer-wins;
// there is no locking across processes and no merge.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// GetJSON reads key and unmarshals its value into out. The ErrKeyNotFound
// sentinel passes through untouched so callers can distinguish "absent" from
// "malformed".
func GetJSON(ctx context.Context, kv KV, key string, out any) error {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), out)
}

// SetJSON marshals v and writes it under key.
func SetJSON(ctx context.Context, kv KV, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return kv.Set(ctx, key, string(raw))
}
