// Package store defines the key/value substrate shared by the session,
// credential, guard and notification layers, with two durability scopes:
// a device-durable store (survives restarts, shared by every process on the
// device) and a tab-durable store (lives and dies with one process).
//
// The substrate is deliberately forgiving: a missing key is not an error,
// and callers are expected to treat any read failure as "not found" rather
// than aborting whatever they were doing.
package store

import "context"

// KV is a string-keyed store of opaque byte values.
//
// Contract:
//   - Get returns (nil, nil) when the key is absent.
//   - SetMany writes all pairs atomically where the backend allows it.
//   - Keys returns every key with the given prefix, order unspecified.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetMany(ctx context.Context, pairs map[string][]byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Clear(ctx context.Context) error
}
