// Package kv abstracts the key-value store the authorization engine runs on.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound indicates the key does not exist.
var ErrNotFound = errors.New("kv: key not found")

// Store is the minimal contract the role engine requires: plain keys,
// named sets, and pattern-based key enumeration.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Del(ctx context.Context, keys ...string) error

	SAdd(ctx context.Context, set string, members ...string) error
	SRem(ctx context.Context, set string, members ...string) error
	SMembers(ctx context.Context, set string) ([]string, error)
	SIsMember(ctx context.Context, set, member string) (bool, error)

	// Scan returns every key matching the glob pattern. The cursor loop is
	// driven internally until the server signals completion.
	Scan(ctx context.Context, pattern string) ([]string, error)
}
