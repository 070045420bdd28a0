package authcache

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"github.com/sirupsen/logrus"
)

// Cache aggregate field names. A missing field is always recomputed from
// source, so there is no TTL on any of them; staleness is only possible when
// a mutation path forgets to invalidate.
const (
	FieldPermissions        = "permissions"
	FieldDefaultPermissions = "default_permissions"
	FieldRoles              = "roles"
	FieldDefaultRoles       = "default_roles"
	FieldRelationship       = "relationship"
)

// Keyspace prefixes. Principals and roles are cached independently; a role
// grant change clears only the role's own hash, member principals re-union
// lazily on their next resolution.
const (
	UserKeyPrefix = "lms:auth:user"
	RoleKeyPrefix = "lms:auth:role"
)

// ErrMiss is returned by backends when a key/field has no value.
var ErrMiss = errors.New("authcache: miss")

// Backend is a hash-shaped key/value store: every key holds a small set of
// named fields. Redis hashes satisfy this directly; the in-memory backend
// emulates it.
type Backend interface {
	HGet(ctx context.Context, key, field string) ([]byte, error)
	HSet(ctx context.Context, key, field string, value []byte) error
	HDel(ctx context.Context, key, field string) error
	Del(ctx context.Context, key string) error
}

// Stats receives cache hit/miss notifications. Implemented by
// observability.CacheStats; nil disables instrumentation.
type Stats interface {
	Hit(keyspace string)
	Miss(keyspace string)
}

// Hash is one keyspace of the cache layer. Reads fail open: any backend
// error is reported as a miss so resolution falls through to the source of
// truth. Writes are best effort and never fail the caller's operation.
// Delete and Clear DO return errors -- losing an invalidation silently is
// how stale permissions happen.
type Hash struct {
	backend Backend
	prefix  string
	log     *logrus.Logger
	stats   Stats
}

// NewHash creates a cache keyspace with the given key prefix.
func NewHash(backend Backend, prefix string, log *logrus.Logger) *Hash {
	if log == nil {
		log = logrus.New()
	}
	return &Hash{backend: backend, prefix: prefix, log: log}
}

// WithStats attaches hit/miss instrumentation.
func (h *Hash) WithStats(stats Stats) *Hash {
	h.stats = stats
	return h
}

func (h *Hash) key(key string) string {
	return h.prefix + ":" + key
}

func (h *Hash) hit() {
	if h.stats != nil {
		h.stats.Hit(h.prefix)
	}
}

func (h *Hash) miss() {
	if h.stats != nil {
		h.stats.Miss(h.prefix)
	}
}

// GetStrings returns the sorted string set stored under key/field.
// The second return is false on miss, decode failure or backend failure.
func (h *Hash) GetStrings(ctx context.Context, key, field string) ([]string, bool) {
	data, err := h.backend.HGet(ctx, h.key(key), field)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			h.log.WithError(err).WithField("key", h.key(key)).Debug("cache read failed, treating as miss")
		}
		h.miss()
		return nil, false
	}
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		h.log.WithError(err).WithField("key", h.key(key)).Warn("cache value corrupt, treating as miss")
		h.miss()
		return nil, false
	}
	h.hit()
	return values, true
}

// SetStrings stores a string set under key/field as sorted JSON. The value is
// normalized so cached aggregates are inspectable and comparable. Failures
// are logged and swallowed.
func (h *Hash) SetStrings(ctx context.Context, key, field string, values []string) {
	sorted := append([]string(nil), values...)
	sort.Strings(sorted)
	data, err := json.Marshal(sorted)
	if err != nil {
		return
	}
	if err := h.backend.HSet(ctx, h.key(key), field, data); err != nil {
		h.log.WithError(err).WithField("key", h.key(key)).Debug("cache write failed")
	}
}

// GetJSON decodes the value stored under key/field into out.
func (h *Hash) GetJSON(ctx context.Context, key, field string, out interface{}) bool {
	data, err := h.backend.HGet(ctx, h.key(key), field)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			h.log.WithError(err).WithField("key", h.key(key)).Debug("cache read failed, treating as miss")
		}
		h.miss()
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		h.log.WithError(err).WithField("key", h.key(key)).Warn("cache value corrupt, treating as miss")
		h.miss()
		return false
	}
	h.hit()
	return true
}

// SetJSON stores a JSON-encoded value under key/field, best effort.
func (h *Hash) SetJSON(ctx context.Context, key, field string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := h.backend.HSet(ctx, h.key(key), field, data); err != nil {
		h.log.WithError(err).WithField("key", h.key(key)).Debug("cache write failed")
	}
}

// Delete removes one field of a key.
func (h *Hash) Delete(ctx context.Context, key, field string) error {
	return h.backend.HDel(ctx, h.key(key), field)
}

// Clear removes a key and all of its fields.
func (h *Hash) Clear(ctx context.Context, key string) error {
	return h.backend.Del(ctx, h.key(key))
}
