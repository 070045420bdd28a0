// Package authcache is the cache layer for computed authorization
// aggregates.
//
// Each principal and each role owns one hash keyed by username or role code.
// Fields hold typed JSON values: sorted string sets for permission/role
// aggregates, a structured snapshot for relationship data. Nothing expires;
// every mutation path is responsible for clearing the hashes it invalidates.
//
// Backends: Redis (production) and an in-process LRU (tests, single node).
// Reads fail open -- a backend failure is a miss and the caller recomputes
// from the entity store. Writes are best effort. Invalidation errors are
// surfaced to the caller.
package authcache
