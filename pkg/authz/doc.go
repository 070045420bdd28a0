// Package authz is the permission and role resolution core.
//
// A principal's effective permission set is assembled in layers: lms.allow_any
// for everyone, lms.is_authenticated for logged-in users, lms.staff and
// lms.sudo by flag, with staff superusers short-circuiting to the whole
// registered catalog. Everyone else gets the union of their role grants,
// where roles come from the local assignment table plus rule evaluation over
// the external relationship snapshot, topped up with direct per-user grants.
//
// Aggregates are cached per user and per role in the authcache hashes and
// are never expired, only invalidated. The admin service owns every mutation
// path and performs the matching invalidation after commit; a role grant
// change clears only the role's hash, and member users re-union lazily.
//
// The provider chain extends resolution beyond the aggregate: the mapping
// provider grants codes whose registered definition delegates to another
// code.
package authz
