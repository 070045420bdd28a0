// Package registry holds the catalog of permissions the service exposes and
// reconciles it against the permission table.
//
// Feature modules register a Definition per entity at startup. Codes are
// either declared explicitly or derived from the default action vocabulary as
// module.action_entity. Reconcile diffs the registered catalog against the
// stored rows and applies creates, updates and deletes in one transaction, so
// the table always matches the code that is actually running.
package registry
