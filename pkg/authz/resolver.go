package authz

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/starcommerce/lms-auth/pkg/authcache"
	"github.com/starcommerce/lms-auth/pkg/relationship"
)

// Provider is an extra authorization source consulted after aggregate
// membership fails. Providers must not re-enter the full resolution chain.
type Provider interface {
	HasPerm(ctx context.Context, p Principal, code string) bool
}

// Resolver computes a principal's effective permissions and roles. It is
// stateless per call: all shared state lives in the cache hashes and the
// store, so one resolver serves every request.
type Resolver struct {
	store     Store
	users     *authcache.Hash
	roles     *authcache.Hash
	client    relationship.Client
	mapping   relationship.Mapping
	providers []Provider
	log       *logrus.Logger
}

// NewResolver creates a resolver. users and roles are the two cache
// keyspaces; client may be nil when no relationship service is configured,
// in which case only unconditional mapping rules apply.
func NewResolver(store Store, users, roles *authcache.Hash, client relationship.Client, mapping relationship.Mapping, log *logrus.Logger) *Resolver {
	if log == nil {
		log = logrus.New()
	}
	return &Resolver{
		store:   store,
		users:   users,
		roles:   roles,
		client:  client,
		mapping: mapping,
		log:     log,
	}
}

// WithProviders sets the ordered provider chain. Called after construction
// because providers (the mapping provider in particular) need the resolver.
func (r *Resolver) WithProviders(providers ...Provider) *Resolver {
	r.providers = providers
	return r
}

// HasPerm reports whether the principal holds the permission. Inactive
// principals hold nothing; staff superusers hold everything, registered or
// not. Otherwise membership in the aggregate decides, then the provider
// chain gets a chance.
func (r *Resolver) HasPerm(ctx context.Context, p Principal, code string) bool {
	if !p.Active {
		return false
	}
	if p.Staff && p.Superuser {
		return true
	}
	if r.HasDirectPerm(ctx, p, code) {
		return true
	}
	for _, provider := range r.providers {
		if provider.HasPerm(ctx, p, code) {
			return true
		}
	}
	return false
}

// HasDirectPerm reports aggregate membership without consulting the provider
// chain. Providers use it to check delegated codes without recursing.
func (r *Resolver) HasDirectPerm(ctx context.Context, p Principal, code string) bool {
	if !p.Active {
		return false
	}
	if p.Staff && p.Superuser {
		return true
	}
	perms, err := r.AllPermissions(ctx, p)
	if err != nil {
		r.log.WithError(err).WithField("username", p.Username).Warn("permission resolution failed, denying")
		return false
	}
	return perms.Has(code)
}

// AllPermissions returns the principal's full permission set: default
// permissions (state-derived plus role grants) unioned with direct grants.
// Inactive and anonymous principals get the empty set regardless of cache.
func (r *Resolver) AllPermissions(ctx context.Context, p Principal) (StringSet, error) {
	if !p.Active || !p.Authenticated || p.Username == "" {
		return StringSet{}, nil
	}

	if cached, ok := r.users.GetStrings(ctx, p.Username, authcache.FieldPermissions); ok {
		return NewStringSet(cached...), nil
	}

	perms, err := r.defaultPermissions(ctx, p)
	if err != nil {
		return nil, err
	}
	direct, err := r.store.UserPermissionCodes(ctx, p.Username)
	if err != nil {
		return nil, fmt.Errorf("authz: load direct permissions: %w", err)
	}
	perms.Add(direct...)

	r.users.SetStrings(ctx, p.Username, authcache.FieldPermissions, perms.Values())
	return perms, nil
}

// defaultPermissions computes the state-derived layer: allow_any always,
// is_authenticated/staff/sudo by flags, then either the whole registered
// catalog (superuser short-circuit) or the union of role grants.
func (r *Resolver) defaultPermissions(ctx context.Context, p Principal) (StringSet, error) {
	if cached, ok := r.users.GetStrings(ctx, p.Username, authcache.FieldDefaultPermissions); ok {
		return NewStringSet(cached...), nil
	}

	perms := NewStringSet(PermAllowAny, PermIsAuthenticated)
	if p.Staff {
		perms.Add(PermStaff)
		if p.Superuser {
			perms.Add(PermSudo)
			all, err := r.store.AllPermissionCodes(ctx)
			if err != nil {
				return nil, fmt.Errorf("authz: load permission catalog: %w", err)
			}
			perms.Add(all...)
			r.users.SetStrings(ctx, p.Username, authcache.FieldDefaultPermissions, perms.Values())
			return perms, nil
		}
	}

	rolePerms, err := r.rolePermissions(ctx, p)
	if err != nil {
		return nil, err
	}
	perms.Union(rolePerms)

	r.users.SetStrings(ctx, p.Username, authcache.FieldDefaultPermissions, perms.Values())
	return perms, nil
}

// rolePermissions unions the grant sets of every role the principal holds.
// Each role's set is cached under the role's own key, so a role grant change
// invalidates one hash and members pick it up on their next resolution.
func (r *Resolver) rolePermissions(ctx context.Context, p Principal) (StringSet, error) {
	roleCodes, err := r.AllRoles(ctx, p)
	if err != nil {
		return nil, err
	}

	perms := StringSet{}
	for code := range roleCodes {
		cached, ok := r.roles.GetStrings(ctx, code, authcache.FieldPermissions)
		if !ok {
			cached, err = r.store.RolePermissionCodes(ctx, code)
			if err != nil {
				return nil, fmt.Errorf("authz: load role %s permissions: %w", code, err)
			}
			r.roles.SetStrings(ctx, code, authcache.FieldPermissions, cached)
		}
		perms.Add(cached...)
	}
	return perms, nil
}

// AllRoles returns the principal's full role set: relationship-derived
// default roles unioned with directly assigned ones.
func (r *Resolver) AllRoles(ctx context.Context, p Principal) (StringSet, error) {
	if !p.Active || !p.Authenticated || p.Username == "" {
		return StringSet{}, nil
	}

	if cached, ok := r.users.GetStrings(ctx, p.Username, authcache.FieldRoles); ok {
		return NewStringSet(cached...), nil
	}

	roles, err := r.defaultRoles(ctx, p)
	if err != nil {
		return nil, err
	}
	direct, err := r.store.UserRoleCodes(ctx, p.Username)
	if err != nil {
		return nil, fmt.Errorf("authz: load direct roles: %w", err)
	}
	roles.Add(direct...)

	r.users.SetStrings(ctx, p.Username, authcache.FieldRoles, roles.Values())
	return roles, nil
}

// defaultRoles maps the principal's relationship snapshot onto role codes.
// A failed relationship fetch is not an error: the user gets only the
// unconditional roles until the upstream recovers.
func (r *Resolver) defaultRoles(ctx context.Context, p Principal) (StringSet, error) {
	if cached, ok := r.users.GetStrings(ctx, p.Username, authcache.FieldDefaultRoles); ok {
		return NewStringSet(cached...), nil
	}

	snapshot := r.relationshipSnapshot(ctx, p.Username)
	roles := NewStringSet(relationship.Evaluate(r.mapping, snapshot)...)

	r.users.SetStrings(ctx, p.Username, authcache.FieldDefaultRoles, roles.Values())
	return roles, nil
}

// relationshipSnapshot returns the cached snapshot, fetching and caching it
// on a miss. Fetch failures are logged and yield a nil snapshot; the derived
// roles computed from it still get cached, so recovery waits for the next
// invalidation.
func (r *Resolver) relationshipSnapshot(ctx context.Context, username string) relationship.Snapshot {
	var snapshot relationship.Snapshot
	if r.users.GetJSON(ctx, username, authcache.FieldRelationship, &snapshot) {
		return snapshot
	}
	if r.client == nil {
		return nil
	}
	snapshot, err := r.client.Relationship(ctx, username)
	if err != nil {
		r.log.WithError(err).WithField("username", username).Error("relationship fetch failed")
		return nil
	}
	r.users.SetJSON(ctx, username, authcache.FieldRelationship, snapshot)
	return snapshot
}

// InvalidateUser clears every cached aggregate of one principal. Called
// after assignment changes and after a fresh login.
func (r *Resolver) InvalidateUser(ctx context.Context, username string) error {
	if err := r.users.Clear(ctx, username); err != nil {
		return fmt.Errorf("authz: invalidate user %s: %w", username, err)
	}
	return nil
}

// InvalidateRole clears one role's cached grant set. Member principals are
// not fanned out to; their cached unions refresh lazily on next resolution.
func (r *Resolver) InvalidateRole(ctx context.Context, code string) error {
	if err := r.roles.Clear(ctx, code); err != nil {
		return fmt.Errorf("authz: invalidate role %s: %w", code, err)
	}
	return nil
}
