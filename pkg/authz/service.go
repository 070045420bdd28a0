package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrSystemRole is returned for mutations system roles refuse.
var ErrSystemRole = errors.New("authz: system roles cannot be deleted")

// ServiceStore is the persistence surface of the admin service, implemented
// by SQLStore.
type ServiceStore interface {
	GetRoleByCode(ctx context.Context, code string) (*Role, error)
	ListRoles(ctx context.Context, includeDeleted bool) ([]Role, error)
	ListPermissions(ctx context.Context, includeDisabled bool) ([]Permission, error)
	CreateRole(ctx context.Context, role *Role, permissionIDs []int64, members []string) error
	UpdateRole(ctx context.Context, role *Role, permissionIDs []int64, members []string) (RoleChanges, error)
	SetRoleDeleted(ctx context.Context, roleID int64, deleted bool) error
	RoleMembers(ctx context.Context, roleID int64) ([]string, error)
	SetUserAssignments(ctx context.Context, username string, roleIDs []int64, permissionIDs []int64) error
	UserAssignments(ctx context.Context, username string) (roleIDs, permissionIDs []int64, err error)
}

// Invalidator clears cached aggregates after a mutation commits.
// Implemented by *Resolver.
type Invalidator interface {
	InvalidateUser(ctx context.Context, username string) error
	InvalidateRole(ctx context.Context, code string) error
}

// Service performs role and assignment administration. Every mutation
// invalidates the caches it made stale, after the database write commits.
/// Invalidation failures are returned to the caller: a stale permission cache
// is an incident, not a log line.
type Service struct {
	store       ServiceStore
	invalidator Invalidator
	log         *logrus.Logger
}

// NewService creates the admin service.
func NewService(store ServiceStore, invalidator Invalidator, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{store: store, invalidator: invalidator, log: log}
}

// CreateRoleParams carries the fields of a role create.
type CreateRoleParams struct {
	Name          string   `json:"name"`
	Kind          RoleKind `json:"kind"`
	PermissionIDs []int64  `json:"permission_ids"`
	Members       []string `json:"members"`
}

// UpdateRoleParams carries a role update. Name and Kind apply when non-nil;
// PermissionIDs and Members replace the full grant or member list when
// non-nil and are left untouched when nil.
type UpdateRoleParams struct {
	Name          *string   `json:"name"`
	Kind          *RoleKind `json:"kind"`
	PermissionIDs []int64   `json:"permission_ids"`
	Members       []string  `json:"members"`
}

// CreateRole creates a custom role with a generated code.
func (s *Service) CreateRole(ctx context.Context, params CreateRoleParams) (*Role, error) {
	if params.Name == "" {
		return nil, errors.New("authz: role name is required")
	}

	role := &Role{
		Code: uuid.NewString(),
		Name: params.Name,
		Kind: params.Kind,
	}
	if err := s.store.CreateRole(ctx, role, params.PermissionIDs, params.Members); err != nil {
		return nil, err
	}

	for _, username := range params.Members {
		if err := s.invalidator.InvalidateUser(ctx, username); err != nil {
			return nil, err
		}
	}
	s.log.WithFields(logrus.Fields{"role": role.Code, "name": role.Name}).Info("role created")
	return role, nil
}

// UpdateRole updates a role. System roles keep their base fields; their
// grants and members stay editable so administrators can tune what the
// relationship-derived roles mean.
func (s *Service) UpdateRole(ctx context.Context, code string, params UpdateRoleParams) (*Role, error) {
	role, err := s.store.GetRoleByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if !role.IsSystem() {
		if params.Name != nil {
			role.Name = *params.Name
		}
		if params.Kind != nil {
			role.Kind = *params.Kind
		}
	}

	changes, err := s.store.UpdateRole(ctx, role, params.PermissionIDs, params.Members)
	if err != nil {
		return nil, err
	}

	if changes.GrantsChanged {
		if err := s.invalidator.InvalidateRole(ctx, role.Code); err != nil {
			return nil, err
		}
	}
	for _, username := range append(changes.AddedMembers, changes.RemovedMembers...) {
		if err := s.invalidator.InvalidateUser(ctx, username); err != nil {
			return nil, err
		}
	}
	return role, nil
}

// DeleteRole soft-deletes a custom role. The row and its grants survive for
// restore; members lose the role on their next resolution.
func (s *Service) DeleteRole(ctx context.Context, code string) error {
	role, err := s.store.GetRoleByCode(ctx, code)
	if err != nil {
		return err
	}
	if role.IsSystem() {
		return ErrSystemRole
	}
	if role.Deleted {
		return nil
	}

	members, err := s.store.RoleMembers(ctx, role.ID)
	if err != nil {
		return err
	}
	if err := s.store.SetRoleDeleted(ctx, role.ID, true); err != nil {
		return err
	}

	if err := s.invalidator.InvalidateRole(ctx, role.Code); err != nil {
		return err
	}
	for _, username := range members {
		if err := s.invalidator.InvalidateUser(ctx, username); err != nil {
			return err
		}
	}
	s.log.WithField("role", role.Code).Info("role deleted")
	return nil
}

// RestoreRole clears a role's soft-delete flag.
func (s *Service) RestoreRole(ctx context.Context, code string) error {
	role, err := s.store.GetRoleByCode(ctx, code)
	if err != nil {
		return err
	}
	if !role.Deleted {
		return nil
	}

	members, err := s.store.RoleMembers(ctx, role.ID)
	if err != nil {
		return err
	}
	if err := s.store.SetRoleDeleted(ctx, role.ID, false); err != nil {
		return err
	}

	for _, username := range members {
		if err := s.invalidator.InvalidateUser(ctx, username); err != nil {
			return err
		}
	}
	s.log.WithField("role", role.Code).Info("role restored")
	return nil
}

// SetUserAssignments replaces a user's direct role and permission
// assignments and invalidates the user's cached aggregates.
func (s *Service) SetUserAssignments(ctx context.Context, username string, roleIDs, permissionIDs []int64) error {
	if username == "" {
		return errors.New("authz: username is required")
	}
	if err := s.store.SetUserAssignments(ctx, username, roleIDs, permissionIDs); err != nil {
		return err
	}
	if err := s.invalidator.InvalidateUser(ctx, username); err != nil {
		return fmt.Errorf("assignments saved but cache invalidation failed: %w", err)
	}
	return nil
}

// ListRoles lists roles for the admin UI.
func (s *Service) ListRoles(ctx context.Context, includeDeleted bool) ([]Role, error) {
	return s.store.ListRoles(ctx, includeDeleted)
}

// ListPermissions lists permission rows for the admin UI.
func (s *Service) ListPermissions(ctx context.Context, includeDisabled bool) ([]Permission, error) {
	return s.store.ListPermissions(ctx, includeDisabled)
}

// UserAssignments returns a user's direct assignments.
func (s *Service) UserAssignments(ctx context.Context, username string) (roleIDs, permissionIDs []int64, err error) {
	return s.store.UserAssignments(ctx, username)
}
