package authz

import (
	"sort"
	"time"
)

// Pseudo-permission codes. These are granted by user state rather than by
// configuration and are seeded into the permission table by the migrations.
const (
	PermAllowAny        = "lms.allow_any"       // everyone, unauthenticated included
	PermIsAuthenticated = "lms.is_authenticated" // any logged-in user
	PermStaff           = "lms.staff"            // backoffice staff
	PermSudo            = "lms.sudo"             // superusers
)

// PseudoPermissions returns the pseudo-permission codes in grant order.
func PseudoPermissions() []string {
	return []string{PermAllowAny, PermIsAuthenticated, PermStaff, PermSudo}
}

// Rows at or below these IDs are system-owned: seeded by migrations and
// protected from admin edits.
const (
	SystemPermissionMaxID = 10
	SystemRoleMaxID       = 100
)

// Principal is the authenticated identity a request acts as. The zero value
// is an anonymous user.
type Principal struct {
	Username      string `json:"username"`
	Authenticated bool   `json:"authenticated"`
	Active        bool   `json:"active"`
	Staff         bool   `json:"staff"`
	Superuser     bool   `json:"superuser"`
}

// Anonymous returns an unauthenticated but active principal.
func Anonymous() Principal {
	return Principal{Active: true}
}

// StringSet is an unordered set of permission or role codes.
type StringSet map[string]struct{}

// NewStringSet builds a set from the given values.
func NewStringSet(values ...string) StringSet {
	s := make(StringSet, len(values))
	s.Add(values...)
	return s
}

// Add inserts values into the set.
func (s StringSet) Add(values ...string) {
	for _, v := range values {
		s[v] = struct{}{}
	}
}

// Has reports membership.
func (s StringSet) Has(value string) bool {
	_, ok := s[value]
	return ok
}

// Union adds every member of other.
func (s StringSet) Union(other StringSet) {
	for v := range other {
		s[v] = struct{}{}
	}
}

// Values returns the members sorted.
func (s StringSet) Values() []string {
	values := make([]string, 0, len(s))
	for v := range s {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// Permission is one row of the permission table. Disabled rows are invisible
// to resolution but kept for restore.
type Permission struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Module      string `json:"module,omitempty"`
	Entity      string `json:"entity,omitempty"`
	Enabled     bool   `json:"enabled"`
}

// IsSystem reports whether the permission is system-owned.
func (p Permission) IsSystem() bool {
	return p.ID > 0 && p.ID <= SystemPermissionMaxID
}

// RoleKind groups roles by business area for the admin UI.
type RoleKind int

const (
	KindCustom RoleKind = iota
	KindSeller
	KindService
	KindWarehouse
	KindLogistic
	KindFinance
	KindDevelop
)

var roleKindNames = map[RoleKind]string{
	KindCustom:    "自定义",
	KindSeller:    "销售",
	KindService:   "客服",
	KindWarehouse: "仓储",
	KindLogistic:  "物流",
	KindFinance:   "财务",
	KindDevelop:   "研发",
}

// String returns the localized kind label.
func (k RoleKind) String() string {
	if name, ok := roleKindNames[k]; ok {
		return name
	}
	return roleKindNames[KindCustom]
}

// Role is one row of the role table. Code is stable and referenced by the
// relationship mapping; soft-deleted roles keep their rows and grants.
type Role struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Kind      RoleKind  `json:"kind"`
	Deleted   bool      `json:"deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsSystem reports whether the role is system-owned. System roles are the
// targets of the relationship mapping: base fields and existence are fixed,
// only their grants are editable.
func (r Role) IsSystem() bool {
	return r.ID > 0 && r.ID <= SystemRoleMaxID
}
