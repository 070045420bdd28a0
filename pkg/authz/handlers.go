package authz

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/starcommerce/lms-auth/pkg/menu"
	"github.com/starcommerce/lms-auth/pkg/registry"
)

// Reconciler triggers a permission reconcile run. Implemented by
// registry.Reconciler.
type Reconciler interface {
	Reconcile(ctx context.Context) (registry.Result, error)
}

// Handlers is the HTTP surface of the authorization service.
type Handlers struct {
	resolver   *Resolver
	service    *Service
	reconciler Reconciler
	menuTree   []menu.Item
	log        *logrus.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(resolver *Resolver, service *Service, reconciler Reconciler, menuTree []menu.Item, log *logrus.Logger) *Handlers {
	if log == nil {
		log = logrus.New()
	}
	return &Handlers{
		resolver:   resolver,
		service:    service,
		reconciler: reconciler,
		menuTree:   menuTree,
		log:        log,
	}
}

// RegisterRoutes mounts the API on the router.
func (h *Handlers) RegisterRoutes(router *mux.Router, mw *Middleware) {
	router.HandleFunc("/api/me/permissions", h.MyPermissions).Methods(http.MethodGet)
	router.HandleFunc("/api/me/roles", h.MyRoles).Methods(http.MethodGet)
	router.HandleFunc("/api/me/menu", h.MyMenu).Methods(http.MethodGet)
	router.HandleFunc("/api/check", h.Check).Methods(http.MethodGet)

	admin := router.PathPrefix("/api/admin").Subrouter()
	admin.Handle("/reconcile",
		mw.RequirePermission(PermSudo)(http.HandlerFunc(h.RunReconcile))).Methods(http.MethodPost)
	admin.Handle("/permissions",
		mw.RequirePermission("auth.view_permission")(http.HandlerFunc(h.ListPermissions))).Methods(http.MethodGet)
	admin.Handle("/roles",
		mw.RequirePermission("auth.view_role")(http.HandlerFunc(h.ListRoles))).Methods(http.MethodGet)
	admin.Handle("/roles",
		mw.RequirePermission("auth.add_role")(http.HandlerFunc(h.CreateRole))).Methods(http.MethodPost)
	admin.Handle("/roles/{code}",
		mw.RequirePermission("auth.change_role")(http.HandlerFunc(h.UpdateRole))).Methods(http.MethodPut)
	admin.Handle("/roles/{code}",
		mw.RequirePermission("auth.delete_role")(http.HandlerFunc(h.DeleteRole))).Methods(http.MethodDelete)
	admin.Handle("/roles/{code}/restore",
		mw.RequirePermission("auth.change_role")(http.HandlerFunc(h.RestoreRole))).Methods(http.MethodPost)
	admin.Handle("/users/{username}/assignments",
		mw.RequirePermission("auth.change_user")(http.HandlerFunc(h.SetAssignments))).Methods(http.MethodPut)
	admin.Handle("/users/{username}/assignments",
		mw.RequirePermission("auth.view_user")(http.HandlerFunc(h.GetAssignments))).Methods(http.MethodGet)
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.WithError(err).Error("failed to encode response")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "not found")
}

// MyPermissions returns the caller's full permission set.
func (h *Handlers) MyPermissions(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	perms, err := h.resolver.AllPermissions(r.Context(), p)
	if err != nil {
		h.log.WithError(err).Error("failed to resolve permissions")
		h.writeError(w, http.StatusInternalServerError, "permission resolution failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"permissions": perms.Values()})
}

// MyRoles returns the caller's full role set.
func (h *Handlers) MyRoles(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	roles, err := h.resolver.AllRoles(r.Context(), p)
	if err != nil {
		h.log.WithError(err).Error("failed to resolve roles")
		h.writeError(w, http.StatusInternalServerError, "role resolution failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"roles": roles.Values()})
}

// MyMenu returns the navigation tree filtered to what the caller may see.
func (h *Handlers) MyMenu(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	filtered := menu.Filter(h.menuTree, func(code string) bool {
		return h.resolver.HasPerm(r.Context(), p, code)
	})
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"menu": filtered})
}

// Check reports whether the caller holds one permission code. A denial looks
// the same whether the code exists or not.
func (h *Handlers) Check(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		h.writeError(w, http.StatusBadRequest, "code parameter is required")
		return
	}

	allowed := h.resolver.HasPerm(r.Context(), p, code)
	h.writeJSON(w, http.StatusOK, map[string]bool{"allowed": allowed})
}

// RunReconcile runs the permission reconciler and returns its result.
func (h *Handlers) RunReconcile(w http.ResponseWriter, r *http.Request) {
	result, err := h.reconciler.Reconcile(r.Context())
	if err != nil {
		h.log.WithError(err).Error("reconcile failed")
		h.writeError(w, http.StatusInternalServerError, "reconcile failed")
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// ListPermissions lists permission rows.
func (h *Handlers) ListPermissions(w http.ResponseWriter, r *http.Request) {
	includeDisabled := r.URL.Query().Get("include_disabled") == "true"
	perms, err := h.service.ListPermissions(r.Context(), includeDisabled)
	if err != nil {
		h.log.WithError(err).Error("failed to list permissions")
		h.writeError(w, http.StatusInternalServerError, "failed to list permissions")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"permissions": perms})
}

// ListRoles lists roles.
func (h *Handlers) ListRoles(w http.ResponseWriter, r *http.Request) {
	includeDeleted := r.URL.Query().Get("include_deleted") == "true"
	roles, err := h.service.ListRoles(r.Context(), includeDeleted)
	if err != nil {
		h.log.WithError(err).Error("failed to list roles")
		h.writeError(w, http.StatusInternalServerError, "failed to list roles")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"roles": roles})
}

// CreateRole creates a custom role.
func (h *Handlers) CreateRole(w http.ResponseWriter, r *http.Request) {
	var params CreateRoleParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	role, err := h.service.CreateRole(r.Context(), params)
	if err != nil {
		h.log.WithError(err).Error("failed to create role")
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeJSON(w, http.StatusCreated, role)
}

// UpdateRole updates a role's fields, grants or members.
func (h *Handlers) UpdateRole(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	var params UpdateRoleParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	role, err := h.service.UpdateRole(r.Context(), code, params)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "role not found")
			return
		}
		h.log.WithError(err).WithField("role", code).Error("failed to update role")
		h.writeError(w, http.StatusInternalServerError, "failed to update role")
		return
	}
	h.writeJSON(w, http.StatusOK, role)
}

// DeleteRole soft-deletes a custom role.
func (h *Handlers) DeleteRole(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	err := h.service.DeleteRole(r.Context(), code)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case isNotFound(err):
		h.writeError(w, http.StatusNotFound, "role not found")
	case err == ErrSystemRole:
		h.writeError(w, http.StatusConflict, "system roles cannot be deleted")
	default:
		h.log.WithError(err).WithField("role", code).Error("failed to delete role")
		h.writeError(w, http.StatusInternalServerError, "failed to delete role")
	}
}

// RestoreRole clears a role's soft-delete flag.
func (h *Handlers) RestoreRole(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	if err := h.service.RestoreRole(r.Context(), code); err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "role not found")
			return
		}
		h.log.WithError(err).WithField("role", code).Error("failed to restore role")
		h.writeError(w, http.StatusInternalServerError, "failed to restore role")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type assignmentsBody struct {
	RoleIDs       []int64 `json:"role_ids"`
	PermissionIDs []int64 `json:"permission_ids"`
}

// SetAssignments replaces a user's direct assignments.
func (h *Handlers) SetAssignments(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	var body assignmentsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.SetUserAssignments(r.Context(), username, body.RoleIDs, body.PermissionIDs); err != nil {
		h.log.WithError(err).WithField("username", username).Error("failed to set assignments")
		h.writeError(w, http.StatusInternalServerError, "failed to set assignments")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetAssignments returns a user's direct assignments.
func (h *Handlers) GetAssignments(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	roleIDs, permissionIDs, err := h.service.UserAssignments(r.Context(), username)
	if err != nil {
		h.log.WithError(err).WithField("username", username).Error("failed to load assignments")
		h.writeError(w, http.StatusInternalServerError, "failed to load assignments")
		return
	}
	h.writeJSON(w, http.StatusOK, assignmentsBody{RoleIDs: roleIDs, PermissionIDs: permissionIDs})
}
