package registry

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Row is a stored permission as the reconciler sees it.
type Row struct {
	ID     int64
	Code   string
	Name   string
	Module string
	Entity string
}

// Store is the persistence the reconciler drives. Apply must run all three
// change sets inside one transaction: either the table fully matches the
// catalog afterwards or nothing changed. Updates also re-enable disabled
// rows.
type Store interface {
	Permissions(ctx context.Context) ([]Row, error)
	Apply(ctx context.Context, deletes []int64, creates []Row, updates []Row) error
}

// Result summarizes one reconcile run.
type Result struct {
	Detected int `json:"detected"`
	Default  int `json:"default"`
	Created  int `json:"created"`
	Updated  int `json:"updated"`
	Deleted  int `json:"deleted"`
}

// Reconciler diffs the registered catalog against the permission table.
type Reconciler struct {
	registry  *Registry
	store     Store
	protected map[string]bool
	log       *logrus.Logger
}

// NewReconciler creates a reconciler. Protected codes (the framework's
// pseudo-permissions) count as detected without being registered: they are
// never created, updated or deleted here.
func NewReconciler(registry *Registry, store Store, protected []string, log *logrus.Logger) *Reconciler {
	if log == nil {
		log = logrus.New()
	}
	guarded := make(map[string]bool, len(protected))
	for _, code := range protected {
		guarded[code] = true
	}
	return &Reconciler{registry: registry, store: store, protected: guarded, log: log}
}

// Reconcile brings the permission table in line with the catalog. Unknown
// codes are created, known codes are refreshed (name, module, entity, and
// re-enabled), stored codes absent from the catalog are deleted. All of it
// happens in one store transaction; on failure nothing is applied and the
// zero Result is returned with the error.
func (r *Reconciler) Reconcile(ctx context.Context) (Result, error) {
	catalog := r.registry.Permissions()

	detected := make(map[string]Permission, len(catalog))
	defaults := 0
	for _, perm := range catalog {
		if _, dup := detected[perm.Code]; dup {
			return Result{}, fmt.Errorf("registry: duplicate permission code %q", perm.Code)
		}
		detected[perm.Code] = perm
		if perm.Derived {
			defaults++
		}
	}

	stored, err := r.store.Permissions(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("registry: load permissions: %w", err)
	}
	existing := make(map[string]Row, len(stored))
	for _, row := range stored {
		existing[row.Code] = row
	}

	var creates, updates []Row
	for _, perm := range catalog {
		row := Row{Code: perm.Code, Name: perm.Name, Module: perm.Module, Entity: perm.Entity}
		if current, ok := existing[perm.Code]; ok {
			row.ID = current.ID
			updates = append(updates, row)
		} else {
			creates = append(creates, row)
		}
	}

	var deletes []int64
	for code, row := range existing {
		if _, ok := detected[code]; ok {
			continue
		}
		if r.protected[code] {
			continue
		}
		deletes = append(deletes, row.ID)
	}

	if err := r.store.Apply(ctx, deletes, creates, updates); err != nil {
		return Result{}, fmt.Errorf("registry: apply changes: %w", err)
	}

	result := Result{
		Detected: len(detected) + len(r.protected),
		Default:  defaults,
		Created:  len(creates),
		Updated:  len(updates),
		Deleted:  len(deletes),
	}
	r.log.WithFields(logrus.Fields{
		"detected": result.Detected,
		"created":  result.Created,
		"updated":  result.Updated,
		"deleted":  result.Deleted,
	}).Info("permission reconcile complete")
	return result, nil
}
