package registry

import (
	"fmt"
	"strings"
	"sync"
)

// DefaultActions is the action vocabulary used when a definition declares no
// explicit codes.
var DefaultActions = []string{"add", "change", "delete", "view"}

// ActionLabels localizes the default actions for generated permission names.
var ActionLabels = map[string]string{
	"add":    "新增",
	"change": "修改",
	"delete": "删除",
	"view":   "查看",
}

// Mapper delegates authorization for an entity's codes to other codes. A
// definition with a Mapper registers no rows of its own.
type Mapper interface {
	MapPermission(code string) (string, bool)
}

// Declared is an explicitly declared permission. Code is namespaced by the
// definition's module on registration.
type Declared struct {
	Code string
	Name string
}

// Definition registers one entity's permissions. With Declared set, those
// codes are used verbatim; otherwise codes derive from Actions (default
// DefaultActions) as module.action_entity with a localized name.
type Definition struct {
	Module   string
	Entity   string
	Label    string
	Declared []Declared
	Actions  []string
	Mapper   Mapper
}

// Permission is one catalog entry produced from a definition.
type Permission struct {
	Code    string
	Name    string
	Module  string
	Entity  string
	Derived bool
}

// Registry is the process-wide permission catalog. Registration happens at
// startup; reads afterwards are safe from any goroutine.
type Registry struct {
	mu       sync.RWMutex
	defs     []Definition
	denylist map[string]bool
}

// New creates a registry. Definitions whose module is denylisted are dropped
// on registration.
func New(denylist ...string) *Registry {
	denied := make(map[string]bool, len(denylist))
	for _, module := range denylist {
		denied[module] = true
	}
	return &Registry{denylist: denied}
}

// Register adds a definition to the catalog.
func (r *Registry) Register(def Definition) error {
	if def.Module == "" || def.Entity == "" {
		return fmt.Errorf("registry: definition needs module and entity, got %q.%q", def.Module, def.Entity)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.denylist[def.Module] {
		return nil
	}
	r.defs = append(r.defs, def)
	return nil
}

// Permissions returns the catalog entries for every registered definition,
// in registration order. Mapped definitions contribute nothing.
func (r *Registry) Permissions() []Permission {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var perms []Permission
	for _, def := range r.defs {
		if def.Mapper != nil {
			continue
		}
		if len(def.Declared) > 0 {
			for _, d := range def.Declared {
				perms = append(perms, Permission{
					Code:   def.Module + "." + d.Code,
					Name:   d.Name,
					Module: def.Module,
					Entity: def.Entity,
				})
			}
			continue
		}
		actions := def.Actions
		if len(actions) == 0 {
			actions = DefaultActions
		}
		for _, action := range actions {
			perms = append(perms, Permission{
				Code:    fmt.Sprintf("%s.%s_%s", def.Module, action, def.Entity),
				Name:    ActionLabels[action] + def.Label,
				Module:  def.Module,
				Entity:  def.Entity,
				Derived: true,
			})
		}
	}
	return perms
}

// MapCode resolves a mapped permission code to the code it delegates to.
// The code must parse as module.action_entity and its module/entity pair must
// be registered with a Mapper; anything else simply does not match.
func (r *Registry) MapCode(code string) (string, bool) {
	module, _, entity, ok := splitCode(code)
	if !ok {
		return "", false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, def := range r.defs {
		if def.Mapper == nil || def.Module != module || def.Entity != entity {
			continue
		}
		if mapped, ok := def.Mapper.MapPermission(code); ok {
			return mapped, true
		}
	}
	return "", false
}

// splitCode parses module.action_entity.
func splitCode(code string) (module, action, entity string, ok bool) {
	module, rest, found := strings.Cut(code, ".")
	if !found || module == "" || rest == "" {
		return "", "", "", false
	}
	action, entity, found = strings.Cut(rest, "_")
	if !found || action == "" || entity == "" {
		return "", "", "", false
	}
	return module, action, entity, true
}
