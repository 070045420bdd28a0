package authz

import (
	"context"

	"github.com/starcommerce/lms-auth/pkg/registry"
)

// Checker is the aggregate-membership check the mapping provider delegates
// to. Satisfied by *Resolver.
type Checker interface {
	HasDirectPerm(ctx context.Context, p Principal, code string) bool
}

// maxMappingHops bounds delegation chains so a mapping cycle cannot recurse
// forever.
const maxMappingHops = 8

// MappingProvider grants mapped permission codes by delegating to the code
// they map onto. A definition registered with a Mapper owns no permission
// rows; holding the target code implies holding the mapped one.
type MappingProvider struct {
	registry *registry.Registry
	checker  Checker
}

// NewMappingProvider creates a provider over the given registry.
func NewMappingProvider(reg *registry.Registry, checker Checker) *MappingProvider {
	return &MappingProvider{registry: reg, checker: checker}
}

// HasPerm follows the mapping chain from code and grants when any code along
// it is held. Codes that do not parse or have no registered mapping simply
// do not match.
func (m *MappingProvider) HasPerm(ctx context.Context, p Principal, code string) bool {
	seen := map[string]bool{code: true}
	current := code

	for hop := 0; hop < maxMappingHops; hop++ {
		mapped, ok := m.registry.MapCode(current)
		if !ok {
			return false
		}
		if seen[mapped] {
			return false
		}
		seen[mapped] = true

		if m.checker.HasDirectPerm(ctx, p, mapped) {
			return true
		}
		current = mapped
	}
	return false
}
