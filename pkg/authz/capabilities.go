package authz

import "github.com/starcommerce/lms-auth/pkg/registry"

// RegisterCapabilities registers this service's own administrative
// permissions: role management with the full default vocabulary, user
// assignment management, and read access to the permission catalog.
func RegisterCapabilities(reg *registry.Registry) error {
	defs := []registry.Definition{
		{Module: "auth", Entity: "role", Label: "角色"},
		{Module: "auth", Entity: "user", Label: "用户", Actions: []string{"change", "view"}},
		{Module: "auth", Entity: "permission", Declared: []registry.Declared{
			{Code: "view_permission", Name: "查看权限"},
		}},
	}
	for _, def := range defs {
		if err := reg.Register(def); err != nil {
			return err
		}
	}
	return nil
}
