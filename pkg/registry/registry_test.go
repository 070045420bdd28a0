package registry

import (
	"reflect"
	"testing"
)

func TestRegistry_DerivedCodes(t *testing.T) {
	r := New()
	if err := r.Register(Definition{Module: "shipment", Entity: "shipment", Label: "运单"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	perms := r.Permissions()
	if len(perms) != 4 {
		t.Fatalf("expected 4 derived permissions, got %d", len(perms))
	}

	var codes []string
	for _, p := range perms {
		codes = append(codes, p.Code)
	}
	want := []string{
		"shipment.add_shipment", "shipment.change_shipment",
		"shipment.delete_shipment", "shipment.view_shipment",
	}
	if !reflect.DeepEqual(codes, want) {
		t.Errorf("codes = %v, want %v", codes, want)
	}
	if perms[0].Name != "新增运单" {
		t.Errorf("expected localized name 新增运单, got %q", perms[0].Name)
	}
}

func TestRegistry_DeclaredCodes(t *testing.T) {
	r := New()
	err := r.Register(Definition{
		Module: "finance",
		Entity: "payment_application",
		Declared: []Declared{
			{Code: "apply_payment", Name: "请款申请"},
			{Code: "audit_payment_application", Name: "审批请款单"},
		},
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	perms := r.Permissions()
	if len(perms) != 2 {
		t.Fatalf("expected 2 declared permissions, got %d", len(perms))
	}
	if perms[0].Code != "finance.apply_payment" {
		t.Errorf("declared code must be module-namespaced, got %q", perms[0].Code)
	}
	if perms[0].Derived {
		t.Error("declared permissions must not count as derived")
	}
}

func TestRegistry_Denylist(t *testing.T) {
	r := New("sessions")
	if err := r.Register(Definition{Module: "sessions", Entity: "session", Label: "会话"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if perms := r.Permissions(); len(perms) != 0 {
		t.Errorf("denylisted module must register nothing, got %v", perms)
	}
}

func TestRegistry_RejectsIncompleteDefinition(t *testing.T) {
	r := New()
	if err := r.Register(Definition{Module: "shipment"}); err == nil {
		t.Error("expected error for definition without entity")
	}
}

type staticMapper map[string]string

func (m staticMapper) MapPermission(code string) (string, bool) {
	mapped, ok := m[code]
	return mapped, ok
}

func TestRegistry_MapCode(t *testing.T) {
	r := New()
	err := r.Register(Definition{
		Module: "report",
		Entity: "summary",
		Mapper: staticMapper{"report.view_summary": "shipment.view_shipment"},
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if perms := r.Permissions(); len(perms) != 0 {
		t.Errorf("mapped definition must register no permissions, got %v", perms)
	}

	mapped, ok := r.MapCode("report.view_summary")
	if !ok || mapped != "shipment.view_shipment" {
		t.Errorf("MapCode = %q, %v; want shipment.view_shipment, true", mapped, ok)
	}

	for _, code := range []string{
		"report.change_summary", // mapper declines
		"report.viewsummary",    // no action separator
		"view_summary",          // no module
		"other.view_summary",    // unregistered module
	} {
		if _, ok := r.MapCode(code); ok {
			t.Errorf("MapCode(%q) should not match", code)
		}
	}
}
