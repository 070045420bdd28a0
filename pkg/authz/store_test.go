package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/starcommerce/lms-auth/pkg/registry"
)

func newMockStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLStore(db), mock
}

func TestSQLStore_AllPermissionCodes(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT code FROM lms_permission WHERE status = 1").
		WillReturnRows(sqlmock.NewRows([]string{"code"}).
			AddRow("lms.allow_any").
			AddRow("shipment.view_shipment"))

	codes, err := store.AllPermissionCodes(context.Background())
	if err != nil {
		t.Fatalf("AllPermissionCodes failed: %v", err)
	}
	if len(codes) != 2 || codes[1] != "shipment.view_shipment" {
		t.Errorf("unexpected codes %v", codes)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSQLStore_RolePermissionCodes_FiltersDisabled(t *testing.T) {
	store, mock := newMockStore(t)

	// The join filters deleted roles and disabled permissions in SQL; the
	// query must carry both guards.
	mock.ExpectQuery(`r\.is_deleted = 0[\s\S]*p\.status = 1`).
		WithArgs("custom-role").
		WillReturnRows(sqlmock.NewRows([]string{"code"}).AddRow("shipment.view_shipment"))

	codes, err := store.RolePermissionCodes(context.Background(), "custom-role")
	if err != nil {
		t.Fatalf("RolePermissionCodes failed: %v", err)
	}
	if len(codes) != 1 {
		t.Errorf("unexpected codes %v", codes)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSQLStore_UserRoleCodes_Empty(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT r.code").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"code"}))

	codes, err := store.UserRoleCodes(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("UserRoleCodes failed: %v", err)
	}
	if len(codes) != 0 {
		t.Errorf("expected no roles, got %v", codes)
	}
}

func TestSQLStore_Apply_OneTransaction(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM lms_permission").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO lms_permission").
		WithArgs("shipment.view_shipment", "查看运单", "shipment", "shipment").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec("UPDATE lms_permission SET").
		WithArgs("新增运单", "shipment", "shipment", int64(12)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.Apply(context.Background(),
		[]int64{50},
		[]registry.Row{{Code: "shipment.view_shipment", Name: "查看运单", Module: "shipment", Entity: "shipment"}},
		[]registry.Row{{ID: 12, Code: "shipment.add_shipment", Name: "新增运单", Module: "shipment", Entity: "shipment"}},
	)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSQLStore_Apply_RollsBackOnFailure(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM lms_permission").
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	err := store.Apply(context.Background(), []int64{50}, nil, nil)
	if err == nil {
		t.Fatal("expected error from failing delete")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSQLStore_SetUserAssignments_Diffs(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	// Current roles 1,2; wanted 2,3: remove 1, add 3.
	mock.ExpectQuery("SELECT role_id FROM lms_user_role").
		WithArgs("bob").
		WillReturnRows(sqlmock.NewRows([]string{"role_id"}).AddRow(1).AddRow(2))
	mock.ExpectExec("DELETE FROM lms_user_role").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO lms_user_role").
		WithArgs("bob", int64(3)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	// Current permissions empty; wanted 7.
	mock.ExpectQuery("SELECT permission_id FROM lms_user_permission").
		WithArgs("bob").
		WillReturnRows(sqlmock.NewRows([]string{"permission_id"}))
	mock.ExpectExec("INSERT INTO lms_user_permission").
		WithArgs("bob", int64(7)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := store.SetUserAssignments(context.Background(), "bob", []int64{2, 3}, []int64{7})
	if err != nil {
		t.Fatalf("SetUserAssignments failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSQLStore_GetRoleByCode_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, code, name, kind, is_deleted").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := store.GetRoleByCode(context.Background(), "ghost"); err == nil {
		t.Fatal("expected not found error")
	} else if !isNotFound(err) {
		t.Errorf("expected a not found error, got %v", err)
	}
}
