package authorize

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	casbin "github.com/casbin/casbin/v2"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
)

// createTestEnforcer builds an enforcer from the repository model with an empty file policy.
func createTestEnforcer(t *testing.T) *casbin.DistributedEnforcer {
	t.Helper()

	policyPath := filepath.Join(t.TempDir(), "policy.csv")
	if err := os.WriteFile(policyPath, []byte(""), 0644); err != nil {
		t.Fatalf("failed to write policy file: %v", err)
	}

	e, err := casbin.NewDistributedEnforcer("../../casbin_model.conf", fileadapter.NewAdapter(policyPath))
	if err != nil {
		t.Fatalf("failed to create enforcer: %v", err)
	}

	e.EnableAutoSave(false)
	e.EnableEnforce(true)

	return e
}

func newSeeded(t *testing.T, bypass bool) *Authorization {
	t.Helper()
	auth, err := NewAuthorization(createTestEnforcer(t), bypass)
	if err != nil {
		t.Fatalf("NewAuthorization: %v", err)
	}
	if err := SeedDefaultPolicies(context.Background(), auth); err != nil {
		t.Fatalf("SeedDefaultPolicies: %v", err)
	}
	return auth
}

func TestNewAuthorization(t *testing.T) {
	t.Run("returns error for nil enforcer", func(t *testing.T) {
		_, err := NewAuthorization(nil, true)
		if !errors.Is(err, ErrInvalidArgs) {
			t.Errorf("expected ErrInvalidArgs, got %v", err)
		}
	})

	t.Run("succeeds with valid enforcer", func(t *testing.T) {
		auth, err := NewAuthorization(createTestEnforcer(t), true)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if auth == nil {
			t.Error("expected non-nil authorization")
		}
	})
}

func TestEnforceDefaultPolicies(t *testing.T) {
	auth := newSeeded(t, false)
	ctx := context.Background()

	users := map[string]string{
		"patient-1":  "patient",
		"doctor-1":   "doctor",
		"hospital-1": "hospital",
		"admin-1":    "admin",
	}
	for id, role := range users {
		if err := AssignAccountRole(ctx, auth, id, role); err != nil {
			t.Fatalf("AssignAccountRole(%s): %v", id, err)
		}
	}

	tests := []struct {
		name     string
		subject  GroupSubject
		resource Resource
		action   Action
		want     bool
	}{
		{"patient books", "patient-1", ResourceAppointment, ActionCreate, true},
		{"doctor cannot book", "doctor-1", ResourceAppointment, ActionCreate, false},
		{"doctor completes", "doctor-1", ResourceAppointment, ActionClose, true},
		{"hospital completes", "hospital-1", ResourceAppointment, ActionClose, true},
		{"patient cannot complete", "patient-1", ResourceAppointment, ActionClose, false},
		{"patient cancels", "patient-1", ResourceAppointment, ActionDelete, true},
		{"doctor creates establishment", "doctor-1", ResourceEstablishment, ActionCreate, true},
		{"patient cannot create establishment", "patient-1", ResourceEstablishment, ActionCreate, false},
		{"hospital sets timing", "hospital-1", ResourceTiming, ActionCreate, true},
		{"doctor reads dashboard", "doctor-1", ResourceDashboard, ActionRead, true},
		{"patient has no dashboard", "patient-1", ResourceDashboard, ActionRead, false},
		{"doctor cannot manage master data", "doctor-1", ResourceMasterData, ActionCreate, false},
		{"patient cannot list users", "patient-1", ResourceUser, ActionList, false},
		{"admin manages master data", "admin-1", ResourceMasterData, ActionCreate, true},
		{"admin verifies profiles", "admin-1", ResourceProfile, ActionVerify, true},
		{"unknown subject denied", "stranger", ResourceProfile, ActionRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := auth.Enforce(ctx, tt.subject, DomainSys, tt.resource, tt.action)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Enforce() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnforceValidation(t *testing.T) {
	auth := newSeeded(t, true)
	ctx := context.Background()

	tests := []struct {
		name     string
		subject  GroupSubject
		domain   Domain
		resource Resource
		action   Action
	}{
		{"empty subject", "", DomainSys, ResourceProfile, ActionRead},
		{"invalid domain", "u", Domain("clinic:1"), ResourceProfile, ActionRead},
		{"unknown resource", "u", DomainSys, Resource("unknown"), ActionRead},
		{"unknown action", "u", DomainSys, ResourceProfile, Action("unknown")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.Enforce(ctx, tt.subject, tt.domain, tt.resource, tt.action)
			if !errors.Is(err, ErrInvalidArgs) {
				t.Errorf("expected ErrInvalidArgs, got %v", err)
			}
		})
	}
}

func TestMustEnforce(t *testing.T) {
	auth := newSeeded(t, true)
	ctx := context.Background()

	if err := AssignAccountRole(ctx, auth, "doctor-2", "doctor"); err != nil {
		t.Fatal(err)
	}

	t.Run("returns nil when allowed", func(t *testing.T) {
		if err := auth.MustEnforce(ctx, "doctor-2", DomainSys, ResourceTiming, ActionDelete); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("returns ErrForbidden when denied", func(t *testing.T) {
		err := auth.MustEnforce(ctx, "doctor-2", DomainSys, ResourceAudit, ActionRead)
		if !errors.Is(err, ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})
}

func TestSuperAdminBypass(t *testing.T) {
	auth, err := NewAuthorization(createTestEnforcer(t), true)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	// No policies at all: only the bypass can grant this.
	if _, err := auth.AddRoleForUserInDomain(ctx, "admin-2", RoleSysAdmin, DomainSys); err != nil {
		t.Fatalf("failed to add admin role: %v", err)
	}

	allowed, err := auth.Enforce(ctx, "admin-2", DomainSys, ResourceUser, ActionDelete)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Error("expected admin to be allowed")
	}
}

func TestRoleManagement(t *testing.T) {
	auth, _ := NewAuthorization(createTestEnforcer(t), true)
	ctx := context.Background()

	t.Run("assign account role is idempotent", func(t *testing.T) {
		if err := AssignAccountRole(ctx, auth, "user-789", "hospital"); err != nil {
			t.Fatalf("AssignAccountRole: %v", err)
		}

		roles, err := auth.GetRolesForUserInDomain(ctx, "user-789", DomainSys)
		if err != nil {
			t.Fatalf("GetRolesForUserInDomain: %v", err)
		}
		if len(roles) != 1 || roles[0] != RoleHospital {
			t.Fatalf("expected [%s], got %v", RoleHospital, roles)
		}

		if err := AssignAccountRole(ctx, auth, "user-789", "hospital"); err != nil {
			t.Fatalf("AssignAccountRole again: %v", err)
		}
		roles, _ = auth.GetRolesForUserInDomain(ctx, "user-789", DomainSys)
		if len(roles) != 1 {
			t.Errorf("expected 1 role after reassign, got %d", len(roles))
		}
	})

	t.Run("unknown account role", func(t *testing.T) {
		if err := AssignAccountRole(ctx, auth, "user-1", "nurse"); !errors.Is(err, ErrInvalidArgs) {
			t.Errorf("expected ErrInvalidArgs, got %v", err)
		}
	})

	t.Run("error for invalid role", func(t *testing.T) {
		_, err := auth.AddRoleForUserInDomain(ctx, "user-1", Role("invalid-role"), DomainSys)
		if err == nil {
			t.Error("expected error for invalid role")
		}
	})
}

func TestPermissionManagement(t *testing.T) {
	auth, _ := NewAuthorization(createTestEnforcer(t), true)
	ctx := context.Background()

	t.Run("add and remove permission", func(t *testing.T) {
		added, err := auth.AddPermission(ctx, RolePatient, DomainSys, ResourceFAQ, ActionRead, EffectAllow)
		if err != nil || !added {
			t.Fatalf("AddPermission = %v, %v", added, err)
		}

		removed, err := auth.RemovePermission(ctx, RolePatient, DomainSys, ResourceFAQ, ActionRead, EffectAllow)
		if err != nil || !removed {
			t.Fatalf("RemovePermission = %v, %v", removed, err)
		}
	})

	t.Run("error for invalid effect", func(t *testing.T) {
		_, err := auth.AddPermission(ctx, RoleSysAdmin, DomainSys, ResourceUser, ActionRead, PolicyEffect("invalid"))
		if err == nil {
			t.Error("expected error for invalid effect")
		}
	})
}

func TestDenyOverridesAllow(t *testing.T) {
	auth := newSeeded(t, false)
	ctx := context.Background()

	if err := AssignAccountRole(ctx, auth, "patient-9", "patient"); err != nil {
		t.Fatal(err)
	}
	if _, err := auth.AddPermission(ctx, RolePatient, DomainSys, ResourceFeedback, ActionCreate, EffectDeny); err != nil {
		t.Fatal(err)
	}

	ok, err := auth.Enforce(ctx, "patient-9", DomainSys, ResourceFeedback, ActionCreate)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected deny rule to win")
	}
}
