package authorize

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// DefaultPolicies is the baseline permission set in domain sys.
// Admins hold a wildcard; every other row gates a route for one account role.
func DefaultPolicies() []PermissionPolicy {
	allow := func(role Role, obj Resource, acts ...Action) []PermissionPolicy {
		out := make([]PermissionPolicy, 0, len(acts))
		for _, act := range acts {
			out = append(out, PermissionPolicy{role, DomainSys, obj, act, EffectAllow})
		}
		return out
	}

	var policies []PermissionPolicy
	policies = append(policies, allow(RoleSysAdmin, WildcardResource, WildcardAction)...)

	for _, role := range []Role{RolePatient, RoleDoctor, RoleHospital} {
		policies = append(policies, allow(role, ResourceProfile, ActionRead, ActionUpdate)...)
		policies = append(policies, allow(role, ResourceAuthSession, ActionList, ActionDelete)...)
		policies = append(policies, allow(role, ResourceNotification, ActionList, ActionRead, ActionUpdate, ActionDelete)...)
		policies = append(policies, allow(role, ResourceAppointment, ActionList, ActionRead, ActionUpdate, ActionDelete)...)
		policies = append(policies, allow(role, ResourceFeedback, ActionCreate)...)
	}

	policies = append(policies, allow(RolePatient, ResourceAppointment, ActionCreate)...)

	for _, role := range []Role{RoleDoctor, RoleHospital} {
		policies = append(policies, allow(role, ResourceAppointment, ActionClose)...)
		policies = append(policies, allow(role, ResourceEstablishment, ActionCreate, ActionRead, ActionList, ActionUpdate, ActionDelete)...)
		policies = append(policies, allow(role, ResourceTiming, ActionCreate, ActionList, ActionDelete)...)
		policies = append(policies, allow(role, ResourceDashboard, ActionRead)...)
	}

	return policies
}

// SeedDefaultPolicies writes DefaultPolicies; existing rows are left untouched.
func SeedDefaultPolicies(ctx context.Context, auth IAuthorization) error {
	logger := slog.Default()

	policies := DefaultPolicies()
	for _, p := range policies {
		added, err := auth.AddPermission(ctx, p.Subject, p.Domain, p.Object, p.Action, p.Effect)
		if err != nil {
			logger.Error("failed to add policy", "policy", p, "error", err)
			return err
		}
		if added {
			logger.Debug("added policy", "role", p.Subject, "resource", p.Object, "action", p.Action)
		}
	}

	logger.Info("seeded default RBAC policies", "count", len(policies))
	return nil
}

// AssignAccountRole binds a user to the casbin role of their account type.
// Call this when creating a user.
func AssignAccountRole(ctx context.Context, auth IAuthorization, userID, accountRole string) error {
	role, ok := RoleForAccount[accountRole]
	if !ok {
		return ErrInvalidArgs
	}
	_, err := auth.AddRoleForUserInDomain(ctx, GroupSubject(userID), role, DomainSys)
	return err
}

// AccountRoles binds users to their account-type role.
type AccountRoles struct {
	auth IAuthorization
}

func NewAccountRoles(auth IAuthorization) *AccountRoles {
	return &AccountRoles{auth: auth}
}

func (r *AccountRoles) Assign(ctx context.Context, userID uuid.UUID, accountRole string) error {
	return AssignAccountRole(ctx, r.auth, userID.String(), accountRole)
}
