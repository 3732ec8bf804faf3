package authorize

type Action string
type Resource string
type Role string
type Domain string

// ----------------------------
// Actions
// ----------------------------

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionList   Action = "list"

	// Power actions
	ActionManage  Action = "manage"
	ActionExecute Action = "execute"

	// Lifecycle actions
	ActionClose  Action = "close"  // complete an appointment
	ActionVerify Action = "verify" // approve or reject a profile

	// RBAC-specific actions
	ActionGrant  Action = "grant"
	ActionRevoke Action = "revoke"
)

const (
	WildcardAction Action = "*"
)

var KnownActions = map[Action]struct{}{
	ActionCreate: {}, ActionRead: {}, ActionUpdate: {}, ActionDelete: {}, ActionList: {},
	ActionManage: {}, ActionExecute: {},
	ActionClose: {}, ActionVerify: {},
	ActionGrant: {}, ActionRevoke: {},
}

// ----------------------------
// Resources
// ----------------------------

const (
	WildcardResource Resource = "*"

	// Identity / auth
	ResourceUser        Resource = "user"
	ResourceAuthSession Resource = "auth_session"
	ResourceProfile     Resource = "profile"

	// Marketplace
	ResourceEstablishment Resource = "establishment"
	ResourceTiming        Resource = "timing"
	ResourceAppointment   Resource = "appointment"
	ResourceFeedback      Resource = "feedback"
	ResourceNotification  Resource = "notification"

	// Content
	ResourceMasterData Resource = "masterdata"
	ResourceFAQ        Resource = "faq"
	ResourceDashboard  Resource = "dashboard"

	// System / platform admin
	ResourceSystem Resource = "system"
	ResourceAudit  Resource = "audit"
	ResourceRBAC   Resource = "rbac"
)

var KnownResources = map[Resource]struct{}{
	ResourceUser: {}, ResourceAuthSession: {}, ResourceProfile: {},
	ResourceEstablishment: {}, ResourceTiming: {}, ResourceAppointment: {},
	ResourceFeedback: {}, ResourceNotification: {},
	ResourceMasterData: {}, ResourceFAQ: {}, ResourceDashboard: {},
	ResourceSystem: {}, ResourceAudit: {}, ResourceRBAC: {},
}

// ----------------------------
// Roles
// ----------------------------
//
// These are the "policy subjects" we assign to users via grouping policies.

const (
	WildcardRole Role = "*"

	RoleSysAdmin Role = "role:sys:admin"

	RolePatient  Role = "role:user:patient"
	RoleDoctor   Role = "role:user:doctor"
	RoleHospital Role = "role:user:hospital"
)

var KnownRoles = map[Role]struct{}{
	RoleSysAdmin: {},
	RolePatient:  {},
	RoleDoctor:   {},
	RoleHospital: {},
}

// RoleForAccount maps the users.role column to the casbin role.
var RoleForAccount = map[string]Role{
	"admin":    RoleSysAdmin,
	"patient":  RolePatient,
	"doctor":   RoleDoctor,
	"hospital": RoleHospital,
}

// ----------------------------
// Domains
// ----------------------------

const (
	DomainSys Domain = "sys"
)

const (
	WildcardDomain Domain = "*"
)

// IsValidDomain checks whether d is a recognised domain string.
func IsValidDomain(d Domain) bool {
	return d == DomainSys || d == WildcardDomain
}

// ----------------------------
// Casbin tuple helpers
// ----------------------------

type PolicyEffect string

const (
	EffectAllow PolicyEffect = "allow"
	EffectDeny  PolicyEffect = "deny"
)

// GroupSubject is the g.sub in Casbin: a concrete principal id (user_id).
type GroupSubject string

// Grouping rows: g, user_id, role, domain
type GroupingPolicy struct {
	Subject GroupSubject
	Role    Role
	Domain  Domain
}

// Permission rows: p, role, domain, resource, action, eft
type PermissionPolicy struct {
	Subject Role
	Domain  Domain
	Object  Resource
	Action  Action
	Effect  PolicyEffect
}
