package auth

// Resources and actions the policy knows about. Ownership checks (a vendor
// updating only its own product, a customer reading only its own order) are
// the calling component's responsibility; the policy is role-only.
const (
	ResourceProduct = "product"
	ResourceOrder   = "order"

	ActionRead    = "read"
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionReadAny = "read_any"
)

type permission struct {
	resource string
	action   string
}

// rolePermissions is the single decision table every mutating route
// consults. Keeping it in one place avoids the per-route permission drift
// the scattered checks used to cause.
var rolePermissions = map[string]map[permission]bool{
	RoleCustomer: {
		{ResourceProduct, ActionRead}: true,
		{ResourceOrder, ActionCreate}: true,
		{ResourceOrder, ActionRead}:   true,
	},
	RoleVendor: {
		{ResourceProduct, ActionRead}:   true,
		{ResourceProduct, ActionCreate}: true,
		{ResourceProduct, ActionUpdate}: true, // handler must also verify ownership
		{ResourceOrder, ActionCreate}:   true,
		{ResourceOrder, ActionRead}:     true,
	},
	RoleAdmin: {
		{ResourceProduct, ActionRead}:   true,
		{ResourceProduct, ActionCreate}: true,
		{ResourceProduct, ActionUpdate}: true,
		{ResourceProduct, ActionDelete}: true,
		{ResourceOrder, ActionCreate}:   true,
		{ResourceOrder, ActionRead}:     true,
		{ResourceOrder, ActionReadAny}:  true,
	},
}

// Allowed reports whether a role may perform action on resource. Unknown
// roles, resources, and actions are all denied.
func Allowed(role, resource, action string) bool {
	return rolePermissions[role][permission{resource, action}]
}
