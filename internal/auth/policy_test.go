package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowedDecisionTable(t *testing.T) {
	tests := []struct {
		role     string
		resource string
		action   string
		want     bool
	}{
		// customer: browse and own orders only
		{RoleCustomer, ResourceProduct, ActionRead, true},
		{RoleCustomer, ResourceProduct, ActionCreate, false},
		{RoleCustomer, ResourceProduct, ActionUpdate, false},
		{RoleCustomer, ResourceProduct, ActionDelete, false},
		{RoleCustomer, ResourceOrder, ActionCreate, true},
		{RoleCustomer, ResourceOrder, ActionRead, true},
		{RoleCustomer, ResourceOrder, ActionReadAny, false},

		// vendor: manages products but never deletes them
		{RoleVendor, ResourceProduct, ActionRead, true},
		{RoleVendor, ResourceProduct, ActionCreate, true},
		{RoleVendor, ResourceProduct, ActionUpdate, true},
		{RoleVendor, ResourceProduct, ActionDelete, false},
		{RoleVendor, ResourceOrder, ActionCreate, true},
		{RoleVendor, ResourceOrder, ActionRead, true},
		{RoleVendor, ResourceOrder, ActionReadAny, false},

		// admin: everything, including deletion and reading all orders
		{RoleAdmin, ResourceProduct, ActionRead, true},
		{RoleAdmin, ResourceProduct, ActionCreate, true},
		{RoleAdmin, ResourceProduct, ActionUpdate, true},
		{RoleAdmin, ResourceProduct, ActionDelete, true},
		{RoleAdmin, ResourceOrder, ActionCreate, true},
		{RoleAdmin, ResourceOrder, ActionRead, true},
		{RoleAdmin, ResourceOrder, ActionReadAny, true},
	}

	for _, tc := range tests {
		got := Allowed(tc.role, tc.resource, tc.action)
		assert.Equal(t, tc.want, got, "%s %s %s", tc.role, tc.action, tc.resource)
	}
}

func TestAllowedDeniesUnknowns(t *testing.T) {
	assert.False(t, Allowed("superuser", ResourceProduct, ActionRead))
	assert.False(t, Allowed("", ResourceOrder, ActionRead))
	assert.False(t, Allowed(RoleAdmin, "coupon", ActionRead))
	assert.False(t, Allowed(RoleAdmin, ResourceOrder, "approve"))
}
