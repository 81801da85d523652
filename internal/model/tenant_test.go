package model

import (
	"testing"
	"time"
)

func TestTenantActive(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	tests := []struct {
		name      string
		isActive  bool
		expiresAt *time.Time
		want      bool
	}{
		{"active without subscription", true, nil, true},
		{"active with future expiry", true, &future, true},
		{"active with past expiry", true, &past, false},
		{"inactive", false, nil, false},
		{"inactive with future expiry", false, &future, false},
	}
	for _, tt := range tests {
		tn := &Tenant{IsActive: tt.isActive, SubscriptionExpiresAt: tt.expiresAt}
		if got := tn.Active(now); got != tt.want {
			t.Errorf("%s: Active() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRoleHasPermission(t *testing.T) {
	admin := &Role{Name: "tenant-admin", Permissions: StringSet{PermissionWildcard}}
	if !admin.HasPermission("orders.create") {
		t.Error("wildcard role should grant everything")
	}

	viewer := &Role{Name: "viewer", Permissions: StringSet{"orders.view", "stock.view"}}
	if !viewer.HasPermission("orders.view") {
		t.Error("viewer should see orders")
	}
	if viewer.HasPermission("orders.create") {
		t.Error("viewer should not create orders")
	}
}

func TestUserCan(t *testing.T) {
	u := &User{Roles: []Role{
		{Name: "viewer", Permissions: StringSet{"orders.view"}},
		{Name: "stock-manager", Permissions: StringSet{"stock.adjust"}},
	}}
	if !u.Can("stock.adjust") {
		t.Error("permission from second role should apply")
	}
	if u.Can("tenants.delete") {
		t.Error("ungranted permission should be denied")
	}

	none := &User{}
	if none.Can("orders.view") {
		t.Error("user without roles can do nothing")
	}
}
