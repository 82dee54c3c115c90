package rbac

import (
	"net/http"
	"testing"

	"garmentflow/infrastructure/cache"
)

func TestMatchPathWildcardSegments(t *testing.T) {
	cases := []struct {
		pattern string
		path    string
		ok      bool
	}{
		{pattern: "/app/stages/*/*", path: "/app/stages/white/jecard", ok: true},
		{pattern: "/app/stages/*/*/complete", path: "/app/stages/color/bleach/complete", ok: true},
		{pattern: "/app/designs/*", path: "/app/designs/abc/delete", ok: false},
		{pattern: "/app/designs/**", path: "/app/designs/abc/delete", ok: true},
		{pattern: "/app/designs/**", path: "/app/designs", ok: true},
		{pattern: "/app/approvals", path: "/app/approvals", ok: true},
		{pattern: "/app/approvals", path: "/app/approvals/1/approve", ok: false},
		{pattern: "/app/stages/*/*/complete", path: "/app/stages/color/bleach/forward", ok: false},
	}

	for _, tc := range cases {
		if got := matchPath(tc.pattern, tc.path); got != tc.ok {
			t.Fatalf("pattern=%s path=%s expected=%v got=%v", tc.pattern, tc.path, tc.ok, got)
		}
	}
}

func TestValidateResourceAccess_ByRole(t *testing.T) {
	c := cache.NewRbacRolesCache()
	r := New(c)
	r.AddAll([]string{RoleBoss, RoleEmployee}, "ORDERS_VIEW", http.MethodGet, "/app/orders")
	r.Add(RoleBoss, "APPROVALS_DECIDE", http.MethodPost, "/app/approvals/*/*")

	employee := c.GetRolesAndResources([]string{RoleEmployee})
	boss := c.GetRolesAndResources([]string{RoleBoss})

	if !ValidateResourceAccess(employee, "/app/orders", "get") {
		t.Fatalf("employee should view orders")
	}
	if ValidateResourceAccess(employee, "/app/approvals/x/approve", http.MethodPost) {
		t.Fatalf("employee must not decide approvals")
	}
	if !ValidateResourceAccess(boss, "/app/approvals/x/approve", http.MethodPost) {
		t.Fatalf("boss should decide approvals")
	}
}
