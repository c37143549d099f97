package server

import "testing"

func TestParseRole(t *testing.T) {
	for _, s := range []string{"user", "employee", "admin"} {
		role, err := ParseRole(s)
		if err != nil {
			t.Errorf("ParseRole(%q): %v", s, err)
		}
		if string(role) != s {
			t.Errorf("ParseRole(%q) = %q", s, role)
		}
	}

	for _, s := range []string{"", "Admin", "root", "superuser", "user "} {
		if _, err := ParseRole(s); err == nil {
			t.Errorf("ParseRole(%q) accepted an unknown role", s)
		}
	}
}

func TestRoleIn(t *testing.T) {
	if !RoleUser.In() {
		t.Error("empty set should accept any role")
	}
	if !RoleAdmin.In(RoleEmployee, RoleAdmin) {
		t.Error("admin should be in {employee, admin}")
	}
	if RoleUser.In(RoleEmployee, RoleAdmin) {
		t.Error("user should not be in {employee, admin}")
	}
}
