package domain

import "testing"

func TestRoleFromString(t *testing.T) {
	testCases := []struct {
		in   string
		want Role
	}{
		{"admin", RoleAdmin},
		{"moderator", RoleModerator},
		{"user", RoleUser},
		{"", RoleUser},
		{"superuser", RoleUser},
	}
	for _, tc := range testCases {
		if got := RoleFromString(tc.in); got != tc.want {
			t.Errorf("RoleFromString(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestUser_Public(t *testing.T) {
	u := &User{ID: "u1", Email: "a@b.co", Name: "Alice", PasswordHash: "hash", Role: RoleUser}
	p := u.Public()
	if p.ID != "u1" || p.Email != "a@b.co" || p.Name != "Alice" || p.Role != "user" {
		t.Errorf("Public() = %+v", p)
	}
}

func TestUser_Validate(t *testing.T) {
	u := &User{Email: "a@b.co", PasswordHash: "hash"}
	if err := u.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if u.Role != RoleUser {
		t.Errorf("empty role should default to user, got %q", u.Role)
	}

	if err := (&User{PasswordHash: "hash"}).Validate(); err == nil {
		t.Error("missing email should fail validation")
	}
	if err := (&User{Email: "a@b.co"}).Validate(); err == nil {
		t.Error("missing password hash should fail validation")
	}
}
