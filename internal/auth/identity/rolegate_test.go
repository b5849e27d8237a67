package identity

import (
	"errors"
	"strings"
	"testing"

	"contacts_backend/platform/apperr"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		input   string
		want    Role
		wantErr bool
	}{
		{"admin", RoleAdmin, false},
		{"user", RoleUser, false},
		{"superuser", "", true},
		{"", "", true},
		{"Admin", "", true},
	}

	for _, tt := range tests {
		got, err := ParseRole(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseRole(%q): expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRole(%q): %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func kindOf(t *testing.T, err error) apperr.Kind {
	t.Helper()
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperr.Error, got %T: %v", err, err)
	}
	return appErr.Kind
}

func TestRoleGateAllows(t *testing.T) {
	gate := NewRoleGate(RoleAdmin)
	admin := Principal{ID: 1, Email: "root@example.com", Role: RoleAdmin}

	got, err := gate.Check(admin)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if got != admin {
		t.Fatalf("principal changed: %+v", got)
	}
}

func TestRoleGateRejectsDisallowedRole(t *testing.T) {
	gate := NewRoleGate(RoleAdmin)

	_, err := gate.Check(Principal{ID: 2, Email: "bob@example.com", Role: RoleUser})
	if kindOf(t, err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if !strings.Contains(err.Error(), "access denied: role user not in allowed set") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestRoleGateRejectsUnknownRole(t *testing.T) {
	gate := NewRoleGate(RoleAdmin, RoleUser)

	_, err := gate.Check(Principal{ID: 3, Email: "odd@example.com", Role: Role("superuser")})
	if kindOf(t, err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if !strings.Contains(err.Error(), "invalid user role") {
		t.Fatalf("unexpected message: %v", err)
	}
}
