package model

import "testing"

func TestParseRole_KnownRoles_Succeeds(t *testing.T) {
	tests := []struct {
		input string
		want  Role
	}{
		{"user", RoleUser},
		{"admin", RoleAdmin},
	}

	for _, tt := range tests {
		got, err := ParseRole(tt.input)
		if err != nil {
			t.Errorf("ParseRole(%q) returned error: %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ParseRole(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseRole_UnknownRole_ReturnsError(t *testing.T) {
	for _, input := range []string{"", "root", "Admin", "USER"} {
		if _, err := ParseRole(input); err == nil {
			t.Errorf("ParseRole(%q) should return error", input)
		}
	}
}
