package status

import "testing"

func TestIsValidAccount(t *testing.T) {
	tests := []struct {
		s    string
		want bool
	}{
		{"active", true},
		{"disabled", true},
		{"pending", true},
		{"", false},
		{"approved", false},
		{"ACTIVE", false},
	}
	for _, tt := range tests {
		if got := IsValidAccount(tt.s); got != tt.want {
			t.Errorf("IsValidAccount(%q) = %v, want %v", tt.s, got, tt.want)
		}
	}
}

func TestIsValidPost(t *testing.T) {
	tests := []struct {
		s    string
		want bool
	}{
		{"draft", true},
		{"pending", true},
		{"published", true},
		{"rejected", true},
		{"hidden", true},
		{"approved", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValidPost(tt.s); got != tt.want {
			t.Errorf("IsValidPost(%q) = %v, want %v", tt.s, got, tt.want)
		}
	}
}

func TestNormalizeRole(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "student"},
		{"student", "student"},
		{"employee", "employee"},
		{"institution", "institution"},
		{"super_admin", "super_admin"},
	}
	for _, tt := range tests {
		if got := NormalizeRole(tt.in); got != tt.want {
			t.Errorf("NormalizeRole(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeMembership(t *testing.T) {
	if got := NormalizeMembership(""); got != Pending {
		t.Errorf("NormalizeMembership(\"\") = %q, want %q", got, Pending)
	}
	if got := NormalizeMembership("active"); got != Active {
		t.Errorf("NormalizeMembership(\"active\") = %q, want %q", got, Active)
	}
}

func TestNormalizeClubRole(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"officer", "officer"},
		{"member", "member"},
		{"", "member"},
		{"president", "member"},
		{"Officer", "member"},
	}
	for _, tt := range tests {
		if got := NormalizeClubRole(tt.in); got != tt.want {
			t.Errorf("NormalizeClubRole(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
