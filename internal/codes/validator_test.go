package codes

import "testing"

func TestValidator_Valid(t *testing.T) {
	v, err := NewValidator("")
	if err != nil {
		t.Fatalf("unexpected validator error: %v", err)
	}

	cases := []struct {
		raw  string
		want bool
	}{
		{"ABCDE", true},
		{"abc-123", true},
		{"  ABCDE  ", true},
		{"AB12", false},
		{"", false},
		{"has space", false},
		{"under_score", false},
	}
	for _, tc := range cases {
		if got := v.Valid(tc.raw); got != tc.want {
			t.Errorf("Valid(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestValidator_NormalizePreservesCase(t *testing.T) {
	v, err := NewValidator("")
	if err != nil {
		t.Fatalf("unexpected validator error: %v", err)
	}
	if got := v.Normalize("  AbCdE \n"); got != "AbCdE" {
		t.Fatalf("Normalize = %q", got)
	}
}

func TestNewValidator_RejectsBadPattern(t *testing.T) {
	if _, err := NewValidator("["); err == nil {
		t.Fatal("expected compile error")
	}
}
