package util

import "testing"

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"trunk prefix replaced", "0501234567", "972501234567"},
		{"already international", "972501234567", "972501234567"},
		{"plus stripped", "+972501234567", "972501234567"},
		{"punctuation stripped", "050-123 45 67", "972501234567"},
		{"bare local number", "501234567", "972501234567"},
		{"empty", "", ""},
		{"garbage only", "abc-+", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizePhone(tc.raw, "972")
			if got != tc.want {
				t.Fatalf("NormalizePhone(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}
