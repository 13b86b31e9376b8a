package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		name   string
		region string
		in     string
		want   string
	}{
		{"dutch mobile", "NL", "06 12345678", "+31612345678"},
		{"already international", "NL", "+31 6 12345678", "+31612345678"},
		{"empty", "NL", "  ", ""},
		{"garbage kept", "NL", "not a number", "not a number"},
		{"default region", "", "0612345678", "+31612345678"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NewNormalizer(tc.region).E164(tc.in)
			if got != tc.want {
				t.Fatalf("E164(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
