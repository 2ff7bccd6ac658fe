package slug

import "testing"

func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple name", "Magee Marsh", "magee-marsh"},
		{"ampersand dropped", "Magee Marsh & Estuary Trail", "magee-marsh-estuary-trail"},
		{"apostrophe dropped", "Hoover Nature Preserve's North Pool", "hoover-nature-preserves-north-pool"},
		{"parentheses", "Sandy Ridge Reservation (Metro Park)", "sandy-ridge-reservation-metro-park"},
		{"numbers kept", "Route 66 Overlook", "route-66-overlook"},
		{"already a slug", "lake-erie-loop", "lake-erie-loop"},
		{"mixed case", "Lake ERIE Birding Drive", "lake-erie-birding-drive"},
		{"leading and trailing space", "  Oak Openings  ", "oak-openings"},
		{"internal whitespace run", "Oak   Openings", "oak-openings"},
		{"tabs and newlines", "Oak\tOpenings\nPreserve", "oak-openings-preserve"},
		{"hyphen runs collapsed", "Crane Creek -- East", "crane-creek-east"},
		{"dots dropped", "Mt. Gilead St. Park", "mt-gilead-st-park"},
		{"empty", "", ""},
		{"only punctuation", "!?#$", ""},
		{"only hyphens", "---", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Generate(tt.input); got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGenerateIdempotent(t *testing.T) {
	for _, s := range []string{"magee-marsh", "route-66-overlook", "a", "123"} {
		if got := Generate(s); got != s {
			t.Errorf("Generate(%q) = %q, want idempotent result", s, got)
		}
	}
}

func TestWithFallback(t *testing.T) {
	if got := WithFallback("Magee Marsh", "l123456"); got != "magee-marsh" {
		t.Errorf("WithFallback used fallback for valid name: %q", got)
	}
	if got := WithFallback("!?", "l123456"); got != "l123456" {
		t.Errorf("WithFallback(punctuation) = %q, want fallback", got)
	}
}

func TestMakeUnique(t *testing.T) {
	taken := func(existing ...string) func(string) bool {
		set := map[string]bool{}
		for _, s := range existing {
			set[s] = true
		}
		return func(s string) bool { return set[s] }
	}

	if got := MakeUnique("magee-marsh", taken()); got != "magee-marsh" {
		t.Errorf("free slug changed: %q", got)
	}
	if got := MakeUnique("magee-marsh", taken("magee-marsh")); got != "magee-marsh-2" {
		t.Errorf("first collision = %q, want magee-marsh-2", got)
	}
	if got := MakeUnique("magee-marsh", taken("magee-marsh", "magee-marsh-2", "magee-marsh-3")); got != "magee-marsh-4" {
		t.Errorf("chained collisions = %q, want magee-marsh-4", got)
	}
}
