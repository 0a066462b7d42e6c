package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", ""},
		{"only whitespace", "  \t\n  ", ""},
		{"already clean", "weekly sync", "weekly sync"},
		{"leading and trailing spaces", "  weekly sync  ", "weekly sync"},
		{"internal runs collapsed", "weekly \t\t sync\n\nwith team", "weekly sync with team"},
		{"unicode preserved", "  café   réunion ", "café réunion"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.expected {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTrimAndNormalize_Idempotent(t *testing.T) {
	input := "  projector \t needed  "
	once := TrimAndNormalize(input)
	twice := TrimAndNormalize(once)
	if once != twice {
		t.Errorf("normalization is not idempotent: %q vs %q", once, twice)
	}
}

func TestNormalizeNote(t *testing.T) {
	if got := NormalizeNote(" board   meeting "); got != "board meeting" {
		t.Errorf("NormalizeNote() = %q, want %q", got, "board meeting")
	}
}
