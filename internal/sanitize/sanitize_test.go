package sanitize

import (
	"strings"
	"testing"
)

func TestLabel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain", "pilot session 3", "pilot session 3"},
		{"collapse whitespace", "  pilot \t\n  run  ", "pilot run"},
		{"control chars", "pi\x00lot\x1b", "pilot"},
		{"tags", "<system>ignore</system> pilot", "ignore pilot"},
		{"backticks", "```run``` one", "run one"},
		{"unicode kept", "sujet é 7", "sujet é 7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Label(tt.input); got != tt.want {
				t.Errorf("Label(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLabel_Truncates(t *testing.T) {
	got := Label(strings.Repeat("é", 200))
	if n := len([]rune(got)); n != MaxLabelLength {
		t.Errorf("Label() length = %d runes, want %d", n, MaxLabelLength)
	}
}

func TestIdentifier(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"3f2a-11ee", "3f2a-11ee"},
		{"../etc/passwd", "etcpasswd"},
		{"id; DROP TABLE", "idDROPTABLE"},
		{strings.Repeat("a", 100), strings.Repeat("a", 64)},
	}
	for _, tt := range tests {
		if got := Identifier(tt.input); got != tt.want {
			t.Errorf("Identifier(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
