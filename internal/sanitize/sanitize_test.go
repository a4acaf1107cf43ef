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
		{"passthrough", "digit-7", "digit-7"},
		{"keeps path-like labels", "set:a/v1.2", "set:a/v1.2"},
		{"strips control characters", "smi\x00ley\x07", "smiley"},
		{"strips markup", "<b>face</b>", "bface/b"},
		{"tabs become spaces", "left\tarrow", "left arrow"},
		{"collapses spaces", "big    square", "big square"},
		{"collapses hyphens", "a---b", "a-b"},
		{"trims", "  ring  ", "ring"},
		{"drops non-ascii", "café", "caf"},
		{"newline removed", "line\nbreak", "linebreak"},
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
	got := Label(strings.Repeat("a", MaxLabelLength+20))
	if len(got) != MaxLabelLength {
		t.Errorf("len(Label()) = %d, want %d", len(got), MaxLabelLength)
	}
}

func TestSource(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"passthrough", "images/digit 7.png", "images/digit 7.png"},
		{"strips control characters", "img\x00/a\x1b.png", "img/a.png"},
		{"strips newlines", "a.png\nb.png", "a.pngb.png"},
		{"strips DEL", "a\x7f.png", "a.png"},
		{"trims", "  a.png ", "a.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Source(tt.input); got != tt.want {
				t.Errorf("Source(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSource_TruncatesKeepingTail(t *testing.T) {
	input := strings.Repeat("d/", 400) + "last.png"
	got := Source(input)

	if len(got) != MaxSourceLength {
		t.Errorf("len(Source()) = %d, want %d", len(got), MaxSourceLength)
	}
	if !strings.HasPrefix(got, "...") || !strings.HasSuffix(got, "last.png") {
		t.Errorf("Source() = %q, want ... prefix and last.png suffix", got)
	}
}
