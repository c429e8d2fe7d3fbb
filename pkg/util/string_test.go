package util

import (
	"reflect"
	"testing"
)

func TestWords(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"hello world", []string{"hello", "world"}},
		{"it's a test", []string{"it's", "a", "test"}},
		{"comma,separated;tokens", []string{"comma", "separated", "tokens"}},
		{"  leading and trailing  ", []string{"leading", "and", "trailing"}},
		{"", nil},
		{"2024 report", []string{"2024", "report"}},
	}
	for _, tt := range tests {
		got := Words(tt.in)
		if len(got) == 0 && len(tt.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Words(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWordCount(t *testing.T) {
	if got := WordCount("one two three"); got != 3 {
		t.Errorf("WordCount = %d, want 3", got)
	}
	if got := WordCount("\n\t "); got != 0 {
		t.Errorf("WordCount of whitespace = %d, want 0", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a longer sentence here", 10, "a longe..."},
		{"abc", 2, "ab"},
		{"héllo wörld", 8, "héllo..."},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestCollapseWhitespace(t *testing.T) {
	if got := CollapseWhitespace("  a \n b\t\tc "); got != "a b c" {
		t.Errorf("CollapseWhitespace = %q", got)
	}
}
