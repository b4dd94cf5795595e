package utils

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("hello world", 6) != "hello..." {
		t.Errorf("trailing space should be trimmed, got %q", Truncate("hello world", 6))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
	if Truncate("日本語テキスト", 3) != "日本語..." {
		t.Errorf("rune-aware truncation, got %s", Truncate("日本語テキスト", 3))
	}
}

func TestClipRunes(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"abcdef", 3, "abc"},
		{"abc", 10, "abc"},
		{"héllo", 2, "hé"},
		{"abc", 0, "abc"},
	}
	for _, tt := range tests {
		if got := ClipRunes(tt.in, tt.n); got != tt.want {
			t.Errorf("ClipRunes(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
