package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a longer sentence", 10, "a longe..."},
		{"abcdef", 3, "abc"},
		{"café au lait", 6, "caf..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatLimit(t *testing.T) {
	if got := formatLimit(-1); got != "unlimited" {
		t.Errorf("formatLimit(-1) = %q", got)
	}
	if got := formatLimit(5); got != "5/day" {
		t.Errorf("formatLimit(5) = %q", got)
	}
}

func TestTable_Render(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, "ID", "STATUS")
	table.AddRow("1", "generated")
	table.AddRow("22", "failed")
	table.Render()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[1], "--") {
		t.Errorf("separator line = %q", lines[1])
	}
	if !strings.Contains(lines[3], "22") || !strings.Contains(lines[3], "failed") {
		t.Errorf("last row = %q", lines[3])
	}
}
