package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderDashboard(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	var buf bytes.Buffer
	err = r.Render(&buf, Dashboard{
		Greeting:          "Hello",
		StartMode:         "upgrade",
		TotalEvents:       1234567,
		DistinctNames:     2,
		StableMemoryBytes: 65536,
		Names:             []NameRow{{Name: "<ada>", Count: 1200}, {Name: "bob", Count: 3}},
	}, "en-US")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"<h1>Hello</h1>", "1,234,567", "1,200", "&lt;ada&gt;", "upgrade"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRenderEmpty(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	var buf bytes.Buffer
	if err := r.Render(&buf, Dashboard{Greeting: "Hi"}, ""); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(buf.String(), "Nobody has been greeted yet.") {
		t.Fatalf("empty state missing:\n%s", buf.String())
	}
}

func TestPrinterForLanguage(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"de-DE,de;q=0.9", "1.234"},
		{"en", "1,234"},
		{"", "1,234"},
		{";;;", "1,234"},
	}
	for _, tt := range tests {
		if got := PrinterFor(tt.header).Sprintf("%d", 1234); got != tt.want {
			t.Fatalf("PrinterFor(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
