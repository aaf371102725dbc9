package log

import (
	"bytes"
	"encoding/json"
	"errors"
	stdlog "log"
	"strings"
	"testing"
)

func newTestLogger(level Level, f Formatter) (Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := NewLogger(WithLevel(level), WithFormatter(f), WithOutput(NewWriterOutput(&buf)))
	return l, &buf
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newTestLogger(WarnLevel, &TextFormatter{DisableTimestamp: true})
	l.Info("hidden")
	l.Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered: %q", out)
	}
	if !strings.Contains(out, "WARN  shown") {
		t.Fatalf("missing warn line: %q", out)
	}
}

func TestTextFormatterFields(t *testing.T) {
	l, buf := newTestLogger(DebugLevel, &TextFormatter{DisableTimestamp: true})
	l.With(Component("audit")).Debug("appended", Uint64("seq", 7), Str("name", "a b"))
	got := strings.TrimSpace(buf.String())
	want := `DEBUG appended component=audit name="a b" seq=7`
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestJSONFormatterError(t *testing.T) {
	l, buf := newTestLogger(InfoLevel, &JSONFormatter{})
	l.Error("append failed", Err(errors.New("disk full")))
	var obj map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &obj); err != nil {
		t.Fatalf("unmarshal: %v (%q)", err, buf.String())
	}
	if obj["error"] != "disk full" || obj["level"] != "error" || obj["msg"] != "append failed" {
		t.Fatalf("unexpected object: %v", obj)
	}
}

func TestWithDoesNotMutateParent(t *testing.T) {
	l, buf := newTestLogger(InfoLevel, &TextFormatter{DisableTimestamp: true})
	_ = l.WithField("k", "v")
	l.Info("plain")
	if strings.Contains(buf.String(), "k=v") {
		t.Fatalf("parent picked up child field: %q", buf.String())
	}
}

func TestRingOutputWraps(t *testing.T) {
	ring := NewRingOutput(2)
	l := NewLogger(WithLevel(DebugLevel), WithOutput(ring))
	l.Info("one")
	l.Info("two")
	l.Info("three")
	got := ring.Entries()
	if len(got) != 2 {
		t.Fatalf("len=%d", len(got))
	}
	if got[0].Entry.Message != "two" || got[0].Counter != 1 {
		t.Fatalf("oldest = %+v", got[0])
	}
	if got[1].Entry.Message != "three" || got[1].Counter != 2 {
		t.Fatalf("newest = %+v", got[1])
	}
}

func TestApplyConfigRedactsAndSamples(t *testing.T) {
	var buf bytes.Buffer
	l, err := ApplyConfig(&Config{
		Level:            "debug",
		Format:           "text",
		DisableConsole:   true,
		RedactKeys:       []string{"token"},
		SampleInitial:    1,
		SampleThereafter: 100,
		Outputs:          []Output{NewWriterOutput(&buf)},
	})
	if err != nil {
		t.Fatalf("ApplyConfig: %v", err)
	}
	for i := 0; i < 5; i++ {
		l.Info("auth", Str("token", "secret"))
	}
	out := buf.String()
	if strings.Contains(out, "secret") {
		t.Fatalf("token not redacted: %q", out)
	}
	// first line passes as initial, second opens the next sampling window
	if n := strings.Count(out, "auth"); n != 2 {
		t.Fatalf("sampled lines = %d, want 2", n)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{"debug": DebugLevel, "": InfoLevel, "WARN": WarnLevel, "error": ErrorLevel}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestToStdLogger(t *testing.T) {
	l, buf := newTestLogger(InfoLevel, &TextFormatter{DisableTimestamp: true})
	std := ToStdLogger(l, WarnLevel)
	std.Print("from stdlib")
	if !strings.Contains(buf.String(), "WARN  from stdlib") {
		t.Fatalf("got %q", buf.String())
	}
	restore := RedirectStdLog(l)
	stdlog.Print("redirected")
	restore()
	if !strings.Contains(buf.String(), "redirected") {
		t.Fatalf("redirect missing: %q", buf.String())
	}
}
