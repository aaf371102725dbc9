package eventlog

import "testing"

func TestFilterEval(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		seq     uint64
		payload string
		want    bool
	}{
		{name: "empty matches all", expr: "", payload: "x", want: true},
		{name: "text prefix", expr: `text.startsWith("al")`, payload: "alice", want: true},
		{name: "text prefix miss", expr: `text.startsWith("al")`, payload: "bob", want: false},
		{name: "sequence bound", expr: `sequence >= 3`, seq: 2, payload: "x", want: false},
		{name: "size", expr: `size == 5`, payload: "hello", want: true},
		{name: "json field", expr: `json.kind == "greet"`, payload: `{"kind":"greet"}`, want: true},
		{name: "json on non-json payload", expr: `json.kind == "greet"`, payload: "plain", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFilter(tt.expr)
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			if got := f.Eval(tt.seq, []byte(tt.payload)); got != tt.want {
				t.Fatalf("got %v want %v", got, tt.want)
			}
		})
	}
}

func TestFilterRejectsBadExpressions(t *testing.T) {
	for _, expr := range []string{`text +`, `size + 1`, `unknown == 1`} {
		if _, err := NewFilter(expr); err == nil {
			t.Fatalf("expected compile error for %q", expr)
		}
	}
}
