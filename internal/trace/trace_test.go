package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"off", "error", "session", "report", "debug"} {
		l, err := ParseLevel(s)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", s, err)
		}
		if l.String() != s {
			t.Errorf("round trip %q -> %q", s, l.String())
		}
	}
	if _, err := ParseLevel("phase"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLevel_ShouldEmit(t *testing.T) {
	sessionBegin := &Event{Kind: KindSpanBegin, Scope: ScopeSession}
	accept := &Event{Kind: KindAccept, Scope: ScopeReport}
	reject := &Event{Kind: KindReject, Scope: ScopeReport}
	allow := &Event{Kind: KindPoint, Scope: ScopeDetail}

	tests := []struct {
		level Level
		ev    *Event
		want  bool
	}{
		{LevelOff, reject, false},
		{LevelError, reject, true},
		{LevelError, accept, false},
		{LevelSession, sessionBegin, true},
		{LevelSession, accept, false},
		{LevelSession, reject, true},
		{LevelReport, accept, true},
		{LevelReport, allow, false},
		{LevelDebug, allow, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.ev); got != tt.want {
			t.Errorf("%s.ShouldEmit(%s/%s) = %v, want %v", tt.level, tt.ev.Kind, tt.ev.Scope, got, tt.want)
		}
	}
}

func TestNew_OffIsNop(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil {
		t.Fatal(err)
	}
	if tr != Nop || tr.Enabled() {
		t.Error("LevelOff must yield the Nop tracer")
	}
}

func TestStreamTracer_Text(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelReport, Mode: ModeStream, Output: &buf})
	if err != nil {
		t.Fatal(err)
	}

	span := Begin(tr, ScopeSession, "foo.Bar", 0)
	Point(tr, KindAccept, ScopeReport, "foo.Bar", "partial", span.ID(), map[string]string{"allowed": "partial"})
	Point(tr, KindPoint, ScopeDetail, "foo.Bar", "allow full", span.ID(), nil)
	span.WithExtra("level", "full").End("ok")

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines (detail filtered), got %d:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "→ foo.Bar") {
		t.Errorf("begin line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "✓ foo.Bar (partial) {allowed=partial}") {
		t.Errorf("accept line = %q", lines[1])
	}
	if !strings.Contains(lines[2], "← foo.Bar (ok) {level=full}") {
		t.Errorf("end line = %q", lines[2])
	}
}

func TestStreamTracer_NDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatNDJSON)
	Point(tr, KindReject, ScopeReport, "a.B", "non_monotonic", 0, nil)

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json %q: %v", buf.String(), err)
	}
	if got["kind"] != "reject" || got["name"] != "a.B" || got["detail"] != "non_monotonic" {
		t.Errorf("unexpected event: %v", got)
	}
}

func TestRingTracer_Wraps(t *testing.T) {
	r := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		r.Emit(&Event{Kind: KindPoint, Scope: ScopeReport, Name: name})
	}
	snap := r.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("len = %d", len(snap))
	}
	for i, want := range []string{"c", "d", "e"} {
		if snap[i].Name != want {
			t.Errorf("snap[%d] = %q, want %q", i, snap[i].Name, want)
		}
	}
	for i := 1; i < len(snap); i++ {
		if snap[i].Seq <= snap[i-1].Seq {
			t.Errorf("sequence not increasing at %d", i)
		}
	}
}

func TestMultiTracer_FansOut(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelDebug, Mode: ModeBoth, Output: &buf, RingSize: 8})
	if err != nil {
		t.Fatal(err)
	}
	Point(tr, KindPoint, ScopeRun, "run", "", 0, nil)

	m, ok := tr.(*MultiTracer)
	if !ok {
		t.Fatalf("ModeBoth yielded %T", tr)
	}
	if got := len(m.Ring().Snapshot()); got != 1 {
		t.Errorf("ring has %d events", got)
	}
	if buf.Len() == 0 {
		t.Error("stream received nothing")
	}
	if err := tr.Close(); err != nil {
		t.Error(err)
	}
}

func TestContextPropagation(t *testing.T) {
	ctx := context.Background()
	if FromContext(ctx) != Nop {
		t.Error("empty context should yield Nop")
	}
	r := NewRingTracer(4, LevelDebug)
	ctx = WithParent(WithTracer(ctx, r), 42)
	if FromContext(ctx) != Tracer(r) {
		t.Error("tracer not propagated")
	}
	if ParentFrom(ctx) != 42 {
		t.Errorf("ParentFrom = %d", ParentFrom(ctx))
	}
}

func TestBegin_DisabledIsInert(t *testing.T) {
	s := Begin(Nop, ScopeSession, "x", 0)
	if s.ID() != 0 || s.End("") != 0 {
		t.Error("inert span should be zero")
	}
	s.WithExtra("k", "v")
}
