package logging

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestGetAttachesDiscardWhenUnconfigured(t *testing.T) {
	Reset()
	defer Reset()

	l := Get("rpcauth.test")
	if len(l.outputs) != 1 || l.outputs[0] != io.Discard {
		t.Fatalf("outputs = %v, want a single discard output", l.outputs)
	}
	if !l.HasHandlers() {
		t.Fatal("HasHandlers false after Get")
	}

	// a second Get does not stack another discard output
	Get("rpcauth.test")
	if len(l.outputs) != 1 {
		t.Fatalf("outputs = %d", len(l.outputs))
	}
}

func TestGetKeepsConfiguredAncestor(t *testing.T) {
	Reset()
	defer Reset()

	var buf bytes.Buffer
	SetOutput("rpcauth", &buf)

	l := Get("rpcauth.auth.basic")
	if len(l.outputs) != 0 {
		t.Fatalf("outputs = %v, want none", l.outputs)
	}

	l.Printf("[REJECT] user=%q", "alice")
	out := buf.String()
	if !strings.Contains(out, "[rpcauth.auth.basic] ") || !strings.Contains(out, `[REJECT] user="alice"`) {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestPropagationOff(t *testing.T) {
	Reset()
	defer Reset()

	var root bytes.Buffer
	SetOutput("", &root)
	SetPropagate("rpcauth.quiet", false)

	l := Get("rpcauth.quiet")
	l.Println("hello")
	if root.Len() != 0 {
		t.Fatalf("root received %q", root.String())
	}

	var own bytes.Buffer
	SetOutput("rpcauth.quiet", &own)
	l.Println("hello")
	if !strings.Contains(own.String(), "hello") || root.Len() != 0 {
		t.Fatalf("own=%q root=%q", own.String(), root.String())
	}
}

func TestHierarchy(t *testing.T) {
	Reset()
	defer Reset()

	child := Get("a.b.c")
	if child.Name() != "a.b.c" || child.parent.Name() != "a.b" || child.parent.parent.Name() != "a" {
		t.Fatal("broken parent chain")
	}
	if child.parent.parent.parent != Root() {
		t.Fatal("top logger is not attached to the root")
	}
	if Get(".a.b.c.") != child {
		t.Fatal("names are not normalized")
	}
}

func TestResetKeepsHeldLoggers(t *testing.T) {
	Reset()
	defer Reset()

	held := Get("rpcauth.held")
	Reset()

	var root bytes.Buffer
	SetOutput("", &root)
	held.Printf("[DENY] method=%s", "math.add")
	if !strings.Contains(root.String(), "[DENY] method=math.add") {
		t.Fatalf("root = %q", root.String())
	}
	if Get("rpcauth.held") != held {
		t.Fatal("Reset replaced the logger")
	}
}
