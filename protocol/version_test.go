package protocol

import (
	"context"
	"errors"
	"testing"
)

func TestParseKnownVersions(t *testing.T) {
	for _, v := range All() {
		got, err := Parse(v.String())
		if err != nil {
			t.Fatalf("parse %q: %v", v.String(), err)
		}
		if got != v {
			t.Fatalf("parse %q: expected %d, got %d", v.String(), v, got)
		}
	}
}

func TestParseRejectsUnknown(t *testing.T) {
	for _, s := range []string{"", "0.9", "3.0", "2", "v2.0", "2.0.0"} {
		if _, err := Parse(s); !errors.Is(err, ErrUnsupportedVersion) {
			t.Fatalf("parse %q: expected ErrUnsupportedVersion, got %v", s, err)
		}
	}
}

func TestParseTrimsWhitespace(t *testing.T) {
	v, err := Parse(" 2.1 ")
	if err != nil || v != Version21 {
		t.Fatalf("expected Version21, got %v (%v)", v, err)
	}
}

func TestSupportsPayloadAccess(t *testing.T) {
	if Version10.SupportsPayloadAccess() {
		t.Fatal("1.0 must not support payload access")
	}
	if VersionUnknown.SupportsPayloadAccess() {
		t.Fatal("unknown version must not support payload access")
	}
	for _, v := range All()[1:] {
		if !v.SupportsPayloadAccess() {
			t.Fatalf("%s should support payload access", v)
		}
	}
}

func TestContextRoundTrip(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Fatal("empty context must not carry a version")
	}
	ctx := WithVersion(context.Background(), Version22)
	v, ok := FromContext(ctx)
	if !ok || v != Version22 {
		t.Fatalf("expected Version22, got %v ok=%v", v, ok)
	}
	if _, ok := FromContext(WithVersion(context.Background(), VersionUnknown)); ok {
		t.Fatal("unknown version must not be reported as negotiated")
	}
}

func TestMustParsePanicsOnUnknown(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	MustParse("9.9")
}
