package internal

import "testing"

func TestNewHandleUnique(t *testing.T) {
	seen := make(map[string]struct{}, 256)
	for i := 0; i < 256; i++ {
		h, err := NewHandleString()
		if err != nil {
			t.Fatalf("NewHandleString: %v", err)
		}
		if len(h) != 22 {
			t.Fatalf("expected 22-char handle, got %q", h)
		}
		if _, dup := seen[h]; dup {
			t.Fatalf("duplicate handle %q", h)
		}
		seen[h] = struct{}{}
	}
}

// FuzzParseHandle exercises handle parsing with arbitrary strings.
// Goal: no panics; anything that parses must round-trip.
func FuzzParseHandle(f *testing.F) {
	f.Add("")
	f.Add("abc123")
	f.Add("AAAAAAAAAAAAAAAAAAAAAA")
	f.Add("!!!not-base64!!!")
	if h, err := NewHandle(); err == nil {
		f.Add(h.String())
	}

	f.Fuzz(func(t *testing.T, input string) {
		h, err := ParseHandle(input)
		if err != nil {
			return
		}

		again, err := ParseHandle(h.String())
		if err != nil {
			t.Fatalf("roundtrip parse failed: %v", err)
		}
		if again != h {
			t.Errorf("roundtrip mismatch: %x vs %x", again, h)
		}
	})
}
