package session

import (
	"strings"
	"testing"
)

func TestDecodeRejectsUnsupportedSchemaVersion(t *testing.T) {
	_, err := Decode([]byte{99})
	if err == nil || !strings.Contains(err.Error(), "unsupported session schema version") {
		t.Fatalf("expected unsupported schema version error, got %v", err)
	}
}

func TestEncodeDecodeKeepsPayloadBytes(t *testing.T) {
	in := &Session{
		UserID:    "user-1",
		TenantID:  "0",
		Payload:   []byte(`{"nested":{"k":[true,null,1.5]}}`),
		CreatedAt: 1700000000,
		ExpiresAt: 1700003600,
	}
	data, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if data[0] != CurrentSchemaVersion {
		t.Fatalf("expected schema byte %d, got %d", CurrentSchemaVersion, data[0])
	}

	out, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(out.Payload) != string(in.Payload) {
		t.Fatalf("payload changed: %s", out.Payload)
	}
	if out.UserID != in.UserID || out.TenantID != in.TenantID || out.CreatedAt != in.CreatedAt || out.ExpiresAt != in.ExpiresAt {
		t.Fatalf("fields changed: %+v", out)
	}
}

func TestEncodeEmptyPayloadDecodesToNil(t *testing.T) {
	data, err := Encode(&Session{UserID: "u", ExpiresAt: 1})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Payload != nil {
		t.Fatalf("expected nil payload, got %q", out.Payload)
	}
}

func TestEncodeRejectsLongUserID(t *testing.T) {
	if _, err := Encode(&Session{UserID: strings.Repeat("u", 256)}); err == nil {
		t.Fatal("expected error for userID > 255 bytes")
	}
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	data, err := Encode(&Session{UserID: "u", Payload: []byte(`{}`)})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(append(data, 0)); err == nil {
		t.Fatal("expected trailing bytes to be rejected")
	}
}

func TestDecodeRejectsOversizedPayloadLength(t *testing.T) {
	data, err := Encode(&Session{UserID: "u", Payload: []byte(`{}`)})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// Bump the declared payload length past the remaining bytes.
	data[len(data)-3] = 0xFF
	if _, err := Decode(data); err == nil {
		t.Fatal("expected oversized payload length to be rejected")
	}
}
