package internal

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// Handle is the raw form of a session handle.
type Handle [16]byte

func NewHandle() (Handle, error) {
	var h Handle
	_, err := rand.Read(h[:])
	return h, err
}

func (h Handle) Bytes() []byte {
	return h[:]
}

func (h Handle) String() string {
	// base64url, no padding, compact
	return base64.RawURLEncoding.EncodeToString(h[:])
}

func ParseHandle(handle string) (Handle, error) {
	var h Handle

	raw, err := base64.RawURLEncoding.DecodeString(handle)
	if err != nil {
		return h, err
	}
	if len(raw) != len(h) {
		return h, errors.New("invalid session handle size")
	}

	copy(h[:], raw)
	return h, nil
}

// NewHandleString returns a fresh handle in its wire form.
func NewHandleString() (string, error) {
	h, err := NewHandle()
	if err != nil {
		return "", err
	}
	return h.String(), nil
}
