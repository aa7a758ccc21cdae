package session

import "encoding/json"

// Session is one live user session as persisted by the session lifecycle
// component. This module only ever reads it or replaces Payload.
type Session struct {
	SchemaVersion uint8

	Handle   string
	UserID   string
	TenantID string

	// Payload is the JWT data attached to the session. It is opaque JSON and
	// may be empty.
	Payload json.RawMessage

	CreatedAt int64
	ExpiresAt int64
}

// ExpiredAt reports whether the session is past its expiry at unix second now.
func (s *Session) ExpiredAt(now int64) bool {
	return s == nil || s.ExpiresAt <= now
}
