package flows

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/MrEthical07/jwtdata/session"
)

// Reasons reported with an unauthorized outcome. Clients see them verbatim.
const (
	ReasonSessionNotFound = "session does not exist"
	ReasonSessionExpired  = "session expired"
	ReasonSessionInvalid  = "session is no longer valid"
)

// PayloadFailureKind classifies payload flow failures for root-level mapping.
type PayloadFailureKind int

const (
	PayloadFailureNone PayloadFailureKind = iota
	PayloadFailureUnauthorized
	PayloadFailureInvalidPayload
	PayloadFailureStorage
)

// PayloadStore is the persistence surface the payload flows need.
type PayloadStore interface {
	Lookup(ctx context.Context, tenantID, handle string) (*session.Session, error)
	ReplacePayload(ctx context.Context, tenantID, handle string, payload []byte) error
}

// PayloadDeps captures payload read/write dependencies.
//
// IsValid is optional. When nil, a session is valid iff it exists and has not
// expired, which the store enforces itself.
type PayloadDeps struct {
	SessionStore    PayloadStore
	IsValid         func(*session.Session) bool
	MaxPayloadBytes int
	PayloadInvalid  error
	PayloadTooLarge error
}

// GetPayloadResult is either a payload or a classified failure.
type GetPayloadResult struct {
	Failure PayloadFailureKind
	Reason  string
	Err     error
	Payload json.RawMessage
	Session *session.Session
}

// SetPayloadResult reports a classified payload replace outcome.
type SetPayloadResult struct {
	Failure PayloadFailureKind
	Reason  string
	Err     error
}

var emptyObject = json.RawMessage(`{}`)

// RunGetPayload resolves a handle to its live session and returns the stored
// payload unchanged. An empty stored payload reads as {}.
func RunGetPayload(ctx context.Context, tenantID, handle string, deps PayloadDeps) GetPayloadResult {
	sess, failure, reason, err := lookupLive(ctx, tenantID, handle, deps)
	if failure != PayloadFailureNone {
		return GetPayloadResult{Failure: failure, Reason: reason, Err: err}
	}

	payload, err := storedPayload(sess)
	if err != nil {
		return GetPayloadResult{Failure: PayloadFailureStorage, Err: err}
	}
	return GetPayloadResult{Payload: payload, Session: sess}
}

// storedPayload returns the session payload, {} when none was ever set. The
// binary framing does not cover the JSON itself, so a payload that no longer
// parses is reported as a corrupt record.
func storedPayload(sess *session.Session) (json.RawMessage, error) {
	if len(sess.Payload) == 0 {
		return emptyObject, nil
	}
	if !json.Valid(sess.Payload) {
		return nil, errors.Join(session.ErrRedisUnavailable, session.ErrSessionCorrupt)
	}
	return sess.Payload, nil
}

// RunSetPayload replaces the payload of a live session wholesale. Missing or
// expired sessions are left untouched.
func RunSetPayload(ctx context.Context, tenantID, handle string, payload json.RawMessage, deps PayloadDeps) SetPayloadResult {
	normalized, err := NormalizePayload(payload, deps.MaxPayloadBytes, deps.PayloadInvalid, deps.PayloadTooLarge)
	if err != nil {
		return SetPayloadResult{Failure: PayloadFailureInvalidPayload, Err: err}
	}

	// A custom validity rule needs the record; the store only knows expiry.
	if deps.IsValid != nil {
		if _, failure, reason, err := lookupLive(ctx, tenantID, handle, deps); failure != PayloadFailureNone {
			return SetPayloadResult{Failure: failure, Reason: reason, Err: err}
		}
	}

	if err := deps.SessionStore.ReplacePayload(ctx, tenantID, handle, normalized); err != nil {
		failure, reason := classifyStoreError(err)
		return SetPayloadResult{Failure: failure, Reason: reason, Err: err}
	}
	return SetPayloadResult{}
}

// NormalizePayload checks that raw is a single JSON object within maxBytes and
// returns its compact form. maxBytes <= 0 disables the size check.
func NormalizePayload(raw json.RawMessage, maxBytes int, invalid, tooLarge error) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, invalid
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return nil, errors.Join(invalid, err)
	}
	if maxBytes > 0 && buf.Len() > maxBytes {
		return nil, tooLarge
	}
	return buf.Bytes(), nil
}

func lookupLive(ctx context.Context, tenantID, handle string, deps PayloadDeps) (*session.Session, PayloadFailureKind, string, error) {
	sess, err := deps.SessionStore.Lookup(ctx, tenantID, handle)
	if err != nil {
		failure, reason := classifyStoreError(err)
		return nil, failure, reason, err
	}
	if deps.IsValid != nil && !deps.IsValid(sess) {
		return nil, PayloadFailureUnauthorized, ReasonSessionInvalid, nil
	}
	return sess, PayloadFailureNone, "", nil
}

// classifyStoreError separates "no live session" from storage failure. Corrupt
// records are storage failures, never authorization outcomes.
func classifyStoreError(err error) (PayloadFailureKind, string) {
	switch {
	case errors.Is(err, session.ErrSessionCorrupt), errors.Is(err, session.ErrRedisUnavailable):
		return PayloadFailureStorage, ""
	case errors.Is(err, session.ErrSessionExpired):
		return PayloadFailureUnauthorized, ReasonSessionExpired
	case errors.Is(err, session.ErrSessionNotFound):
		return PayloadFailureUnauthorized, ReasonSessionNotFound
	default:
		return PayloadFailureStorage, ""
	}
}
