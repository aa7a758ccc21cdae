package jwtdata

import "errors"

var (
	// ErrUnauthorized is returned when a handle does not resolve to a live session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrSessionNotFound means no session exists for the handle.
	ErrSessionNotFound = errors.New("session does not exist")
	// ErrSessionExpired means the session exists but is past its expiry.
	ErrSessionExpired = errors.New("session expired")
	// ErrSessionHandleRequired is returned for an empty session handle.
	ErrSessionHandleRequired = errors.New("session handle required")
	// ErrPayloadInvalid is returned when a payload is not a single JSON object.
	ErrPayloadInvalid = errors.New("payload must be a JSON object")
	// ErrPayloadTooLarge is returned when a payload exceeds Session.MaxPayloadBytes.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrStorageUnavailable wraps every failure of the session backend.
	ErrStorageUnavailable = errors.New("session storage unavailable")
	// ErrEngineNotReady is returned by a nil or partially built Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrTokenIssuanceDisabled is returned by token operations when JWT is not configured.
	ErrTokenIssuanceDisabled = errors.New("token issuance disabled")
	// ErrTokenInvalid is returned for access tokens that fail verification.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrVersionNotSupported is returned when the negotiated protocol version
	// lacks payload access.
	ErrVersionNotSupported = errors.New("CDI version not supported")
	// ErrRateLimited is returned when the caller's IP exceeded Throttle.MaxUnauthorized.
	ErrRateLimited = errors.New("rate limited")
)
