package jwtdata

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/MrEthical07/jwtdata/internal/flows"
	"github.com/MrEthical07/jwtdata/internal/rate"
	"github.com/MrEthical07/jwtdata/jwt"
)

const reasonTenantRequired = "tenant not specified"

// GetPayload returns the JWT payload of the live session behind handle.
//
// A missing, expired, or otherwise invalid session yields a result with
// Status [StatusUnauthorised] and a nil error. The returned payload is the
// stored JSON byte-for-byte; a session that never had one reads as {}.
// Storage failures return an error matching [ErrStorageUnavailable]. With
// Throttle enabled, a client IP over budget gets [ErrRateLimited].
//
//	Performance: 1 Redis GET (+1 GET, +INCR on UNAUTHORISED, when throttled).
func (e *Engine) GetPayload(ctx context.Context, handle string) (*PayloadResult, error) {
	if e == nil || !e.flows.Initialized() {
		return nil, ErrEngineNotReady
	}
	if handle == "" {
		return nil, ErrSessionHandleRequired
	}

	if e.throttled(ctx) {
		e.metricInc(MetricPayloadThrottled)
		e.emitAudit(ctx, auditEventThrottled, false, "", "", handle, ErrRateLimited, opMetadata(auditOpRead))
		return nil, ErrRateLimited
	}

	tenantID, ok := e.resolveTenant(ctx)
	if !ok {
		e.metricInc(MetricPayloadReadUnauthorized)
		e.recordUnauthorized(ctx)
		e.emitAudit(ctx, auditEventUnauthorized, false, "", "", handle, ErrUnauthorized, opMetadata(auditOpRead))
		return unauthorisedResult(reasonTenantRequired), nil
	}

	start := time.Now()
	res := e.flows.GetPayload(ctx, tenantID, handle)
	e.observeLatency(start)

	switch res.Failure {
	case flows.PayloadFailureNone:
		e.metricInc(MetricPayloadReadSuccess)
		e.emitAudit(ctx, auditEventRead, true, res.Session.UserID, tenantID, handle, nil, nil)
		return &PayloadResult{Status: StatusOK, Payload: res.Payload}, nil
	case flows.PayloadFailureUnauthorized:
		e.metricInc(MetricPayloadReadUnauthorized)
		e.recordUnauthorized(ctx)
		e.emitAudit(ctx, auditEventUnauthorized, false, "", tenantID, handle, unauthorizedError(res.Reason), opMetadata(auditOpRead))
		return unauthorisedResult(res.Reason), nil
	default:
		e.metricInc(MetricStorageFailure)
		err := storageError(res.Err)
		e.emitAudit(ctx, auditEventStorageFailure, false, "", tenantID, handle, err, opMetadata(auditOpRead))
		return nil, err
	}
}

// SetPayload replaces the JWT payload of the live session behind handle with
// payload. The replacement is wholesale and atomic per session; expiry and
// every other session field are left as they were.
//
// payload must be a single JSON object no larger than Session.MaxPayloadBytes
// once compacted; otherwise the call fails with [ErrPayloadInvalid] or
// [ErrPayloadTooLarge] before any other check runs. Unauthorized outcomes
// are results, exactly as for [Engine.GetPayload], and never modify storage.
//
//	Performance: 1 Redis EVALSHA (2 round-trips with a SessionValidator).
func (e *Engine) SetPayload(ctx context.Context, handle string, payload json.RawMessage) (*PayloadResult, error) {
	if e == nil || !e.flows.Initialized() {
		return nil, ErrEngineNotReady
	}
	if handle == "" {
		return nil, ErrSessionHandleRequired
	}

	// Rejected before throttling and tenant resolution.
	normalized, err := flows.NormalizePayload(payload, e.config.Session.MaxPayloadBytes, ErrPayloadInvalid, ErrPayloadTooLarge)
	if err != nil {
		e.metricInc(MetricPayloadRejected)
		return nil, err
	}

	if e.throttled(ctx) {
		e.metricInc(MetricPayloadThrottled)
		e.emitAudit(ctx, auditEventThrottled, false, "", "", handle, ErrRateLimited, opMetadata(auditOpWrite))
		return nil, ErrRateLimited
	}

	tenantID, ok := e.resolveTenant(ctx)
	if !ok {
		e.metricInc(MetricPayloadWriteUnauthorized)
		e.recordUnauthorized(ctx)
		e.emitAudit(ctx, auditEventUnauthorized, false, "", "", handle, ErrUnauthorized, opMetadata(auditOpWrite))
		return unauthorisedResult(reasonTenantRequired), nil
	}

	start := time.Now()
	res := e.flows.SetPayload(ctx, tenantID, handle, normalized)
	e.observeLatency(start)

	switch res.Failure {
	case flows.PayloadFailureNone:
		e.metricInc(MetricPayloadWriteSuccess)
		e.emitAudit(ctx, auditEventUpdated, true, "", tenantID, handle, nil, nil)
		return &PayloadResult{Status: StatusOK}, nil
	case flows.PayloadFailureUnauthorized:
		e.metricInc(MetricPayloadWriteUnauthorized)
		e.recordUnauthorized(ctx)
		e.emitAudit(ctx, auditEventUnauthorized, false, "", tenantID, handle, unauthorizedError(res.Reason), opMetadata(auditOpWrite))
		return unauthorisedResult(res.Reason), nil
	case flows.PayloadFailureInvalidPayload:
		e.metricInc(MetricPayloadRejected)
		return nil, res.Err
	default:
		e.metricInc(MetricStorageFailure)
		err := storageError(res.Err)
		e.emitAudit(ctx, auditEventStorageFailure, false, "", tenantID, handle, err, opMetadata(auditOpWrite))
		return nil, err
	}
}

// IssueAccessToken signs an access token for the live session behind handle,
// embedding its current payload under the userDataInJWT claim.
//
// Unlike the payload operations, an unusable session is an error here:
// it matches [ErrUnauthorized] and, where known, [ErrSessionNotFound] or
// [ErrSessionExpired].
func (e *Engine) IssueAccessToken(ctx context.Context, handle string) (string, error) {
	if e == nil || !e.flows.Initialized() {
		return "", ErrEngineNotReady
	}
	if e.jwtManager == nil {
		return "", ErrTokenIssuanceDisabled
	}
	if handle == "" {
		return "", ErrSessionHandleRequired
	}

	tenantID, ok := e.resolveTenant(ctx)
	if !ok {
		return "", ErrUnauthorized
	}

	res := e.flows.IssueToken(ctx, tenantID, handle)
	switch res.Failure {
	case flows.PayloadFailureNone:
		e.metricInc(MetricTokenIssued)
		return res.Token, nil
	case flows.PayloadFailureUnauthorized:
		return "", unauthorizedError(res.Reason)
	default:
		e.metricInc(MetricStorageFailure)
		return "", storageError(res.Err)
	}
}

// ParseAccessToken verifies a token issued by [Engine.IssueAccessToken].
// It does not consult storage.
func (e *Engine) ParseAccessToken(token string) (*jwt.AccessClaims, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if e.jwtManager == nil {
		return nil, ErrTokenIssuanceDisabled
	}
	claims, err := e.jwtManager.ParseAccess(token)
	if err != nil {
		return nil, errors.Join(ErrTokenInvalid, err)
	}
	return claims, nil
}

// throttled fails open: a counter read error never blocks a call.
func (e *Engine) throttled(ctx context.Context) bool {
	if e.limiter == nil {
		return false
	}
	return errors.Is(e.limiter.Check(ctx, clientIPFromContext(ctx)), rate.ErrRateLimited)
}

func (e *Engine) recordUnauthorized(ctx context.Context) {
	if e.limiter == nil {
		return
	}
	_ = e.limiter.RecordUnauthorized(ctx, clientIPFromContext(ctx))
}

func (e *Engine) resolveTenant(ctx context.Context) (string, bool) {
	if e.config.MultiTenant.Enabled {
		return tenantIDFromContextExplicit(ctx)
	}
	return tenantIDFromContext(ctx), true
}

func unauthorisedResult(reason string) *PayloadResult {
	return &PayloadResult{Status: StatusUnauthorised, Message: reason}
}

func unauthorizedError(reason string) error {
	switch reason {
	case flows.ReasonSessionNotFound:
		return errors.Join(ErrUnauthorized, ErrSessionNotFound)
	case flows.ReasonSessionExpired:
		return errors.Join(ErrUnauthorized, ErrSessionExpired)
	default:
		return ErrUnauthorized
	}
}

func storageError(err error) error {
	if err == nil {
		return ErrStorageUnavailable
	}
	return errors.Join(ErrStorageUnavailable, err)
}
