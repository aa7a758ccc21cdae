package jwtdata

import (
	"context"
	"errors"
)

const (
	auditEventRead           = "jwt_data_read"
	auditEventUpdated        = "jwt_data_updated"
	auditEventUnauthorized   = "jwt_data_unauthorized"
	auditEventStorageFailure = "jwt_data_storage_failure"
	auditEventThrottled      = "jwt_data_throttled"
)

const (
	auditOpRead  = "read"
	auditOpWrite = "write"
)

// AuditErrorCode is the stable, non-sensitive error label carried by audit events.
type AuditErrorCode string

const (
	auditErrUnauthorized    AuditErrorCode = "unauthorized"
	auditErrSessionNotFound AuditErrorCode = "session_not_found"
	auditErrSessionExpired  AuditErrorCode = "session_expired"
	auditErrUnavailable     AuditErrorCode = "backend_unavailable"
	auditErrRateLimited     AuditErrorCode = "rate_limited"
	auditErrInternal        AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	tenantID string,
	handle string,
	err error,
	metadata map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}
	if tenantID == "" {
		tenantID = tenantIDFromContext(ctx)
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		RequestID: requestIDFromContext(ctx),
		UserID:    userID,
		TenantID:  tenantID,
		Handle:    handle,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func opMetadata(op string) map[string]string {
	return map[string]string{"op": op}
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrSessionExpired):
		return auditErrSessionExpired
	case errors.Is(err, ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, ErrUnauthorized):
		return auditErrUnauthorized
	case errors.Is(err, ErrStorageUnavailable):
		return auditErrUnavailable
	case errors.Is(err, ErrRateLimited):
		return auditErrRateLimited
	default:
		return auditErrInternal
	}
}
