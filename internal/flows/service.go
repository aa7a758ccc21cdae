package flows

import (
	"context"
	"encoding/json"
)

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Payload.SessionStore != nil
}

func (s Service) GetPayload(ctx context.Context, tenantID, handle string) GetPayloadResult {
	return RunGetPayload(ctx, tenantID, handle, s.deps.Payload)
}

func (s Service) SetPayload(ctx context.Context, tenantID, handle string, payload json.RawMessage) SetPayloadResult {
	return RunSetPayload(ctx, tenantID, handle, payload, s.deps.Payload)
}

func (s Service) IssueToken(ctx context.Context, tenantID, handle string) IssueTokenResult {
	if s.deps.Token.SignAccess == nil {
		return IssueTokenResult{Failure: PayloadFailureStorage}
	}
	return RunIssueToken(ctx, tenantID, handle, s.deps.Token)
}
