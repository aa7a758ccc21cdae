package flows

import (
	"context"

	"github.com/MrEthical07/jwtdata/session"
)

// TokenDeps captures access-token issuance dependencies. Lookup and validity
// rules are shared with the payload flows.
type TokenDeps struct {
	Payload    PayloadDeps
	SignAccess func(*session.Session) (string, error)
}

// IssueTokenResult returns a signed token or a classified failure.
type IssueTokenResult struct {
	Failure PayloadFailureKind
	Reason  string
	Err     error
	Token   string
}

// RunIssueToken signs an access token embedding the current payload of a live
// session.
func RunIssueToken(ctx context.Context, tenantID, handle string, deps TokenDeps) IssueTokenResult {
	sess, failure, reason, err := lookupLive(ctx, tenantID, handle, deps.Payload)
	if failure != PayloadFailureNone {
		return IssueTokenResult{Failure: failure, Reason: reason, Err: err}
	}
	payload, err := storedPayload(sess)
	if err != nil {
		return IssueTokenResult{Failure: PayloadFailureStorage, Err: err}
	}
	sess.Payload = payload

	token, err := deps.SignAccess(sess)
	if err != nil {
		return IssueTokenResult{Failure: PayloadFailureStorage, Err: err}
	}
	return IssueTokenResult{Token: token}
}
