package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/MrEthical07/jwtdata"
	"github.com/MrEthical07/jwtdata/jwt"
	"github.com/MrEthical07/jwtdata/protocol"
)

const (
	fieldSessionHandle = "sessionHandle"
	fieldUserData      = "userDataInJWT"

	defaultMaxBodyBytes = 1 << 20
)

// Request outcomes recorded on the access log.
const (
	outcomeOK              = "ok"
	outcomeUnauthorised    = "unauthorised"
	outcomeBadRequest      = "bad_request"
	outcomeVersionRejected = "version_rejected"
	outcomeThrottled       = "throttled"
	outcomeError           = "error"
)

// Directory is the session payload store behind the handler.
// [jwtdata.Engine] implements it.
type Directory interface {
	GetPayload(ctx context.Context, handle string) (*jwtdata.PayloadResult, error)
	SetPayload(ctx context.Context, handle string, payload json.RawMessage) (*jwtdata.PayloadResult, error)
}

// TokenIssuer signs access tokens carrying a session's payload.
type TokenIssuer interface {
	IssueAccessToken(ctx context.Context, handle string) (string, error)
}

// HealthChecker reports storage round-trip latency.
type HealthChecker interface {
	Health(ctx context.Context) (time.Duration, error)
}

// PayloadResponse is the body of every non-error payload response.
type PayloadResponse struct {
	Status        string          `json:"status"`
	Message       string          `json:"message,omitempty"`
	UserDataInJWT json.RawMessage `json:"userDataInJWT,omitempty"`
}

// TokenResponse is the body of a successful token issuance.
type TokenResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latencyMs"`
}

// Handler serves the JWT payload API over net/http.
type Handler struct {
	dir          Directory
	tokens       TokenIssuer
	health       HealthChecker
	log          zerolog.Logger
	maxBodyBytes int64
}

// Option configures a Handler.
type Option func(*Handler)

// WithTokenIssuer enables POST /jwt/token.
func WithTokenIssuer(t TokenIssuer) Option {
	return func(h *Handler) { h.tokens = t }
}

// WithHealthChecker enables a storage check on GET /health.
func WithHealthChecker(c HealthChecker) Option {
	return func(h *Handler) { h.health = c }
}

// WithMaxBodyBytes caps the PUT body. Non-positive values keep the 1 MiB default.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

// NewHandler returns a Handler over dir.
func NewHandler(dir Directory, logger zerolog.Logger, opts ...Option) *Handler {
	h := &Handler{
		dir:          dir,
		log:          logger.With().Str("component", "api").Logger(),
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes registers the /jwt endpoints on mux.
//
// GET /jwt/claims is not registered here since it needs a token guard; mount
// [Handler.Claims] behind one. [Handler.Health] is left to the caller too.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/jwt/data", h.Payload)
	if h.tokens != nil {
		mux.HandleFunc("/jwt/token", h.Token)
	}
}

// Payload serves GET and PUT /jwt/data.
func (h *Handler) Payload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	var outcome string
	switch r.Method {
	case http.MethodGet:
		outcome = h.getPayload(rec, r)
	case http.MethodPut:
		outcome = h.setPayload(rec, r)
	default:
		rec.Header().Set("Allow", "GET, PUT")
		ReturnError(rec, h.log, MethodNotAllowed)
		outcome = outcomeBadRequest
	}

	h.logAccess(r, rec.status, outcome, start)
}

func (h *Handler) getPayload(w http.ResponseWriter, r *http.Request) string {
	if !payloadAccessAllowed(r.Context()) {
		ReturnError(w, h.log, versionNotSupported)
		return outcomeVersionRejected
	}

	handle := r.URL.Query().Get(fieldSessionHandle)
	if handle == "" {
		ReturnError(w, h.log, func() (int, ErrorResponse) { return BadRequestParam(fieldSessionHandle) })
		return outcomeBadRequest
	}

	res, err := h.dir.GetPayload(r.Context(), handle)
	if err != nil {
		return h.directoryError(w, r, err)
	}

	return h.respondResult(w, res, true)
}

func (h *Handler) setPayload(w http.ResponseWriter, r *http.Request) string {
	if !payloadAccessAllowed(r.Context()) {
		ReturnError(w, h.log, versionNotSupported)
		return outcomeVersionRejected
	}

	fields, errFunc := h.decodeObject(w, r)
	if errFunc != nil {
		ReturnError(w, h.log, errFunc)
		return outcomeBadRequest
	}

	handle, ok := stringField(fields, fieldSessionHandle)
	if !ok {
		ReturnError(w, h.log, func() (int, ErrorResponse) { return BadRequestField(fieldSessionHandle) })
		return outcomeBadRequest
	}

	payload, ok := objectField(fields, fieldUserData)
	if !ok {
		ReturnError(w, h.log, func() (int, ErrorResponse) { return BadRequestField(fieldUserData) })
		return outcomeBadRequest
	}

	res, err := h.dir.SetPayload(r.Context(), handle, payload)
	if err != nil {
		return h.directoryError(w, r, err)
	}

	return h.respondResult(w, res, false)
}

// Token serves POST /jwt/token.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	outcome := h.issueToken(rec, r)
	h.logAccess(r, rec.status, outcome, start)
}

func (h *Handler) issueToken(w http.ResponseWriter, r *http.Request) string {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		ReturnError(w, h.log, MethodNotAllowed)
		return outcomeBadRequest
	}
	if h.tokens == nil {
		ReturnError(w, h.log, TokenIssuanceDisabled)
		return outcomeBadRequest
	}
	if !payloadAccessAllowed(r.Context()) {
		ReturnError(w, h.log, versionNotSupported)
		return outcomeVersionRejected
	}

	fields, errFunc := h.decodeObject(w, r)
	if errFunc != nil {
		ReturnError(w, h.log, errFunc)
		return outcomeBadRequest
	}
	handle, ok := stringField(fields, fieldSessionHandle)
	if !ok {
		ReturnError(w, h.log, func() (int, ErrorResponse) { return BadRequestField(fieldSessionHandle) })
		return outcomeBadRequest
	}

	token, err := h.tokens.IssueAccessToken(r.Context(), handle)
	switch {
	case err == nil:
		RespondJSONAndLog(w, h.log, http.StatusOK, TokenResponse{
			Status:      string(jwtdata.StatusOK),
			AccessToken: token,
		})
		return outcomeOK
	case errors.Is(err, jwtdata.ErrUnauthorized):
		RespondJSONAndLog(w, h.log, http.StatusOK, TokenResponse{
			Status:  string(jwtdata.StatusUnauthorised),
			Message: unauthorisedMessage(err),
		})
		return outcomeUnauthorised
	case errors.Is(err, jwtdata.ErrTokenIssuanceDisabled):
		ReturnError(w, h.log, TokenIssuanceDisabled)
		return outcomeBadRequest
	default:
		return h.directoryError(w, r, err)
	}
}

// Claims serves GET /jwt/claims. It expects claims on the context, as put
// there by a bearer-token guard.
func (h *Handler) Claims(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	outcome := outcomeOK
	claims, ok := jwt.ClaimsFromContext(r.Context())
	switch {
	case r.Method != http.MethodGet:
		rec.Header().Set("Allow", "GET")
		ReturnError(rec, h.log, MethodNotAllowed)
		outcome = outcomeBadRequest
	case !ok:
		ReturnError(rec, h.log, UnauthorizedInvalidToken)
		outcome = outcomeUnauthorised
	default:
		RespondJSONAndLog(rec, h.log, http.StatusOK, claims)
	}

	h.logAccess(r, rec.status, outcome, start)
}

// Health serves GET /health. Without a checker it only reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health == nil {
		RespondJSONAndLog(w, h.log, http.StatusOK, HealthResponse{Status: "ok"})
		return
	}

	latency, err := h.health.Health(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("health check failed")
		ReturnError(w, h.log, ServiceUnavailable)
		return
	}

	RespondJSONAndLog(w, h.log, http.StatusOK, HealthResponse{
		Status:    "ok",
		LatencyMS: latency.Milliseconds(),
	})
}

func (h *Handler) respondResult(w http.ResponseWriter, res *jwtdata.PayloadResult, withPayload bool) string {
	if res == nil {
		return h.directoryError(w, nil, errors.New("directory returned no result"))
	}

	if res.Unauthorized() {
		RespondJSONAndLog(w, h.log, http.StatusOK, PayloadResponse{
			Status:  string(jwtdata.StatusUnauthorised),
			Message: res.Message,
		})
		return outcomeUnauthorised
	}

	resp := PayloadResponse{Status: string(jwtdata.StatusOK)}
	if withPayload {
		resp.UserDataInJWT = res.Payload
	}
	RespondJSONAndLog(w, h.log, http.StatusOK, resp)
	return outcomeOK
}

func (h *Handler) directoryError(w http.ResponseWriter, r *http.Request, err error) string {
	switch {
	case errors.Is(err, jwtdata.ErrPayloadTooLarge):
		ReturnError(w, h.log, PayloadTooLarge)
		return outcomeBadRequest
	case errors.Is(err, jwtdata.ErrPayloadInvalid):
		ReturnError(w, h.log, func() (int, ErrorResponse) {
			return BadRequestPayload("Field name '" + fieldUserData + "' must be a JSON object")
		})
		return outcomeBadRequest
	case errors.Is(err, jwtdata.ErrSessionHandleRequired):
		ReturnError(w, h.log, func() (int, ErrorResponse) { return BadRequestField(fieldSessionHandle) })
		return outcomeBadRequest
	case errors.Is(err, jwtdata.ErrRateLimited):
		ReturnError(w, h.log, TooManyRequests)
		return outcomeThrottled
	}

	ev := h.log.Error().Err(err)
	if r != nil {
		ev = ev.Str("request_id", jwtdata.RequestIDFromContext(r.Context()))
	}
	ev.Msg("payload directory failure")
	ReturnError(w, h.log, InternalServerError)
	return outcomeError
}

// decodeObject reads the body as one JSON object. The returned func is
// non-nil when the body must be rejected.
func (h *Handler) decodeObject(w http.ResponseWriter, r *http.Request) (map[string]json.RawMessage, func() (int, ErrorResponse)) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, PayloadTooLarge
		}
		return nil, BadRequestInvalidJSON
	}

	var fields map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return nil, BadRequestInvalidJSON
	}
	if dec.More() {
		return nil, BadRequestInvalidJSON
	}

	return fields, nil
}

func (h *Handler) logAccess(r *http.Request, status int, outcome string, start time.Time) {
	ev := h.log.Info()
	if status >= http.StatusInternalServerError {
		ev = h.log.Warn()
	}

	version := "-"
	if v, ok := protocol.FromContext(r.Context()); ok {
		version = v.String()
	}

	ev.Str("request_id", jwtdata.RequestIDFromContext(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("version", version).
		Int("status", status).
		Str("outcome", outcome).
		Dur("duration", time.Since(start)).
		Msg("request")
}

// payloadAccessAllowed applies the version gate. A request that never went
// through negotiation is treated as the latest version.
func payloadAccessAllowed(ctx context.Context) bool {
	v, ok := protocol.FromContext(ctx)
	if !ok {
		v = protocol.Latest()
	}
	return v.SupportsPayloadAccess()
}

func versionNotSupported() (int, ErrorResponse) {
	return BadRequestVersion(jwtdata.ErrVersionNotSupported.Error())
}

func stringField(fields map[string]json.RawMessage, name string) (string, bool) {
	raw, ok := fields[name]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return "", false
	}
	return s, true
}

func objectField(fields map[string]json.RawMessage, name string) (json.RawMessage, bool) {
	raw, ok := fields[name]
	if !ok {
		return nil, false
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	return json.RawMessage(trimmed), true
}

// unauthorisedMessage strips the sentinel prefix from a joined unauthorized
// error, leaving the reason.
func unauthorisedMessage(err error) string {
	switch {
	case errors.Is(err, jwtdata.ErrSessionExpired):
		return jwtdata.ErrSessionExpired.Error()
	case errors.Is(err, jwtdata.ErrSessionNotFound):
		return jwtdata.ErrSessionNotFound.Error()
	default:
		return jwtdata.ErrUnauthorized.Error()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
