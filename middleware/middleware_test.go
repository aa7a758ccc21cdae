package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/jwtdata"
	"github.com/MrEthical07/jwtdata/api"
	"github.com/MrEthical07/jwtdata/jwt"
	"github.com/MrEthical07/jwtdata/protocol"
)

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*called = true
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestNegotiate(t *testing.T) {
	supported := []protocol.Version{protocol.Version10, protocol.Version21, protocol.Version23}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantV      protocol.Version
	}{
		{name: "absent uses default", header: "", wantStatus: http.StatusNoContent, wantV: protocol.Version23},
		{name: "legacy passes through", header: "1.0", wantStatus: http.StatusNoContent, wantV: protocol.Version10},
		{name: "supported", header: "2.1", wantStatus: http.StatusNoContent, wantV: protocol.Version21},
		{name: "known but not enabled", header: "2.2", wantStatus: http.StatusBadRequest},
		{name: "unknown", header: "9.9", wantStatus: http.StatusBadRequest},
		{name: "garbage", header: "latest", wantStatus: http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got protocol.Version
			var gotOK bool
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, gotOK = protocol.FromContext(r.Context())
				w.WriteHeader(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodGet, "/jwt/data", nil)
			if tc.header != "" {
				req.Header.Set(VersionHeader, tc.header)
			}
			rr := httptest.NewRecorder()
			Negotiate(supported, protocol.Version23)(next).ServeHTTP(rr, req)

			require.Equal(t, tc.wantStatus, rr.Code)
			if tc.wantStatus != http.StatusNoContent {
				var body api.ErrorResponse
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
				assert.Equal(t, "cdi-version "+tc.header+" not supported", body.Details)
				return
			}
			require.True(t, gotOK)
			assert.Equal(t, tc.wantV, got)
		})
	}
}

func TestRequireAPIKey(t *testing.T) {
	tests := []struct {
		name       string
		keys       []string
		header     string
		wantCalled bool
	}{
		{name: "no keys configured", keys: nil, header: "", wantCalled: true},
		{name: "only empty keys configured", keys: []string{""}, header: "", wantCalled: true},
		{name: "matching first key", keys: []string{"k1", "k2"}, header: "k1", wantCalled: true},
		{name: "matching second key", keys: []string{"k1", "k2"}, header: "k2", wantCalled: true},
		{name: "missing header", keys: []string{"k1"}, header: "", wantCalled: false},
		{name: "wrong key", keys: []string{"k1"}, header: "k3", wantCalled: false},
		{name: "prefix of key", keys: []string{"k1-long"}, header: "k1", wantCalled: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			req := httptest.NewRequest(http.MethodGet, "/jwt/data", nil)
			if tc.header != "" {
				req.Header.Set(APIKeyHeader, tc.header)
			}
			rr := httptest.NewRecorder()
			RequireAPIKey(tc.keys)(okHandler(&called)).ServeHTTP(rr, req)

			assert.Equal(t, tc.wantCalled, called)
			if !tc.wantCalled {
				assert.Equal(t, http.StatusUnauthorized, rr.Code)
				assert.JSONEq(t, `{"error":"authentication required","details":"Invalid API key"}`, rr.Body.String())
			}
		})
	}
}

func TestRequestContext(t *testing.T) {
	t.Run("generates id", func(t *testing.T) {
		var requestID string
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID = jwtdata.RequestIDFromContext(r.Context())
			w.WriteHeader(http.StatusNoContent)
		})

		req := httptest.NewRequest(http.MethodGet, "/jwt/data", nil)
		req.RemoteAddr = "10.1.2.3:5555"
		req.Header.Set("X-Tenant-Id", "t1")
		rr := httptest.NewRecorder()
		RequestContext("X-Tenant-Id")(next).ServeHTTP(rr, req)

		require.NotEmpty(t, requestID)
		assert.Equal(t, requestID, rr.Header().Get(RequestIDHeader))
	})

	t.Run("honours incoming id", func(t *testing.T) {
		var requestID string
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID = jwtdata.RequestIDFromContext(r.Context())
		})

		req := httptest.NewRequest(http.MethodGet, "/jwt/data", nil)
		req.Header.Set(RequestIDHeader, "abc")
		rr := httptest.NewRecorder()
		RequestContext("")(next).ServeHTTP(rr, req)

		assert.Equal(t, "abc", requestID)
		assert.Equal(t, "abc", rr.Header().Get(RequestIDHeader))
	})
}

func TestClientIP(t *testing.T) {
	assert.Equal(t, "10.0.0.1", clientIP("10.0.0.1:443"))
	assert.Equal(t, "::1", clientIP("[::1]:80"))
	assert.Equal(t, "pipe", clientIP("pipe"))
}

type fakeParser struct {
	claims *jwt.AccessClaims
	err    error
}

func (f fakeParser) ParseAccessToken(string) (*jwt.AccessClaims, error) {
	return f.claims, f.err
}

func TestRequireAccessToken(t *testing.T) {
	valid := &jwt.AccessClaims{UID: "u1", SID: "abc123"}

	tests := []struct {
		name       string
		parser     TokenParser
		header     string
		wantStatus int
	}{
		{name: "valid", parser: fakeParser{claims: valid}, header: "Bearer tok", wantStatus: http.StatusNoContent},
		{name: "missing header", parser: fakeParser{claims: valid}, header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", parser: fakeParser{claims: valid}, header: "Basic tok", wantStatus: http.StatusUnauthorized},
		{name: "empty token", parser: fakeParser{claims: valid}, header: "Bearer  ", wantStatus: http.StatusUnauthorized},
		{name: "rejected token", parser: fakeParser{err: errors.New("expired")}, header: "Bearer tok", wantStatus: http.StatusUnauthorized},
		{name: "nil parser", parser: nil, header: "Bearer tok", wantStatus: http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got *jwt.AccessClaims
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = jwt.ClaimsFromContext(r.Context())
				w.WriteHeader(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodGet, "/jwt/claims", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			RequireAccessToken(tc.parser)(next).ServeHTTP(rr, req)

			require.Equal(t, tc.wantStatus, rr.Code)
			if tc.wantStatus == http.StatusNoContent {
				assert.Equal(t, valid, got)
			}
		})
	}
}

func TestChainIntoHandler(t *testing.T) {
	dir := &stubDirectory{}
	h := api.NewHandler(dir, zerolog.Nop())

	chain := RequestContext("")(RequireAPIKey([]string{"secret"})(
		Negotiate(protocol.All(), protocol.Latest())(http.HandlerFunc(h.Payload))))

	req := httptest.NewRequest(http.MethodGet, "/jwt/data?sessionHandle=abc123", nil)
	req.Header.Set(APIKeyHeader, "secret")
	req.Header.Set(VersionHeader, "1.0")
	rr := httptest.NewRecorder()
	chain.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"version not supported","details":"CDI version not supported"}`, rr.Body.String())
	assert.Zero(t, dir.calls)
}

type stubDirectory struct {
	calls int
}

func (s *stubDirectory) GetPayload(context.Context, string) (*jwtdata.PayloadResult, error) {
	s.calls++
	return &jwtdata.PayloadResult{Status: jwtdata.StatusOK, Payload: json.RawMessage(`{}`)}, nil
}

func (s *stubDirectory) SetPayload(context.Context, string, json.RawMessage) (*jwtdata.PayloadResult, error) {
	s.calls++
	return &jwtdata.PayloadResult{Status: jwtdata.StatusOK}, nil
}
