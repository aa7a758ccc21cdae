package middleware

import (
	"net/http"
	"strings"

	"github.com/MrEthical07/jwtdata/api"
	"github.com/MrEthical07/jwtdata/jwt"
)

// TokenParser verifies an access token. [jwtdata.Engine] implements it.
type TokenParser interface {
	ParseAccessToken(token string) (*jwt.AccessClaims, error)
}

// RequireAccessToken verifies the bearer token with parser and injects its
// claims, readable with [jwt.ClaimsFromContext]. Verification is stateless;
// the session is not re-read.
func RequireAccessToken(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if parser == nil {
				writeError(w, api.UnauthorizedInvalidToken)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeError(w, func() (int, api.ErrorResponse) {
					return api.NewError(http.StatusUnauthorized, api.ErrAuthRequired, "missing bearer token")
				})
				return
			}

			claims, err := parser.ParseAccessToken(token)
			if err != nil {
				writeError(w, api.UnauthorizedInvalidToken)
				return
			}

			next.ServeHTTP(w, r.WithContext(jwt.WithClaims(r.Context(), claims)))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}

// writeError ignores encoding failures; the status line is already out.
func writeError(w http.ResponseWriter, errorFunc func() (int, api.ErrorResponse)) {
	status, resp := errorFunc()
	_ = api.RespondJSON(w, status, resp)
}
