package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/MrEthical07/jwtdata/api"
)

// APIKeyHeader carries the shared secret checked by [RequireAPIKey].
const APIKeyHeader = "api-key"

// RequireAPIKey rejects requests whose api-key header matches none of keys.
// With no keys configured every request passes.
func RequireAPIKey(keys []string) func(http.Handler) http.Handler {
	accepted := make([][]byte, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			accepted = append(accepted, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(accepted) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get(APIKeyHeader))
			match := 0
			for _, k := range accepted {
				match |= subtle.ConstantTimeCompare(got, k)
			}
			if match != 1 {
				writeError(w, api.UnauthorizedAPIKey)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
