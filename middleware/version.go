package middleware

import (
	"net/http"
	"slices"

	"github.com/MrEthical07/jwtdata/api"
	"github.com/MrEthical07/jwtdata/protocol"
)

// VersionHeader carries the client's protocol version.
const VersionHeader = "cdi-version"

// Negotiate resolves the request's protocol version and attaches it with
// [protocol.WithVersion].
//
// A request without the header gets def. A version that does not parse or is
// not in supported is rejected with 400 before the next handler runs. Whether
// the version may use a given operation is decided downstream.
func Negotiate(supported []protocol.Version, def protocol.Version) func(http.Handler) http.Handler {
	allowed := slices.Clone(supported)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(VersionHeader)
			v := def
			if raw != "" {
				parsed, err := protocol.Parse(raw)
				if err != nil || !slices.Contains(allowed, parsed) {
					writeError(w, func() (int, api.ErrorResponse) {
						return api.BadRequestVersion(VersionHeader + " " + raw + " not supported")
					})
					return
				}
				v = parsed
			}

			next.ServeHTTP(w, r.WithContext(protocol.WithVersion(r.Context(), v)))
		})
	}
}
