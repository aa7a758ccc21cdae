package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/MrEthical07/jwtdata"
)

// RequestIDHeader is honoured on input and always set on output.
const RequestIDHeader = "X-Request-Id"

const maxRequestIDLen = 128

// RequestContext attaches request id, client IP and, when tenantHeader is
// present on the request, the tenant to the request context.
func RequestContext(tenantHeader string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
			if id == "" || len(id) > maxRequestIDLen {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)

			ctx := jwtdata.WithRequestID(r.Context(), id)
			if ip := clientIP(r.RemoteAddr); ip != "" {
				ctx = jwtdata.WithClientIP(ctx, ip)
			}
			if tenantHeader != "" {
				if tenant := strings.TrimSpace(r.Header.Get(tenantHeader)); tenant != "" {
					ctx = jwtdata.WithTenantID(ctx, tenant)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
