package middleware

import (
	"net/http"

	"github.com/omniagentpay/application-layer-sub001/internal/abuse"
	"github.com/omniagentpay/application-layer-sub001/internal/http/response"
	"github.com/omniagentpay/application-layer-sub001/internal/observability"
)

// AbuseGuard rejects requests from blocked clients before any guard
// evaluation or backend work. Either keyspace being flagged blocks the
// request. The response is deliberately generic: thresholds and counters are
// not revealed.
func AbuseGuard(tracker abuse.Tracker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ipKey, subKey := ClientKeys(r)
			if tracker.IsBlocked(r.Context(), ipKey) {
				observability.AbuseBlocks.WithLabelValues("ip").Inc()
				response.Error(w, r, http.StatusTooManyRequests, "BLOCKED", "request blocked", nil)
				return
			}
			if subKey != "" && tracker.IsBlocked(r.Context(), subKey) {
				observability.AbuseBlocks.WithLabelValues("sub").Inc()
				response.Error(w, r, http.StatusTooManyRequests, "BLOCKED", "request blocked", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
