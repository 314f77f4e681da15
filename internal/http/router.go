package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/omniagentpay/application-layer-sub001/internal/abuse"
	"github.com/omniagentpay/application-layer-sub001/internal/http/handler"
	"github.com/omniagentpay/application-layer-sub001/internal/http/middleware"
	"github.com/omniagentpay/application-layer-sub001/internal/security"
)

// NewRouter assembles the control-plane surface. The abuse guard wraps every
// /api/v1 route so blocked clients are rejected before guard evaluation or
// backend work.
func NewRouter(
	intents *handler.IntentHandler,
	guards *handler.GuardHandler,
	tracker abuse.Tracker,
	parser *security.TokenParser,
) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity(parser))
		r.Use(middleware.AbuseGuard(tracker))

		r.Route("/intents", func(r chi.Router) {
			r.Post("/", intents.Create)
			r.Get("/", intents.List)
			r.Get("/{id}", intents.Get)
			r.Post("/{id}/simulate", intents.Simulate)
			r.Post("/{id}/execute", intents.Execute)
			r.Post("/{id}/confirm", intents.Confirm)
			r.Post("/{id}/reset", intents.Reset)
		})
		r.Route("/guards", func(r chi.Router) {
			r.Get("/", guards.List)
			r.Put("/", guards.Save)
		})
	})

	return r
}
