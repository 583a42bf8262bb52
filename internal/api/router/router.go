// Package router assembles the HTTP surface of the platform.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fieldpilot/fieldops-ai-platform/internal/http/handlers"
	httpmiddleware "github.com/fieldpilot/fieldops-ai-platform/internal/http/middleware"
	"github.com/fieldpilot/fieldops-ai-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	VAPIWebhooks       *handlers.VAPIWebhookHandler
	Process            *handlers.ProcessHandler
	AdminIntake        *handlers.AdminIntakeHandler
	AdminBilling       *handlers.AdminBillingHandler
	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	WebhookRateLimit   float64
	WebhookRateBurst   int
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (webhooks, health, metrics).
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.VAPIWebhooks != nil {
			rate := cfg.WebhookRateLimit
			burst := cfg.WebhookRateBurst
			if rate <= 0 {
				rate = 25
			}
			if burst <= 0 {
				burst = 50
			}
			public.With(httpmiddleware.RateLimit(rate, burst)).Post("/webhooks/vapi", cfg.VAPIWebhooks.Handle)
		}
		if cfg.Process != nil {
			public.Post("/api/vapi/process", cfg.Process.Handle)
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Admin surface, protected by JWT.
	if cfg.AdminIntake != nil || cfg.AdminBilling != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			if cfg.AdminIntake != nil {
				admin.Get("/calls", cfg.AdminIntake.ListCalls)
				admin.Get("/calls/{callID}", cfg.AdminIntake.GetCall)
				admin.Get("/appointments", cfg.AdminIntake.ListAppointments)
			}
			if cfg.AdminBilling != nil {
				admin.Post("/invoices", cfg.AdminBilling.CreateInvoice)
				admin.Post("/estimates", cfg.AdminBilling.CreateEstimate)
			}
		})
	}

	return r
}
