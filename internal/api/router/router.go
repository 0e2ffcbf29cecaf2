// Package router assembles the chi route tree for the API server.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/caseflowhq/caseflow/internal/appointments"
	"github.com/caseflowhq/caseflow/internal/calendar"
	"github.com/caseflowhq/caseflow/internal/clients"
	"github.com/caseflowhq/caseflow/internal/docexport"
	httpmiddleware "github.com/caseflowhq/caseflow/internal/http/middleware"
	"github.com/caseflowhq/caseflow/internal/knowledge"
	"github.com/caseflowhq/caseflow/internal/messaging"
	"github.com/caseflowhq/caseflow/internal/reports"
	"github.com/caseflowhq/caseflow/internal/resources"
	"github.com/caseflowhq/caseflow/internal/sessions"
	"github.com/caseflowhq/caseflow/pkg/logging"
)

// Config holds router configuration. Nil handlers leave their routes
// unregistered so the server can come up with partial infrastructure.
type Config struct {
	Logger *logging.Logger

	CalendarHandler     *calendar.Handler
	CalendarOAuth       *calendar.OAuthHandler
	ClientsHandler      *clients.Handler
	AppointmentsHandler *appointments.Handler
	SessionsHandler     *sessions.Handler
	MessagingHandler    *messaging.Handler
	MessagingHub        *messaging.Hub
	KnowledgeHandler    *knowledge.Handler
	ResourcesHandler    *resources.Handler
	ExportHandler       *docexport.Handler
	ReportsHandler      *reports.Handler

	MetricsHandler http.Handler

	StaffAuthSecret    string
	CORSAllowedOrigins []string
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates a chi router with all routes configured.
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
	if cfg.RateLimitPerSecond > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
	}

	// Public endpoints: health, metrics, OAuth browser flow.
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.CalendarOAuth != nil {
			public.Route("/google-calendar", func(r chi.Router) {
				r.Get("/connect", cfg.CalendarOAuth.Connect)
				r.Get("/callback", cfg.CalendarOAuth.Callback)
				r.Get("/status", cfg.CalendarOAuth.Status)
				r.Delete("/status", cfg.CalendarOAuth.Disconnect)
			})
		}
	})

	// Staff endpoints; JWT-guarded when a secret is configured.
	r.Group(func(staff chi.Router) {
		if cfg.StaffAuthSecret != "" {
			staff.Use(httpmiddleware.StaffJWT(cfg.StaffAuthSecret))
		}

		if cfg.CalendarHandler != nil {
			staff.Route("/calendar", func(r chi.Router) {
				r.Post("/sync-appointment", cfg.CalendarHandler.SyncAppointment)
				r.Post("/sync-existing", cfg.CalendarHandler.SyncExisting)
			})
		}

		if cfg.ClientsHandler != nil {
			staff.Route("/clients", func(r chi.Router) {
				r.Post("/", cfg.ClientsHandler.Create)
				r.Get("/", cfg.ClientsHandler.List)
				r.Get("/{id}", cfg.ClientsHandler.Get)
				r.Put("/{id}", cfg.ClientsHandler.Update)
				r.Delete("/{id}", cfg.ClientsHandler.Delete)
			})
		}

		if cfg.AppointmentsHandler != nil {
			staff.Route("/appointments", func(r chi.Router) {
				r.Post("/", cfg.AppointmentsHandler.Create)
				r.Get("/", cfg.AppointmentsHandler.List)
				r.Get("/{id}", cfg.AppointmentsHandler.Get)
				r.Put("/{id}", cfg.AppointmentsHandler.Update)
				r.Post("/{id}/status", cfg.AppointmentsHandler.ChangeStatus)
				r.Delete("/{id}", cfg.AppointmentsHandler.Delete)
			})
		}

		if cfg.SessionsHandler != nil {
			staff.Route("/sessions", func(r chi.Router) {
				r.Post("/", cfg.SessionsHandler.Create)
				r.Get("/", cfg.SessionsHandler.ListByClient)
				r.Get("/{id}", cfg.SessionsHandler.Get)
				r.Delete("/{id}", cfg.SessionsHandler.Delete)
			})
		}

		if cfg.MessagingHandler != nil {
			staff.Route("/messages", func(r chi.Router) {
				r.Post("/", cfg.MessagingHandler.Post)
				r.Get("/", cfg.MessagingHandler.ListThread)
				if cfg.MessagingHub != nil {
					r.Get("/ws", cfg.MessagingHub.Subscribe)
				}
			})
		}

		if cfg.KnowledgeHandler != nil {
			staff.Route("/knowledge", func(r chi.Router) {
				r.Post("/", cfg.KnowledgeHandler.Save)
				r.Get("/", cfg.KnowledgeHandler.List)
				r.Get("/{id}", cfg.KnowledgeHandler.Get)
				r.Delete("/{id}", cfg.KnowledgeHandler.Delete)
			})
		}

		if cfg.ResourcesHandler != nil {
			staff.Route("/resources", func(r chi.Router) {
				r.Post("/", cfg.ResourcesHandler.PrepareUpload)
				r.Get("/", cfg.ResourcesHandler.List)
				r.Get("/download", cfg.ResourcesHandler.Download)
				r.Delete("/", cfg.ResourcesHandler.Delete)
			})
		}

		if cfg.ExportHandler != nil {
			staff.Post("/exports/session-doc", cfg.ExportHandler.ExportSessionDoc)
		}

		if cfg.ReportsHandler != nil {
			staff.Get("/reports/dashboard", cfg.ReportsHandler.GetDashboard)
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
