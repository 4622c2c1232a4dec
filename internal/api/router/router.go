package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/andeslabs/eventos-platform/internal/clients"
	"github.com/andeslabs/eventos-platform/internal/conversation"
	httpmiddleware "github.com/andeslabs/eventos-platform/internal/http/middleware"
	"github.com/andeslabs/eventos-platform/internal/messaging"
	"github.com/andeslabs/eventos-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	WebhookHandler      *messaging.Handler
	ChannelHandler      *messaging.ChannelHandler
	ConversationHandler *conversation.Handler
	ClientsHandler      *clients.Handler
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string
}

// New creates a new Chi router with all routes configured
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

	// Public endpoints (provider webhooks, health checks)
	r.Group(func(public chi.Router) {
		public.Get("/health", cfg.WebhookHandler.HealthCheck)
		public.Route("/webhooks/whatsapp", func(r chi.Router) {
			r.Get("/", cfg.WebhookHandler.Verify)
			r.Post("/", cfg.WebhookHandler.Receive)
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Operator API
	r.Route("/api", func(api chi.Router) {
		if cfg.ChannelHandler != nil {
			api.Route("/channel", func(r chi.Router) {
				r.Get("/status", cfg.ChannelHandler.Status)
				r.Post("/connect", cfg.ChannelHandler.Connect)
				r.Post("/disconnect", cfg.ChannelHandler.Disconnect)
			})
		}
		if cfg.ConversationHandler != nil {
			api.Route("/conversations", func(r chi.Router) {
				r.Get("/", cfg.ConversationHandler.List)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", cfg.ConversationHandler.Get)
					r.Post("/messages", cfg.ConversationHandler.SendMessage)
					r.Post("/assign", cfg.ConversationHandler.Assign)
					r.Post("/status", cfg.ConversationHandler.UpdateStatus)
					if cfg.ClientsHandler != nil {
						r.Post("/convert", cfg.ClientsHandler.Convert)
					}
				})
			})
		}
		if cfg.ClientsHandler != nil {
			api.Route("/clients", func(r chi.Router) {
				r.Get("/", cfg.ClientsHandler.List)
				r.Get("/{id}", cfg.ClientsHandler.Get)
			})
		}
	})

	return r
}
