package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/docket-labs/docket/pkg/service/auth"
	"github.com/docket-labs/docket/pkg/service/realtime"
	"github.com/docket-labs/docket/pkg/usecase"
	"github.com/docket-labs/docket/pkg/utils/logging"
)

type Server struct {
	router   *chi.Mux
	uc       *usecase.UseCases
	hub      *realtime.Hub
	verifier *auth.Verifier
	noAuthn  bool
}

type Options func(*Server)

// WithVerifier enables bearer token authentication
func WithVerifier(v *auth.Verifier) Options {
	return func(s *Server) {
		s.verifier = v
	}
}

// WithNoAuthn disables authentication; identities come from request headers.
// For local development only.
func WithNoAuthn(enabled bool) Options {
	return func(s *Server) {
		s.noAuthn = enabled
	}
}

// WithHub attaches the live transport and exposes the websocket endpoint
func WithHub(hub *realtime.Hub) Options {
	return func(s *Server) {
		s.hub = hub
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.authMiddleware())

		r.Get("/conversations", s.listConversations)
		r.Get("/conversations/{caseID}", s.getMessages)

		r.Post("/messages", s.sendMessage)
		r.Put("/messages/read", s.markMessagesRead)
		r.Delete("/messages/{messageID}", s.deleteMessage)

		r.Patch("/cases/{caseID}/status", s.updateCaseStatus)
		r.Get("/cases/{caseID}/timeline", s.getTimeline)

		r.Get("/notifications", s.listNotifications)
		r.Get("/notifications/unread-count", s.notificationUnreadCount)
		r.Patch("/notifications/{notificationID}/read", s.markNotificationRead)
		r.Delete("/notifications/{notificationID}", s.deleteNotification)
	})

	if s.hub != nil {
		r.Get("/ws", s.serveWS)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
