package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"coachlink/infrastructure"
	"coachlink/internal/auth"
	"coachlink/internal/chat"
	"coachlink/internal/user"
)

const defaultRPS = 50

// Server assembles the HTTP surface: auth routes, user routes, the chat
// gateway and a health probe, behind logging and rate limiting.
type Server struct {
	router *mux.Router
	logger *slog.Logger
	addr   string
}

func NewServer(
	addr string,
	authHandler *auth.JSONHandler,
	userHandler *user.JSONHandler,
	chatHandler *chat.Handler,
	authenticate func(http.Handler) http.Handler,
	logger *slog.Logger,
) *Server {
	r := mux.NewRouter()
	r.Use(LoggingMiddleware(logger))
	r.Use(RateLimitMiddleware(defaultRPS))

	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	auth.SetupRoutes(r, authHandler, authenticate)
	user.SetupRoutes(r, userHandler, authenticate)
	r.Handle("/chat", chatHandler).Methods(http.MethodGet)

	return &Server{router: r, logger: logger, addr: addr}
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) ListenAndServe() error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	s.logger.Info("server listening", "addr", s.addr)
	return srv.ListenAndServe()
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	infrastructure.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
