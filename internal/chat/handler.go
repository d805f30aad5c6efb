package chat

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"coachlink/infrastructure"
	"coachlink/pkg/jwt"
)

// Handler authenticates and upgrades WebSocket connections. A connection
// without a valid accessToken cookie is rejected before the upgrade; there
// is no anonymous mode and no in-band retry — clients reconnect with a
// fresh token obtained through the refresh flow.
type Handler struct {
	tokens   *jwt.Manager
	hub      *Hub
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewHandler(tokens *jwt.Manager, hub *Hub, appOrigin string, logger *slog.Logger) *Handler {
	return &Handler{
		tokens: tokens,
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origin == appOrigin
			},
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("accessToken")
	if err != nil || cookie.Value == "" {
		h.logger.Warn("ws connect without access token cookie", "remote", r.RemoteAddr)
		infrastructure.WriteError(w, infrastructure.ErrUnauthorized)
		return
	}

	claims, err := h.tokens.VerifyAccessToken(cookie.Value)
	if err != nil {
		h.logger.Warn("ws connect with invalid token", "remote", r.RemoteAddr, "error", err)
		infrastructure.WriteError(w, infrastructure.ErrUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the response.
		return
	}

	client := newClient(h.hub, conn, claims.UserID)
	color := h.hub.presence.Assign(client.userID)
	h.logger.Info("ws connected", "userId", claims.UserID, "color", color)

	// The request context dies when this handler returns; the connection
	// outlives it.
	go client.writePump()
	go func() {
		client.readPump(context.Background())
		h.logger.Info("ws disconnected", "userId", claims.UserID)
	}()
}
