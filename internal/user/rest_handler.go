package user

import (
	"net/http"

	"github.com/gorilla/mux"

	"coachlink/infrastructure"
	"coachlink/pkg/jwt"
)

type JSONHandler struct {
	users Repository
}

func NewJSONHandler(users Repository) *JSONHandler {
	return &JSONHandler{users: users}
}

// Profile returns the authenticated user's own record.
func (h *JSONHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwt.FromContext(r.Context())
	if !ok {
		infrastructure.WriteError(w, infrastructure.ErrUnauthorized)
		return
	}

	found, err := h.users.FindByID(r.Context(), claims.UserID)
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, found.Public())
}

// List returns the member directory used for pairing clients with coaches.
func (h *JSONHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.FindAll(r.Context())
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}

	views := make([]*PublicView, 0, len(users))
	for _, u := range users {
		views = append(views, u.Public())
	}
	infrastructure.WriteJSON(w, http.StatusOK, views)
}

func SetupRoutes(r *mux.Router, h *JSONHandler, authenticate func(http.Handler) http.Handler) {
	r.Handle("/users", authenticate(http.HandlerFunc(h.List))).Methods(http.MethodGet)
	r.Handle("/users/profile", authenticate(http.HandlerFunc(h.Profile))).Methods(http.MethodGet)
}
