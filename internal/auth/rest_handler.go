package auth

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"coachlink/infrastructure"
	"coachlink/internal/user"
	"coachlink/pkg/jwt"
)

type JSONHandler struct {
	service *Service
	cookies CookieConfig
}

func NewJSONHandler(service *Service, cookies CookieConfig) *JSONHandler {
	return &JSONHandler{service: service, cookies: cookies}
}

func (h *JSONHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FirstName string    `json:"firstName"`
		LastName  string    `json:"lastName"`
		Email     string    `json:"email"`
		Password  string    `json:"password"`
		Role      user.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		infrastructure.WriteError(w, infrastructure.ErrInvalidInput)
		return
	}

	pair, publicUser, err := h.service.Register(r.Context(), RegisterParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}

	h.cookies.setPair(w, pair)
	infrastructure.WriteJSON(w, http.StatusOK, map[string]any{"user": publicUser})
}

func (h *JSONHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		infrastructure.WriteError(w, infrastructure.ErrInvalidInput)
		return
	}

	pair, publicUser, err := h.service.Login(r.Context(), LoginParams{
		Email:     req.Email,
		Password:  req.Password,
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}

	h.cookies.setPair(w, pair)
	infrastructure.WriteJSON(w, http.StatusOK, map[string]any{"user": publicUser})
}

func (h *JSONHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(RefreshTokenCookie)
	if err != nil || cookie.Value == "" {
		infrastructure.WriteError(w, infrastructure.ErrUnauthorized)
		return
	}

	result, err := h.service.Refresh(r.Context(), cookie.Value)
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}

	h.cookies.setAccessToken(w, result.AccessToken)
	if result.RefreshToken != "" {
		h.cookies.setRefreshToken(w, result.RefreshToken)
	}
	infrastructure.WriteJSON(w, http.StatusOK, map[string]string{"accessToken": result.AccessToken})
}

func (h *JSONHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	codeID, err := uuid.Parse(mux.Vars(r)["code"])
	if err != nil {
		infrastructure.WriteError(w, infrastructure.ErrNotFound)
		return
	}

	publicUser, err := h.service.VerifyEmail(r.Context(), codeID)
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, map[string]any{"user": publicUser})
}

// ForgotPassword always answers with the same generic acknowledgement; see
// Service.RequestPasswordReset.
func (h *JSONHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		infrastructure.WriteError(w, infrastructure.ErrInvalidInput)
		return
	}

	h.service.RequestPasswordReset(r.Context(), req.Email)
	infrastructure.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "If that email is registered, a reset link has been sent",
	})
}

func (h *JSONHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code     string `json:"verificationCode"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		infrastructure.WriteError(w, infrastructure.ErrInvalidInput)
		return
	}

	codeID, err := uuid.Parse(req.Code)
	if err != nil {
		infrastructure.WriteError(w, infrastructure.ErrNotFound)
		return
	}

	publicUser, err := h.service.ResetPassword(r.Context(), codeID, req.Password)
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, map[string]any{"user": publicUser})
}

func (h *JSONHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwt.FromContext(r.Context())
	if !ok {
		infrastructure.WriteError(w, infrastructure.ErrUnauthorized)
		return
	}

	if err := h.service.Logout(r.Context(), claims.SessionID); err != nil {
		infrastructure.WriteError(w, err)
		return
	}

	h.cookies.clear(w)
	infrastructure.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// SetupRoutes mounts the auth surface. Only the logout route requires an
// authenticated request.
func SetupRoutes(r *mux.Router, h *JSONHandler, authenticate func(http.Handler) http.Handler) {
	r.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/auth/refresh", h.Refresh).Methods(http.MethodGet)
	r.HandleFunc("/auth/email/verify/{code}", h.VerifyEmail).Methods(http.MethodGet)
	r.HandleFunc("/auth/password/forgot", h.ForgotPassword).Methods(http.MethodPost)
	r.HandleFunc("/auth/password/reset", h.ResetPassword).Methods(http.MethodPost)
	r.Handle("/auth/logout", authenticate(http.HandlerFunc(h.Logout))).Methods(http.MethodGet)
}
