package authhandler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"clinic/internal/domain/auth"
	"clinic/internal/domain/dashboard"
	"clinic/internal/platform/clinicapi"
	"clinic/internal/platform/metrics"
	"clinic/internal/transport/http/api"
	"clinic/internal/transport/http/middleware"
)

const (
	MessageLoggedIn          = "Kirildi!"
	MessageLoggedOut         = "Tizimdan chiqildi"
	MessageInvalidLogin      = "Invalid username or password"
	MessageUpstreamError     = "Error connecting to server"
	MessageForgotPassword    = "Parolni tiklash uchun klinika mamuriga murojaat qiling."
	messageSessionLookupFail = "failed to load session"
)

type Handler struct {
	Auth      *auth.Service
	Metrics   *metrics.Collector
	ImageURL  func(string) string
	RateLimit int
}

func NewHandler(svc *auth.Service, collector *metrics.Collector, imageURL func(string) string, rateLimit int) *Handler {
	return &Handler{Auth: svc, Metrics: collector, ImageURL: imageURL, RateLimit: rateLimit}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.With(middleware.LoginRateLimit(h.RateLimit, time.Minute)).Post("/login", h.HandleLogin)
		r.Post("/logout", h.HandleLogout)
		r.Get("/session", h.HandleSession)
		r.Post("/forgot-password", h.HandleForgotPassword)
	})
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expiresAt"`
	Message   string            `json:"message"`
	Profile   dashboard.Profile `json:"profile"`
}

type sessionResponse struct {
	IsLoggedIn bool               `json:"isLoggedIn"`
	ExpiresAt  *time.Time         `json:"expiresAt,omitempty"`
	Profile    *dashboard.Profile `json:"profile,omitempty"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if err := api.DecodeJSON(r, &payload); err != nil {
		api.FailDecode(w, err, reqID)
		return
	}

	token, sess, err := h.Auth.Login(r.Context(), payload.Login, payload.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrAmbiguousCredentials):
		if errors.Is(err, auth.ErrAmbiguousCredentials) {
			slog.Warn("login matched several employees", "requestId", reqID, "login", payload.Login)
		}
		h.Metrics.LoginFailed()
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", MessageInvalidLogin, reqID)
		return
	case errors.Is(err, clinicapi.ErrUpstream):
		slog.Warn("employee lookup failed", "requestId", reqID, "err", err)
		h.Metrics.UpstreamFailed()
		api.Fail(w, http.StatusBadGateway, "upstream_error", MessageUpstreamError, reqID)
		return
	case err != nil:
		slog.Warn("login failed", "requestId", reqID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "session_error", "failed to start session", reqID)
		return
	}

	h.Metrics.LoginSucceeded()
	api.Success(w, loginResponse{
		Token:     token,
		ExpiresAt: sess.ExpiresAt,
		Message:   MessageLoggedIn,
		Profile:   dashboard.BuildProfile(sess.Profile, h.ImageURL),
	}, reqID)
}

// HandleLogout always answers with the logged-out message; a missing or
// already revoked session is not an error for the client.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	if user, ok := middleware.GetUser(r.Context()); ok {
		if err := h.Auth.Logout(r.Context(), user); err != nil && !errors.Is(err, auth.ErrSessionNotFound) {
			slog.Warn("logout session revoke failed", "requestId", reqID, "employeeId", user.EmployeeID, "err", err)
		}
	}
	api.Info(w, MessageLoggedOut, reqID)
}

func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Success(w, sessionResponse{IsLoggedIn: false}, reqID)
		return
	}
	sess, err := h.Auth.Resolve(r.Context(), user)
	if errors.Is(err, auth.ErrSessionNotFound) {
		api.Success(w, sessionResponse{IsLoggedIn: false}, reqID)
		return
	}
	if err != nil {
		slog.Warn("session lookup failed", "requestId", reqID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "session_error", messageSessionLookupFail, reqID)
		return
	}
	profile := dashboard.BuildProfile(sess.Profile, h.ImageURL)
	expires := sess.ExpiresAt
	api.Success(w, sessionResponse{IsLoggedIn: true, ExpiresAt: &expires, Profile: &profile}, reqID)
}

func (h *Handler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	api.Info(w, MessageForgotPassword, middleware.GetRequestID(r.Context()))
}
