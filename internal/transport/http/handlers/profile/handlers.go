package profilehandler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clinic/internal/domain/dashboard"
	"clinic/internal/transport/http/api"
	"clinic/internal/transport/http/middleware"
)

const MessageEditNotImplemented = "Profilni tahrirlash hali amalga oshirilmagan. Administrator bilan bog'laning."

type Handler struct {
	ImageURL func(string) string
}

func NewHandler(imageURL func(string) string) *Handler {
	return &Handler{ImageURL: imageURL}
}

// RegisterRoutes expects r to already require a live session.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/profile", h.handleGet)
	r.Put("/profile", h.handleUpdate)
}

type profileResponse struct {
	Card   dashboard.Profile `json:"card"`
	Record json.RawMessage   `json:"record"`
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	record, err := json.Marshal(sess.Profile)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "profile_error", "failed to encode profile", reqID)
		return
	}
	api.Success(w, profileResponse{
		Card:   dashboard.BuildProfile(sess.Profile, h.ImageURL),
		Record: record,
	}, reqID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	api.Fail(w, http.StatusNotImplemented, "not_implemented", MessageEditNotImplemented, middleware.GetRequestID(r.Context()))
}
