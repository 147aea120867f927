package dashboardhandler

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"clinic/internal/domain/dashboard"
	"clinic/internal/domain/orderfilter"
	"clinic/internal/domain/orders"
	"clinic/internal/platform/clinicapi"
	"clinic/internal/platform/metrics"
	"clinic/internal/transport/http/api"
	"clinic/internal/transport/http/middleware"
	"clinic/internal/transport/http/shared"
)

const MessageOrdersUnavailable = "Buyurtmalarni olishda xato yuz berdi"

var allowedModes = []string{string(orderfilter.ModeDaily), string(orderfilter.ModeMonthly), string(orderfilter.ModeYearly)}

type Handler struct {
	Orders   *orders.Service
	Location *time.Location
	ImageURL func(string) string
	Metrics  *metrics.Collector
	Now      func() time.Time
}

func NewHandler(svc *orders.Service, loc *time.Location, imageURL func(string) string, collector *metrics.Collector) *Handler {
	return &Handler{Orders: svc, Location: loc, ImageURL: imageURL, Metrics: collector, Now: time.Now}
}

// RegisterRoutes expects r to already require a live session.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/", h.handleDashboard)
		r.Get("/report.pdf", h.handleReport)
	})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	view, ok := h.buildView(w, r)
	if !ok {
		return
	}
	api.Success(w, view, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	view, ok := h.buildView(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := dashboard.RenderPDF(view, &buf); err != nil {
		slog.Warn("report render failed", "requestId", middleware.GetRequestID(r.Context()), "err", err)
		api.Fail(w, http.StatusInternalServerError, "report_error", "failed to render report", middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", reportFilename(view.Filter)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// buildView writes the error response itself and reports false when it did.
func (h *Handler) buildView(w http.ResponseWriter, r *http.Request) (dashboard.View, bool) {
	reqID := middleware.GetRequestID(r.Context())
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return dashboard.View{}, false
	}

	loc := h.location()
	now := h.Now().In(loc)
	query := r.URL.Query()
	mode, date, month := query.Get("mode"), query.Get("date"), query.Get("month")

	v := shared.NewValidator()
	v.Enum("mode", mode, allowedModes, "must be one of daily, monthly, yearly")
	if date != "" {
		_, err := orderfilter.Parse("", date, "", now)
		v.Check("date", err, "must be a date in YYYY-MM-DD format")
	}
	if month != "" {
		_, _, err := orderfilter.ParseMonthKey(month)
		v.Check("month", err, "must be a month in YYYY-M format")
	}
	if v.Reject(w, reqID) {
		return dashboard.View{}, false
	}

	sel, err := orderfilter.Parse(mode, date, month, now)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_filter", err.Error(), reqID)
		return dashboard.View{}, false
	}

	list, err := h.Orders.ListForCategory(r.Context(), sess.CategoryID)
	if err != nil {
		if errors.Is(err, clinicapi.ErrUpstream) {
			h.Metrics.UpstreamFailed()
		}
		slog.Warn("orders fetch failed", "requestId", reqID, "categoryId", sess.CategoryID, "err", err)
		api.Fail(w, http.StatusBadGateway, "upstream_error", MessageOrdersUnavailable, reqID)
		return dashboard.View{}, false
	}

	return dashboard.Build(sess, list, sel, loc, h.ImageURL), true
}

func (h *Handler) location() *time.Location {
	if h.Location == nil {
		return time.UTC
	}
	return h.Location
}

func reportFilename(f dashboard.FilterState) string {
	switch f.Mode {
	case orderfilter.ModeMonthly:
		return "buyurtmalar-" + f.Month + ".pdf"
	case orderfilter.ModeYearly:
		year := f.Date
		if len(year) >= 4 {
			year = year[:4]
		}
		return "buyurtmalar-" + year + ".pdf"
	default:
		return "buyurtmalar-" + f.Date + ".pdf"
	}
}
