package dashboardhandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"clinic/internal/domain/dashboard"
	"clinic/internal/domain/orders"
	"clinic/internal/domain/session"
	"clinic/internal/platform/clinicapi"
	"clinic/internal/platform/metrics"
	"clinic/internal/transport/http/middleware"
)

type fakeSource struct {
	orders []clinicapi.Order
	err    error
}

func (f fakeSource) ListOrders(context.Context) ([]clinicapi.Order, error) {
	return f.orders, f.err
}

const ordersPayload = `[
  {"_id":"o1","categoryId":{"_id":"c1"},"date":"2024-03-05T10:00:00Z","services":[{"name":"EKG","price":50000}],"status":"TUGATILDI"},
  {"_id":"o2","categoryId":{"_id":"c1"},"date":"2024-03-20T10:00:00Z","services":[{"name":"UZI","price":120000}]},
  {"_id":"o3","categoryId":{"_id":"c2"},"date":"2024-03-05T11:00:00Z","services":[{"name":"Rentgen","price":90000}]},
  {"_id":"o4","categoryId":{"_id":"c1"},"date":"2024-04-01T10:00:00Z","services":[]}
]`

func newHandler(t *testing.T, src fakeSource) *Handler {
	t.Helper()
	h := NewHandler(orders.NewService(src), time.UTC, nil, metrics.New())
	h.Now = func() time.Time { return time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC) }
	return h
}

func fixtureOrders(t *testing.T) []clinicapi.Order {
	t.Helper()
	var list []clinicapi.Order
	if err := json.Unmarshal([]byte(ordersPayload), &list); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	return list
}

func request(target string, withSession bool) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if withSession {
		req = req.WithContext(middleware.WithSession(req.Context(), session.Session{EmployeeID: "e1", CategoryID: "c1"}))
	}
	return req
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) dashboard.View {
	t.Helper()
	var env struct {
		Data dashboard.View `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v (%s)", err, rec.Body.String())
	}
	return env.Data
}

func TestDashboardDefaultsToToday(t *testing.T) {
	h := newHandler(t, fakeSource{orders: fixtureOrders(t)})
	rec := httptest.NewRecorder()
	h.handleDashboard(rec, request("/dashboard", true))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d %s", rec.Code, rec.Body.String())
	}
	view := decodeView(t, rec)
	if view.Stat.Label != "Bugungi Buyurtmalar" || view.Stat.Value != 1 {
		t.Fatalf("unexpected stat: %+v", view.Stat)
	}
	if len(view.Orders) != 1 || view.Orders[0].ID != "o1" {
		t.Fatalf("expected only this category's order of the day, got %+v", view.Orders)
	}
}

func TestDashboardMonthly(t *testing.T) {
	h := newHandler(t, fakeSource{orders: fixtureOrders(t)})
	rec := httptest.NewRecorder()
	h.handleDashboard(rec, request("/dashboard?mode=monthly&month=2024-03", true))

	view := decodeView(t, rec)
	if view.Stat.Label != "Mart Buyurtmalari" || view.Stat.Value != 2 {
		t.Fatalf("unexpected stat: %+v", view.Stat)
	}
	if len(view.Months) != 2 {
		t.Fatalf("expected two month options, got %+v", view.Months)
	}
}

func TestDashboardYearlyEmpty(t *testing.T) {
	h := newHandler(t, fakeSource{orders: fixtureOrders(t)})
	rec := httptest.NewRecorder()
	h.handleDashboard(rec, request("/dashboard?mode=yearly&date=2023-01-01", true))

	view := decodeView(t, rec)
	if !view.Empty || view.EmptyMessage != dashboard.EmptyMessage || view.Stat.Label != "2023 Yil Buyurtmalari" {
		t.Fatalf("unexpected view: %+v", view)
	}
}

func TestDashboardValidation(t *testing.T) {
	h := newHandler(t, fakeSource{})
	rec := httptest.NewRecorder()
	h.handleDashboard(rec, request("/dashboard?mode=weekly&month=2024-13", true))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"field":"mode"`) || !strings.Contains(body, `"field":"month"`) {
		t.Fatalf("expected both fields reported, got %s", body)
	}
}

func TestDashboardUpstreamFailure(t *testing.T) {
	h := newHandler(t, fakeSource{err: errors.Join(clinicapi.ErrUpstream, errors.New("timeout"))})
	rec := httptest.NewRecorder()
	h.handleDashboard(rec, request("/dashboard", true))

	if rec.Code != http.StatusBadGateway || !strings.Contains(rec.Body.String(), MessageOrdersUnavailable) {
		t.Fatalf("unexpected response: %d %s", rec.Code, rec.Body.String())
	}
	if h.Metrics.Snapshot()["upstreamFailuresTotal"] != uint64(1) {
		t.Fatal("expected upstream failure to be counted")
	}
}

func TestDashboardRequiresSession(t *testing.T) {
	h := newHandler(t, fakeSource{})
	rec := httptest.NewRecorder()
	h.handleDashboard(rec, request("/dashboard", false))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestReportPDF(t *testing.T) {
	h := newHandler(t, fakeSource{orders: fixtureOrders(t)})
	rec := httptest.NewRecorder()
	h.handleReport(rec, request("/dashboard/report.pdf?mode=monthly&month=2024-3", true))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("unexpected content type: %s", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "buyurtmalar-2024-3.pdf") {
		t.Fatalf("unexpected disposition: %s", rec.Header().Get("Content-Disposition"))
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF-") {
		t.Fatal("expected PDF body")
	}
}
