package reportshandler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"kpitrack/internal/domain/reports"
	"kpitrack/internal/transport/http/api"
	"kpitrack/internal/transport/http/middleware"
	"kpitrack/internal/transport/http/shared"
)

type Handler struct {
	Service *reports.Service
}

func NewHandler(service *reports.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Get("/branches/{branchID}", h.handleBranchReport)
		r.Get("/kpis/{kpiID}", h.handleKpiReport)
		r.Get("/employees/{employeeID}/summary", h.handleEmployeeSummary)
	})
}

func (h *Handler) handleBranchReport(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.parseRange(w, r)
	if !ok {
		return
	}
	opts := reports.BranchReportOptions{
		Period: r.URL.Query().Get("period"),
		From:   from,
		To:     to,
	}
	if raw := r.URL.Query().Get("includeMetadata"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid includeMetadata flag", middleware.GetRequestID(r.Context()))
			return
		}
		opts.SummariesOnly = !include
	}
	report, err := h.Service.BranchReport(r.Context(), chi.URLParam(r, "branchID"), opts)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, report, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleKpiReport(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.parseRange(w, r)
	if !ok {
		return
	}
	report, err := h.Service.KpiReport(r.Context(), chi.URLParam(r, "kpiID"), from, to)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, report, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleEmployeeSummary(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.parseRange(w, r)
	if !ok {
		return
	}
	summary, err := h.Service.EmployeeSummary(r.Context(), chi.URLParam(r, "employeeID"), from, to)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) parseRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	query := r.URL.Query()
	from, err := shared.ParseDate(query.Get("from"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid from date", middleware.GetRequestID(r.Context()))
		return time.Time{}, time.Time{}, false
	}
	to, err := shared.ParseDate(query.Get("to"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid to date", middleware.GetRequestID(r.Context()))
		return time.Time{}, time.Time{}, false
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "to date before from date", middleware.GetRequestID(r.Context()))
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := shared.StatusForError(err)
	api.Fail(w, status, code, err.Error(), middleware.GetRequestID(r.Context()))
}
