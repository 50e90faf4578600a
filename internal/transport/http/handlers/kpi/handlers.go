package kpihandler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"kpitrack/internal/domain/kpi"
	"kpitrack/internal/platform/jobs"
	"kpitrack/internal/transport/http/api"
	"kpitrack/internal/transport/http/middleware"
	"kpitrack/internal/transport/http/shared"
)

type Handler struct {
	Service *kpi.Service
	Jobs    *jobs.Service
}

func NewHandler(service *kpi.Service, jobsService *jobs.Service) *Handler {
	return &Handler{Service: service, Jobs: jobsService}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/kpis", func(r chi.Router) {
		r.Get("/", h.handleListDefinitions)
		r.Post("/", h.handleCreateDefinition)
		r.Get("/{kpiID}", h.handleGetDefinition)
		r.Put("/{kpiID}", h.handleUpdateDefinition)
		r.Delete("/{kpiID}", h.handleDeactivateDefinition)
	})
	r.Route("/records", func(r chi.Router) {
		r.Get("/", h.handleListRecords)
		r.Post("/", h.handleAssign)
		r.Post("/fan-out", h.handleFanOut)
		r.Get("/{recordID}", h.handleGetRecord)
		r.Put("/{recordID}/progress", h.handleUpdateProgress)
		r.Post("/{recordID}/submit", h.handleSubmit)
		r.Post("/{recordID}/decide", h.handleDecide)
		r.Post("/{recordID}/complete", h.handleComplete)
		r.Delete("/{recordID}", h.handleCancel)
	})
	r.Route("/submissions", func(r chi.Router) {
		r.Get("/", h.handleListSubmissions)
		r.Post("/", h.handleSubmitBatch)
		r.Get("/{submissionID}", h.handleGetSubmission)
		r.Post("/{submissionID}/decide", h.handleDecideSubmission)
	})
	r.Route("/ledger", func(r chi.Router) {
		r.Post("/", h.handleAddLedgerEntry)
		r.Get("/{employeeID}", h.handleListLedgerEntries)
	})
	r.Post("/jobs/deadline-scan", h.handleDeadlineScan)
}

func (h *Handler) handleListDefinitions(w http.ResponseWriter, r *http.Request) {
	definitions, err := h.Service.ListDefinitions(r.Context(), r.URL.Query().Get("departmentId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, definitions, middleware.GetRequestID(r.Context()))
}

type definitionPayload struct {
	Name          string  `json:"name" validate:"required"`
	Description   string  `json:"description"`
	Unit          string  `json:"unit"`
	Target        float64 `json:"target" validate:"gte=0"`
	Frequency     string  `json:"frequency" validate:"required"`
	BonusAmount   string  `json:"bonusAmount"`
	PenaltyAmount string  `json:"penaltyAmount"`
	DepartmentID  string  `json:"departmentId"`
}

func (p definitionPayload) toDefinition() (kpi.Definition, error) {
	bonus, err := parseAmount(p.BonusAmount)
	if err != nil {
		return kpi.Definition{}, err
	}
	penalty, err := parseAmount(p.PenaltyAmount)
	if err != nil {
		return kpi.Definition{}, err
	}
	return kpi.Definition{
		Name:          p.Name,
		Description:   p.Description,
		Unit:          p.Unit,
		Target:        p.Target,
		Frequency:     p.Frequency,
		BonusAmount:   bonus,
		PenaltyAmount: penalty,
		DepartmentID:  p.DepartmentID,
	}, nil
}

func parseAmount(value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(value)
}

func (h *Handler) handleCreateDefinition(w http.ResponseWriter, r *http.Request) {
	var payload definitionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if err := shared.Validate(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	def, err := payload.toDefinition()
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid amount", middleware.GetRequestID(r.Context()))
		return
	}
	id, err := h.Service.CreateDefinition(r.Context(), def)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetDefinition(w http.ResponseWriter, r *http.Request) {
	def, err := h.Service.GetDefinition(r.Context(), chi.URLParam(r, "kpiID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, def, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateDefinition(w http.ResponseWriter, r *http.Request) {
	var payload definitionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	def, err := payload.toDefinition()
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid amount", middleware.GetRequestID(r.Context()))
		return
	}
	def.ID = chi.URLParam(r, "kpiID")
	if err := h.Service.UpdateDefinition(r.Context(), def); err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, map[string]bool{"updated": true}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeactivateDefinition(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeactivateDefinition(r.Context(), chi.URLParam(r, "kpiID")); err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, map[string]bool{"deactivated": true}, middleware.GetRequestID(r.Context()))
}

type assignPayload struct {
	KpiID        string   `json:"kpiId" validate:"required"`
	EmployeeID   string   `json:"employeeId"`
	DepartmentID string   `json:"departmentId"`
	Period       string   `json:"period" validate:"required"`
	Target       *float64 `json:"target" validate:"omitempty,gte=0"`
	StartDate    string   `json:"startDate"`
	EndDate      string   `json:"endDate"`
}

func (p assignPayload) toInput() (kpi.AssignInput, error) {
	start, err := shared.ParseDate(p.StartDate)
	if err != nil {
		return kpi.AssignInput{}, err
	}
	end, err := shared.ParseDate(p.EndDate)
	if err != nil {
		return kpi.AssignInput{}, err
	}
	return kpi.AssignInput{
		KpiID:        p.KpiID,
		EmployeeID:   p.EmployeeID,
		DepartmentID: p.DepartmentID,
		Period:       p.Period,
		Target:       p.Target,
		StartDate:    start,
		EndDate:      end,
	}, nil
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	var payload assignPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if err := shared.Validate(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	in, err := payload.toInput()
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid date", middleware.GetRequestID(r.Context()))
		return
	}
	record, err := h.Service.Assign(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Created(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleFanOut(w http.ResponseWriter, r *http.Request) {
	var payload assignPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	in, err := payload.toInput()
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid date", middleware.GetRequestID(r.Context()))
		return
	}
	result, err := h.Service.AssignToDepartmentMembers(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Created(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	from, err := shared.ParseDate(query.Get("from"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid from date", middleware.GetRequestID(r.Context()))
		return
	}
	to, err := shared.ParseDate(query.Get("to"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid to date", middleware.GetRequestID(r.Context()))
		return
	}
	records, err := h.Service.ListRecords(r.Context(), kpi.RecordFilter{
		KpiID:        query.Get("kpiId"),
		EmployeeID:   query.Get("employeeId"),
		DepartmentID: query.Get("departmentId"),
		Period:       query.Get("period"),
		Status:       query.Get("status"),
		From:         from,
		To:           to,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, records, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	record, err := h.Service.GetRecord(r.Context(), chi.URLParam(r, "recordID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateProgress(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Actual float64 `json:"actual" validate:"gte=0"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	record, err := h.Service.UpdateActual(r.Context(), chi.URLParam(r, "recordID"), payload.Actual)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Actual      float64 `json:"actual" validate:"gte=0"`
		Details     string  `json:"details"`
		Attachments string  `json:"attachments"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	record, err := h.Service.Submit(r.Context(), chi.URLParam(r, "recordID"), payload.Actual, payload.Details, payload.Attachments)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload struct {
		Outcome  string `json:"outcome" validate:"required,oneof=approved rejected"`
		Feedback string `json:"feedback"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if err := shared.Validate(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	record, err := h.Service.Decide(r.Context(), chi.URLParam(r, "recordID"), payload.Outcome, actor.ID, payload.Feedback)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	record, err := h.Service.Complete(r.Context(), chi.URLParam(r, "recordID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Cancel(r.Context(), chi.URLParam(r, "recordID")); err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, map[string]bool{"cancelled": true}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	submissions, err := h.Service.ListSubmissions(r.Context(), r.URL.Query().Get("employeeId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, submissions, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubmitBatch(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		EmployeeID  string `json:"employeeId" validate:"required"`
		Details     string `json:"details"`
		Attachments string `json:"attachments"`
		Items       []struct {
			RecordID string  `json:"recordId" validate:"required"`
			Actual   float64 `json:"actual" validate:"gte=0"`
			Notes    string  `json:"notes"`
		} `json:"items" validate:"required,min=1,dive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if err := shared.Validate(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	in := kpi.SubmitBatchInput{
		EmployeeID:  payload.EmployeeID,
		Details:     payload.Details,
		Attachments: payload.Attachments,
	}
	for _, item := range payload.Items {
		in.Items = append(in.Items, kpi.SubmitItemInput{RecordID: item.RecordID, Actual: item.Actual, Notes: item.Notes})
	}
	submission, err := h.Service.SubmitBatch(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Created(w, submission, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	submission, err := h.Service.GetSubmission(r.Context(), chi.URLParam(r, "submissionID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, submission, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDecideSubmission(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload struct {
		Outcome string `json:"outcome" validate:"required,oneof=approved rejected"`
		Reason  string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if err := shared.Validate(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	submission, err := h.Service.DecideSubmission(r.Context(), chi.URLParam(r, "submissionID"), payload.Outcome, actor.ID, payload.Reason)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, submission, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAddLedgerEntry(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload struct {
		EmployeeID string `json:"employeeId" validate:"required"`
		KpiID      string `json:"kpiId"`
		Type       string `json:"type" validate:"required,oneof=bonus penalty"`
		Amount     string `json:"amount" validate:"required"`
		Reason     string `json:"reason"`
		Period     string `json:"period"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if err := shared.Validate(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	amount, err := decimal.NewFromString(payload.Amount)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid amount", middleware.GetRequestID(r.Context()))
		return
	}
	id, err := h.Service.AddLedgerEntry(r.Context(), kpi.LedgerEntry{
		EmployeeID: payload.EmployeeID,
		KpiID:      payload.KpiID,
		Type:       payload.Type,
		Amount:     amount,
		Reason:     payload.Reason,
		Period:     payload.Period,
		CreatedBy:  actor.ID,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListLedgerEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Service.ListLedgerEntries(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, entries, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeadlineScan(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Jobs.ScanDeadlinesNow(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := shared.StatusForError(err)
	api.Fail(w, status, code, err.Error(), middleware.GetRequestID(r.Context()))
}
