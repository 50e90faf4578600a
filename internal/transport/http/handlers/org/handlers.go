package orghandler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kpitrack/internal/domain/org"
	"kpitrack/internal/transport/http/api"
	"kpitrack/internal/transport/http/middleware"
	"kpitrack/internal/transport/http/shared"
)

type Handler struct {
	Service *org.Service
}

func NewHandler(service *org.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/branches", func(r chi.Router) {
		r.Get("/", h.handleListBranches)
		r.Post("/", h.handleCreateBranch)
		r.Get("/{branchID}/departments", h.handleListDepartments)
		r.Get("/{branchID}/employees", h.handleListEmployees)
	})
	r.Route("/departments", func(r chi.Router) {
		r.Post("/", h.handleCreateDepartment)
		r.Get("/{departmentID}/members", h.handleListMembers)
		r.Delete("/{departmentID}", h.handleDeactivateDepartment)
	})
	r.Route("/employees", func(r chi.Router) {
		r.Post("/", h.handleCreateEmployee)
		r.Get("/{employeeID}", h.handleGetEmployee)
		r.Put("/{employeeID}/departments", h.handleSetMemberships)
		r.Delete("/{employeeID}", h.handleDeactivateEmployee)
	})
}

func (h *Handler) handleListBranches(w http.ResponseWriter, r *http.Request) {
	branches, err := h.Service.ListBranches(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, branches, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateBranch(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name string `json:"name" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if err := shared.Validate(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	id, err := h.Service.CreateBranch(r.Context(), payload.Name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.Service.ListDepartments(r.Context(), chi.URLParam(r, "branchID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, departments, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		BranchID string `json:"branchId" validate:"required"`
		Name     string `json:"name" validate:"required"`
		Code     string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if err := shared.Validate(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	id, err := h.Service.CreateDepartment(r.Context(), payload.BranchID, payload.Name, payload.Code)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeactivateDepartment(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeactivateDepartment(r.Context(), chi.URLParam(r, "departmentID")); err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, map[string]bool{"deactivated": true}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Service.ListEmployees(r.Context(), chi.URLParam(r, "branchID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, employees, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.Service.ListDepartmentMembers(r.Context(), chi.URLParam(r, "departmentID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, members, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	employee, err := h.Service.GetEmployee(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, employee, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name                string   `json:"name" validate:"required"`
		Code                string   `json:"code"`
		Level               string   `json:"level" validate:"required"`
		DepartmentIDs       []string `json:"departmentIds"`
		PrimaryDepartmentID string   `json:"primaryDepartmentId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if err := shared.Validate(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	id, err := h.Service.CreateEmployee(r.Context(), org.Employee{
		Name:                payload.Name,
		Code:                payload.Code,
		Level:               payload.Level,
		DepartmentIDs:       payload.DepartmentIDs,
		PrimaryDepartmentID: payload.PrimaryDepartmentID,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetMemberships(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		DepartmentIDs       []string `json:"departmentIds" validate:"required,min=1"`
		PrimaryDepartmentID string   `json:"primaryDepartmentId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if err := shared.Validate(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Service.SetMemberships(r.Context(), chi.URLParam(r, "employeeID"), payload.DepartmentIDs, payload.PrimaryDepartmentID); err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, map[string]bool{"updated": true}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeactivateEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeactivateEmployee(r.Context(), chi.URLParam(r, "employeeID")); err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, map[string]bool{"deactivated": true}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := shared.StatusForError(err)
	api.Fail(w, status, code, err.Error(), middleware.GetRequestID(r.Context()))
}
