package kpi

import (
	"time"

	"github.com/shopspring/decimal"
)

type Definition struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Unit          string          `json:"unit"`
	Target        float64         `json:"target"`
	Frequency     string          `json:"frequency"`
	BonusAmount   decimal.Decimal `json:"bonusAmount"`
	PenaltyAmount decimal.Decimal `json:"penaltyAmount"`
	DepartmentID  string          `json:"departmentId"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Record is one assignment of a KPI to exactly one employee or one
// department for one period. EmployeeID and DepartmentID are mutually
// exclusive; the store enforces this with a CHECK constraint and the
// aggregation layer filters violations defensively on top.
type Record struct {
	ID                string          `json:"id"`
	KpiID             string          `json:"kpiId"`
	KpiName           string          `json:"kpiName,omitempty"` // joined for display and events
	EmployeeID        string          `json:"employeeId,omitempty"`
	DepartmentID      string          `json:"departmentId,omitempty"`
	AssigneeName      string          `json:"assigneeName,omitempty"` // joined
	Period            string          `json:"period"`
	Target            float64         `json:"target"`
	Actual            float64         `json:"actual"`
	Progress          float64         `json:"progress"`
	Status            string          `json:"status"`
	SubmissionDetails string          `json:"submissionDetails,omitempty"`
	Attachments       string          `json:"attachments,omitempty"` // comma-joined opaque refs
	SubmittedAt       *time.Time      `json:"submittedAt,omitempty"`
	ApprovedAt        *time.Time      `json:"approvedAt,omitempty"`
	RejectionReason   string          `json:"rejectionReason,omitempty"`
	ApproverID        string          `json:"approverId,omitempty"`
	BonusAmount       decimal.Decimal `json:"bonusAmount"`
	PenaltyAmount     decimal.Decimal `json:"penaltyAmount"`
	Score             float64         `json:"score"`
	StartDate         time.Time       `json:"startDate"`
	EndDate           time.Time       `json:"endDate"`
	Active            bool            `json:"active"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// Submission batches one employee's report across several records.
type Submission struct {
	ID              string           `json:"id"`
	EmployeeID      string           `json:"employeeId"`
	Details         string           `json:"details,omitempty"`
	Attachments     string           `json:"attachments,omitempty"`
	Status          string           `json:"status"`
	ApproverID      string           `json:"approverId,omitempty"`
	RejectionReason string           `json:"rejectionReason,omitempty"`
	SubmittedAt     time.Time        `json:"submittedAt"`
	DecidedAt       *time.Time       `json:"decidedAt,omitempty"`
	Items           []SubmissionItem `json:"items"`
}

type SubmissionItem struct {
	ID           string  `json:"id"`
	SubmissionID string  `json:"submissionId"`
	RecordID     string  `json:"recordId"`
	KpiName      string  `json:"kpiName,omitempty"` // joined
	Actual       float64 `json:"actual"`
	Progress     float64 `json:"progress"`
	Notes        string  `json:"notes,omitempty"`
}

// LedgerEntry is an append-only bonus/penalty audit row. KpiID is empty for
// general entries not tied to one KPI.
type LedgerEntry struct {
	ID         string          `json:"id"`
	EmployeeID string          `json:"employeeId"`
	KpiID      string          `json:"kpiId,omitempty"`
	Type       string          `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	Reason     string          `json:"reason,omitempty"`
	Period     string          `json:"period,omitempty"`
	CreatedBy  string          `json:"createdBy,omitempty"`
	Active     bool            `json:"active"`
	CreatedAt  time.Time       `json:"createdAt"`
}
