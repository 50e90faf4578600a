package kpi

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type StoreAPI interface {
	CreateDefinition(ctx context.Context, def Definition) (string, error)
	GetDefinition(ctx context.Context, definitionID string) (*Definition, error)
	ListDefinitions(ctx context.Context, departmentID string) ([]Definition, error)
	UpdateDefinition(ctx context.Context, def Definition) error
	DeactivateDefinition(ctx context.Context, definitionID string) error

	CreateRecord(ctx context.Context, rec Record) (string, error)
	GetRecord(ctx context.Context, recordID string) (*Record, error)
	ListRecords(ctx context.Context, filter RecordFilter) ([]Record, error)
	ActiveAssignmentExists(ctx context.Context, kpiID, employeeID, departmentID, period string) (bool, error)
	UpdateRecordProgress(ctx context.Context, recordID string, actual, progress float64, status string) error
	MarkSubmitted(ctx context.Context, recordID string, actual, progress float64, details, attachments string, submittedAt time.Time) error
	MarkDecided(ctx context.Context, recordID, status, approverID string, decidedAt time.Time, outcome RewardOutcome, score float64, feedback string) error
	UpdateRecordStatus(ctx context.Context, recordID, status string) error
	CancelRecord(ctx context.Context, recordID string) error

	CreateSubmission(ctx context.Context, sub Submission) (string, error)
	GetSubmission(ctx context.Context, submissionID string) (*Submission, error)
	ListSubmissions(ctx context.Context, employeeID string) ([]Submission, error)
	DecideSubmission(ctx context.Context, submissionID, status, approverID, reason string, decidedAt time.Time) error

	CreateLedgerEntry(ctx context.Context, entry LedgerEntry) (string, error)
	ListLedgerEntries(ctx context.Context, employeeID string) ([]LedgerEntry, error)
	LedgerTotals(ctx context.Context, employeeID string) (bonus, penalty decimal.Decimal, err error)

	ListOpenRecords(ctx context.Context) ([]Record, error)
	MarkReminded(ctx context.Context, recordID string, day time.Time) (bool, error)
}

// RecordFilter narrows ListRecords. Zero values mean "any".
type RecordFilter struct {
	KpiID        string
	EmployeeID   string
	DepartmentID string
	Period       string
	Status       string
	From         time.Time
	To           time.Time
}
