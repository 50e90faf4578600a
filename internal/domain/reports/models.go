package reports

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OriginEmployee   = "employee"
	OriginDepartment = "department"
)

// ReportRecord is the flattened view of one KPI record inside a report.
// Origin says whether the record was assigned to the employee directly or
// to the department as a whole.
type ReportRecord struct {
	RecordID     string          `json:"recordId"`
	KpiID        string          `json:"kpiId"`
	KpiName      string          `json:"kpiName"`
	EmployeeID   string          `json:"employeeId,omitempty"`
	DepartmentID string          `json:"departmentId,omitempty"`
	Origin       string          `json:"origin"`
	Period       string          `json:"period"`
	Target       float64         `json:"target"`
	Actual       float64         `json:"actual"`
	Progress     float64         `json:"progress"`
	Status       string          `json:"status"`
	Bonus        decimal.Decimal `json:"bonus"`
	Penalty      decimal.Decimal `json:"penalty"`
}

// Summary aggregates a set of report records.
type Summary struct {
	TotalRecords    int             `json:"totalRecords"`
	CompletedCount  int             `json:"completedCount"`
	PendingCount    int             `json:"pendingCount"`
	OverdueCount    int             `json:"overdueCount"`
	AverageProgress float64         `json:"averageProgress"`
	TotalBonus      decimal.Decimal `json:"totalBonus"`
	TotalPenalty    decimal.Decimal `json:"totalPenalty"`
}

type EmployeeReport struct {
	EmployeeID string         `json:"employeeId"`
	Name       string         `json:"name"`
	Summary    Summary        `json:"summary"`
	Records    []ReportRecord `json:"records"`
}

type DepartmentReport struct {
	DepartmentID string           `json:"departmentId"`
	Name         string           `json:"name"`
	Summary      Summary          `json:"summary"`
	Employees    []EmployeeReport `json:"employees"`
	// Records holds the department-scope assignments; employee records
	// live under Employees.
	Records []ReportRecord `json:"records"`
}

type BranchReport struct {
	BranchID    string             `json:"branchId"`
	BranchName  string             `json:"branchName"`
	Period      string             `json:"period,omitempty"`
	From        *time.Time         `json:"from,omitempty"`
	To          *time.Time         `json:"to,omitempty"`
	GeneratedAt time.Time          `json:"generatedAt"`
	Departments []DepartmentReport `json:"departments"`
	// EmployeeReports flattens every employee with employee-owned records
	// in range; the same reports appear cross-linked under Departments.
	EmployeeReports []EmployeeReport `json:"employeeReports"`
	Totals          Summary          `json:"totals"`
	// AvailablePeriods lists every period the branch has records for within
	// the date range, ignoring the period filter, so clients can offer a
	// period picker.
	AvailablePeriods []string     `json:"availablePeriods"`
	KpiSummaries     []KpiSummary `json:"kpiSummaries"`
}

// KpiSummary rolls the branch's records up per KPI definition.
type KpiSummary struct {
	KpiID   string  `json:"kpiId"`
	KpiName string  `json:"kpiName"`
	Summary Summary `json:"summary"`
}

// KpiReport aggregates every record of one definition.
type KpiReport struct {
	KpiID           string         `json:"kpiId"`
	KpiName         string         `json:"kpiName"`
	Summary         Summary        `json:"summary"`
	StatusBreakdown map[string]int `json:"statusBreakdown"`
	Records         []ReportRecord `json:"records"`
}

// EmployeeSummary is the per-employee standing view, ledger totals included.
type EmployeeSummary struct {
	EmployeeID    string          `json:"employeeId"`
	Name          string          `json:"name"`
	Summary       Summary         `json:"summary"`
	Records       []ReportRecord  `json:"records"`
	LedgerBonus   decimal.Decimal `json:"ledgerBonus"`
	LedgerPenalty decimal.Decimal `json:"ledgerPenalty"`
	NetAmount     decimal.Decimal `json:"netAmount"`
}
