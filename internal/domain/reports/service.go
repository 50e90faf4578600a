package reports

import (
	"context"
	"time"

	"kpitrack/internal/domain/kpi"
	"kpitrack/internal/domain/org"
)

// Service assembles reports from the org and KPI stores. The heavy lifting
// is in logic.go; this layer only loads inputs.
type Service struct {
	org org.StoreAPI
	kpi kpi.StoreAPI
	now func() time.Time
}

func NewService(orgStore org.StoreAPI, kpiStore kpi.StoreAPI) *Service {
	return &Service{org: orgStore, kpi: kpiStore, now: time.Now}
}

// BranchReportOptions narrows a branch report. A zero value means the full
// report: every period, open date range, per-record detail included.
type BranchReportOptions struct {
	Period        string
	From          time.Time
	To            time.Time
	SummariesOnly bool
}

func (s *Service) BranchReport(ctx context.Context, branchID string, opts BranchReportOptions) (*BranchReport, error) {
	branch, err := s.org.GetBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}
	departments, err := s.org.ListDepartments(ctx, branchID)
	if err != nil {
		return nil, err
	}
	employees, err := s.org.ListEmployees(ctx, branchID)
	if err != nil {
		return nil, err
	}
	records, err := s.kpi.ListRecords(ctx, kpi.RecordFilter{From: opts.From, To: opts.To})
	if err != nil {
		return nil, err
	}
	definitions, err := s.loadDefinitions(ctx)
	if err != nil {
		return nil, err
	}
	ledger, err := s.kpi.ListLedgerEntries(ctx, "")
	if err != nil {
		return nil, err
	}

	report := BuildBranchReport(BuildInput{
		Branch:        *branch,
		Departments:   departments,
		Employees:     employees,
		Definitions:   definitions,
		Records:       records,
		Ledger:        ledger,
		Period:        opts.Period,
		From:          opts.From,
		To:            opts.To,
		Now:           s.now(),
		SummariesOnly: opts.SummariesOnly,
	})
	return &report, nil
}

func (s *Service) KpiReport(ctx context.Context, kpiID string, from, to time.Time) (*KpiReport, error) {
	def, err := s.kpi.GetDefinition(ctx, kpiID)
	if err != nil {
		return nil, err
	}
	records, err := s.kpi.ListRecords(ctx, kpi.RecordFilter{KpiID: kpiID, From: from, To: to})
	if err != nil {
		return nil, err
	}
	ledger, err := s.kpi.ListLedgerEntries(ctx, "")
	if err != nil {
		return nil, err
	}
	report := BuildKpiReport(*def, records, ledger, from, to)
	return &report, nil
}

func (s *Service) EmployeeSummary(ctx context.Context, employeeID string, from, to time.Time) (*EmployeeSummary, error) {
	emp, err := s.org.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	records, err := s.kpi.ListRecords(ctx, kpi.RecordFilter{EmployeeID: employeeID, From: from, To: to})
	if err != nil {
		return nil, err
	}
	definitions, err := s.loadDefinitions(ctx)
	if err != nil {
		return nil, err
	}
	bonus, penalty, err := s.kpi.LedgerTotals(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	entries, err := s.kpi.ListLedgerEntries(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	ledger := indexLedger(entries)

	summary := EmployeeSummary{
		EmployeeID:    emp.ID,
		Name:          emp.Name,
		LedgerBonus:   bonus,
		LedgerPenalty: penalty,
		NetAmount:     bonus.Sub(penalty),
	}
	for _, rec := range records {
		if !Overlaps(rec, from, to) {
			continue
		}
		summary.Records = append(summary.Records, toReportRecord(rec, OriginEmployee, definitions, ledger))
	}
	summary.Summary = Summarize(summary.Records)
	return &summary, nil
}

func (s *Service) loadDefinitions(ctx context.Context) (map[string]kpi.Definition, error) {
	defs, err := s.kpi.ListDefinitions(ctx, "")
	if err != nil {
		return nil, err
	}
	out := make(map[string]kpi.Definition, len(defs))
	for _, def := range defs {
		out[def.ID] = def
	}
	return out, nil
}
