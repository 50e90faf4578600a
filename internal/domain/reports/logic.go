package reports

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"kpitrack/internal/domain/kpi"
	"kpitrack/internal/domain/org"
)

// BuildInput carries everything the aggregation needs, pre-loaded, so the
// build itself stays pure and testable.
type BuildInput struct {
	Branch      org.Branch
	Departments []org.Department
	Employees   []org.Employee
	Definitions map[string]kpi.Definition
	Records     []kpi.Record
	Ledger      []kpi.LedgerEntry
	Period      string
	From        time.Time
	To          time.Time
	Now         time.Time
	// SummariesOnly drops the per-record detail from the built report,
	// leaving department, employee, and KPI summaries.
	SummariesOnly bool
}

type ledgerKey struct {
	EmployeeID string
	KpiID      string
}

type ledgerSums struct {
	Bonus   decimal.Decimal
	Penalty decimal.Decimal
}

// indexLedger sums active ledger entries per (employee, KPI) so reports can
// fall back on them when a record carries no stored amounts. General
// entries without a KPI link stay out of record-level reconciliation.
func indexLedger(entries []kpi.LedgerEntry) map[ledgerKey]ledgerSums {
	index := make(map[ledgerKey]ledgerSums)
	for _, entry := range entries {
		if entry.KpiID == "" {
			continue
		}
		key := ledgerKey{EmployeeID: entry.EmployeeID, KpiID: entry.KpiID}
		sums := index[key]
		switch entry.Type {
		case kpi.EntryBonus:
			sums.Bonus = sums.Bonus.Add(entry.Amount)
		case kpi.EntryPenalty:
			sums.Penalty = sums.Penalty.Add(entry.Amount)
		}
		index[key] = sums
	}
	return index
}

// Overlaps reports whether a record's date range intersects [from, to].
// Zero bounds are open-ended.
func Overlaps(rec kpi.Record, from, to time.Time) bool {
	if !to.IsZero() && rec.StartDate.After(to) {
		return false
	}
	if !from.IsZero() && rec.EndDate.Before(from) {
		return false
	}
	return true
}

// BuildBranchReport aggregates one branch. Every active department appears
// in the working set so date filtering cannot silently drop a department
// mid-build; departments that end up with no records are pruned from the
// final report.
func BuildBranchReport(in BuildInput) BranchReport {
	report := BranchReport{
		BranchID:    in.Branch.ID,
		BranchName:  in.Branch.Name,
		Period:      in.Period,
		GeneratedAt: in.Now,
	}
	if !in.From.IsZero() {
		from := in.From
		report.From = &from
	}
	if !in.To.IsZero() {
		to := in.To
		report.To = &to
	}

	// Seed a bucket per department up front.
	deptReports := make(map[string]*DepartmentReport, len(in.Departments))
	order := make([]string, 0, len(in.Departments))
	for _, dept := range in.Departments {
		deptReports[dept.ID] = &DepartmentReport{DepartmentID: dept.ID, Name: dept.Name}
		order = append(order, dept.ID)
	}

	empIndex := make(map[string]org.Employee, len(in.Employees))
	for _, emp := range in.Employees {
		empIndex[emp.ID] = emp
	}
	empReports := make(map[string]*EmployeeReport)
	periods := make(map[string]struct{})
	ledger := indexLedger(in.Ledger)

	for _, rec := range in.Records {
		if !Overlaps(rec, in.From, in.To) {
			continue
		}
		// A record must name exactly one assignee. Anything else is corrupt
		// data; skip it rather than double-count or misfile it.
		if (rec.EmployeeID == "") == (rec.DepartmentID == "") {
			slog.Warn("skipping record with ambiguous assignee",
				"recordId", rec.ID, "employeeId", rec.EmployeeID, "departmentId", rec.DepartmentID)
			continue
		}

		if rec.DepartmentID != "" {
			dept, ok := deptReports[rec.DepartmentID]
			if !ok {
				continue // other branch
			}
			periods[rec.Period] = struct{}{}
			if in.Period != "" && rec.Period != in.Period {
				continue
			}
			dept.Records = append(dept.Records, toReportRecord(rec, OriginDepartment, in.Definitions, ledger))
			continue
		}

		emp, ok := empIndex[rec.EmployeeID]
		if !ok {
			continue // other branch or deactivated
		}
		// Employees can belong to several departments; their records are
		// cross-linked into the primary one only, so branch totals count
		// each record once.
		homeID := emp.PrimaryDepartmentID
		dept, ok := deptReports[homeID]
		if !ok {
			slog.Warn("employee has no department in branch", "employeeId", emp.ID, "departmentId", homeID)
			continue
		}
		periods[rec.Period] = struct{}{}
		if in.Period != "" && rec.Period != in.Period {
			continue
		}
		er, ok := empReports[emp.ID]
		if !ok {
			er = &EmployeeReport{EmployeeID: emp.ID, Name: emp.Name}
			empReports[emp.ID] = er
			dept.Employees = append(dept.Employees, EmployeeReport{EmployeeID: emp.ID})
		}
		er.Records = append(er.Records, toReportRecord(rec, OriginEmployee, in.Definitions, ledger))
	}

	// Fill employee reports into their departments and summarize bottom-up.
	var all []ReportRecord
	for _, id := range order {
		dept := deptReports[id]
		for i := range dept.Employees {
			er := empReports[dept.Employees[i].EmployeeID]
			er.Summary = Summarize(er.Records)
			dept.Employees[i] = *er
		}
		sort.Slice(dept.Employees, func(a, b int) bool { return dept.Employees[a].Name < dept.Employees[b].Name })

		deptRecords := append([]ReportRecord{}, dept.Records...)
		for _, er := range dept.Employees {
			deptRecords = append(deptRecords, er.Records...)
		}
		if len(deptRecords) == 0 {
			continue // prune empty department
		}
		dept.Summary = Summarize(deptRecords)
		all = append(all, deptRecords...)
		report.Departments = append(report.Departments, *dept)
	}
	report.Totals = Summarize(all)

	report.AvailablePeriods = make([]string, 0, len(periods))
	for period := range periods {
		report.AvailablePeriods = append(report.AvailablePeriods, period)
	}
	sort.Strings(report.AvailablePeriods)
	report.KpiSummaries = summarizeByKpi(all)

	// The flat employee list repeats the cross-linked copies so callers can
	// read per-employee standing without walking the department tree.
	for _, dept := range report.Departments {
		report.EmployeeReports = append(report.EmployeeReports, dept.Employees...)
	}
	sort.Slice(report.EmployeeReports, func(a, b int) bool {
		return report.EmployeeReports[a].Name < report.EmployeeReports[b].Name
	})

	if in.SummariesOnly {
		for i := range report.Departments {
			report.Departments[i].Records = nil
			for j := range report.Departments[i].Employees {
				report.Departments[i].Employees[j].Records = nil
			}
		}
		for i := range report.EmployeeReports {
			report.EmployeeReports[i].Records = nil
		}
	}
	return report
}

func summarizeByKpi(records []ReportRecord) []KpiSummary {
	grouped := make(map[string][]ReportRecord)
	names := make(map[string]string)
	for _, rec := range records {
		grouped[rec.KpiID] = append(grouped[rec.KpiID], rec)
		names[rec.KpiID] = rec.KpiName
	}
	out := make([]KpiSummary, 0, len(grouped))
	for id, recs := range grouped {
		out = append(out, KpiSummary{KpiID: id, KpiName: names[id], Summary: Summarize(recs)})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].KpiName < out[b].KpiName })
	return out
}

// BuildKpiReport aggregates every in-range record of one definition.
func BuildKpiReport(def kpi.Definition, records []kpi.Record, entries []kpi.LedgerEntry, from, to time.Time) KpiReport {
	report := KpiReport{
		KpiID:           def.ID,
		KpiName:         def.Name,
		StatusBreakdown: map[string]int{},
	}
	defs := map[string]kpi.Definition{def.ID: def}
	ledger := indexLedger(entries)
	for _, rec := range records {
		if rec.KpiID != def.ID || !Overlaps(rec, from, to) {
			continue
		}
		if (rec.EmployeeID == "") == (rec.DepartmentID == "") {
			slog.Warn("skipping record with ambiguous assignee", "recordId", rec.ID)
			continue
		}
		origin := OriginEmployee
		if rec.DepartmentID != "" {
			origin = OriginDepartment
		}
		report.Records = append(report.Records, toReportRecord(rec, origin, defs, ledger))
		report.StatusBreakdown[rec.Status]++
	}
	report.Summary = Summarize(report.Records)
	return report
}

// Summarize folds records into counts, an average, and money totals.
func Summarize(records []ReportRecord) Summary {
	s := Summary{TotalRecords: len(records)}
	if len(records) == 0 {
		return s
	}
	var progressSum float64
	for _, rec := range records {
		progressSum += rec.Progress
		switch rec.Status {
		case kpi.StatusApproved, kpi.StatusCompleted:
			s.CompletedCount++
		case kpi.StatusPendingApproval:
			s.PendingCount++
		case kpi.StatusOverdue:
			s.OverdueCount++
		}
		s.TotalBonus = s.TotalBonus.Add(rec.Bonus)
		s.TotalPenalty = s.TotalPenalty.Add(rec.Penalty)
	}
	s.AverageProgress = math.Round(progressSum/float64(len(records))*100) / 100
	return s
}

// toReportRecord flattens a record. Stored amounts are authoritative; when
// a side is zero the (employee, KPI) ledger sum fills it in, so manual
// ledger entries surface in the rollups. The recomputation only exists to
// flag drift between the stored award and what the current reward bands
// would pay.
func toReportRecord(rec kpi.Record, origin string, defs map[string]kpi.Definition, ledger map[ledgerKey]ledgerSums) ReportRecord {
	out := ReportRecord{
		RecordID:     rec.ID,
		KpiID:        rec.KpiID,
		KpiName:      rec.KpiName,
		EmployeeID:   rec.EmployeeID,
		DepartmentID: rec.DepartmentID,
		Origin:       origin,
		Period:       rec.Period,
		Target:       rec.Target,
		Actual:       rec.Actual,
		Progress:     rec.Progress,
		Status:       rec.Status,
		Bonus:        rec.BonusAmount,
		Penalty:      rec.PenaltyAmount,
	}
	// Only finalized records carry awards; open records of the same
	// (employee, KPI) pair must not repeat the ledger sum.
	finalized := rec.Status == kpi.StatusApproved || rec.Status == kpi.StatusCompleted
	if finalized && rec.EmployeeID != "" {
		if sums, ok := ledger[ledgerKey{EmployeeID: rec.EmployeeID, KpiID: rec.KpiID}]; ok {
			if out.Bonus.IsZero() {
				out.Bonus = sums.Bonus
			}
			if out.Penalty.IsZero() {
				out.Penalty = sums.Penalty
			}
		}
	}
	if rec.Status != kpi.StatusApproved {
		return out
	}
	if def, ok := defs[rec.KpiID]; ok {
		recomputed := kpi.ApplyRule(kpi.RewardRule{BonusAmount: def.BonusAmount, PenaltyAmount: def.PenaltyAmount}, rec.Progress)
		if !recomputed.Bonus.Equal(rec.BonusAmount) || !recomputed.Penalty.Equal(rec.PenaltyAmount) {
			slog.Warn("stored award differs from current reward bands",
				"recordId", rec.ID,
				"storedBonus", rec.BonusAmount, "recomputedBonus", recomputed.Bonus,
				"storedPenalty", rec.PenaltyAmount, "recomputedPenalty", recomputed.Penalty)
		}
	}
	return out
}
