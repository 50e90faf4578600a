package kpi

import (
	"context"
	"log/slog"

	"kpitrack/internal/platform/events"
)

// DeadlineSummary reports one scanner pass.
type DeadlineSummary struct {
	Scanned     int `json:"scanned"`
	Approaching int `json:"approaching"`
	Overdue     int `json:"overdue"`
}

// ScanDeadlines walks every open record once. Records whose end date has
// passed flip to overdue; records within warnDays of their end date get a
// deadline-approaching event, at most once per record per day. Per-record
// store failures are logged so one bad row never stalls the sweep.
func (s *Service) ScanDeadlines(ctx context.Context, warnDays int) (DeadlineSummary, error) {
	var summary DeadlineSummary

	records, err := s.store.ListOpenRecords(ctx)
	if err != nil {
		return summary, err
	}

	today := dateOnly(s.now())
	for _, rec := range records {
		summary.Scanned++
		endDay := dateOnly(rec.EndDate)

		if endDay.Before(today) {
			if err := s.store.UpdateRecordStatus(ctx, rec.ID, StatusOverdue); err != nil {
				slog.Error("marking record overdue failed", "recordId", rec.ID, "error", err)
				continue
			}
			summary.Overdue++
			s.publish(ctx, events.Event{
				Kind:         events.KindOverdue,
				RecordID:     rec.ID,
				KpiName:      rec.KpiName,
				AssigneeID:   firstNonEmpty(rec.EmployeeID, rec.DepartmentID),
				AssigneeName: rec.AssigneeName,
				Period:       rec.Period,
			})
			continue
		}

		daysLeft := int(endDay.Sub(today).Hours() / 24)
		if daysLeft > warnDays {
			continue
		}
		fresh, err := s.store.MarkReminded(ctx, rec.ID, today)
		if err != nil {
			slog.Error("recording deadline reminder failed", "recordId", rec.ID, "error", err)
			continue
		}
		if !fresh {
			continue
		}
		summary.Approaching++
		s.publish(ctx, events.Event{
			Kind:         events.KindDeadlineApproaching,
			RecordID:     rec.ID,
			KpiName:      rec.KpiName,
			AssigneeID:   firstNonEmpty(rec.EmployeeID, rec.DepartmentID),
			AssigneeName: rec.AssigneeName,
			Period:       rec.Period,
			DaysLeft:     daysLeft,
		})
	}

	return summary, nil
}
