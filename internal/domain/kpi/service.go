package kpi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"kpitrack/internal/domain/org"
	"kpitrack/internal/platform/events"
)

type Service struct {
	store StoreAPI
	org   org.StoreAPI
	bus   *events.Bus
	now   func() time.Time
}

func NewService(store StoreAPI, orgStore org.StoreAPI, bus *events.Bus) *Service {
	return &Service{store: store, org: orgStore, bus: bus, now: time.Now}
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	event.OccurredAt = s.now()
	s.bus.Publish(ctx, event)
}

// Definitions

func (s *Service) CreateDefinition(ctx context.Context, def Definition) (string, error) {
	if strings.TrimSpace(def.Name) == "" {
		return "", fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !ValidFrequency(def.Frequency) {
		return "", fmt.Errorf("%w: unknown frequency %q", ErrInvalidInput, def.Frequency)
	}
	if def.Target < 0 || math.IsNaN(def.Target) {
		return "", fmt.Errorf("%w: target must be >= 0", ErrInvalidInput)
	}
	if def.BonusAmount.IsNegative() || def.PenaltyAmount.IsNegative() {
		return "", fmt.Errorf("%w: bonus and penalty amounts must be >= 0", ErrInvalidInput)
	}
	if def.DepartmentID != "" {
		if _, err := s.org.GetDepartment(ctx, def.DepartmentID); err != nil {
			if errors.Is(err, org.ErrNotFound) {
				return "", fmt.Errorf("%w: department %s", ErrForeignKeyViolation, def.DepartmentID)
			}
			return "", err
		}
	}
	return s.store.CreateDefinition(ctx, def)
}

func (s *Service) GetDefinition(ctx context.Context, definitionID string) (*Definition, error) {
	return s.store.GetDefinition(ctx, definitionID)
}

func (s *Service) ListDefinitions(ctx context.Context, departmentID string) ([]Definition, error) {
	return s.store.ListDefinitions(ctx, departmentID)
}

func (s *Service) UpdateDefinition(ctx context.Context, def Definition) error {
	if strings.TrimSpace(def.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !ValidFrequency(def.Frequency) {
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidInput, def.Frequency)
	}
	return s.store.UpdateDefinition(ctx, def)
}

func (s *Service) DeactivateDefinition(ctx context.Context, definitionID string) error {
	return s.store.DeactivateDefinition(ctx, definitionID)
}

// Assignment

type AssignInput struct {
	KpiID        string `validate:"required"`
	EmployeeID   string
	DepartmentID string
	Period       string `validate:"required"`
	// Target overrides the definition's target when set. An explicit zero
	// is a qualitative assignment that always reads as met.
	Target    *float64
	StartDate time.Time
	EndDate   time.Time
}

// Assign creates one KPI record for a single employee or department.
func (s *Service) Assign(ctx context.Context, in AssignInput) (*Record, error) {
	if (in.EmployeeID == "") == (in.DepartmentID == "") {
		return nil, fmt.Errorf("%w: exactly one of employeeId and departmentId is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Period) == "" {
		return nil, fmt.Errorf("%w: period is required", ErrInvalidInput)
	}
	if in.EndDate.Before(in.StartDate) {
		return nil, fmt.Errorf("%w: end date before start date", ErrInvalidInput)
	}

	def, err := s.store.GetDefinition(ctx, in.KpiID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: kpi %s", ErrForeignKeyViolation, in.KpiID)
		}
		return nil, err
	}

	assigneeName, err := s.resolveAssignee(ctx, in.EmployeeID, in.DepartmentID)
	if err != nil {
		return nil, err
	}

	// Pre-check for a friendly error; the partial unique indexes remain the
	// authority under concurrent assigns.
	exists, err := s.store.ActiveAssignmentExists(ctx, in.KpiID, in.EmployeeID, in.DepartmentID, in.Period)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &DuplicateAssignmentError{KpiName: def.Name, AssigneeName: assigneeName, Period: in.Period}
	}

	target := def.Target
	if in.Target != nil {
		target = *in.Target
	}
	if target < 0 || math.IsNaN(target) {
		return nil, fmt.Errorf("%w: target must be >= 0", ErrInvalidInput)
	}

	status := StatusNotStarted
	today := dateOnly(s.now())
	if !in.StartDate.IsZero() && !dateOnly(in.StartDate).After(today) {
		status = StatusInProgress
	}

	rec := Record{
		KpiID:        in.KpiID,
		EmployeeID:   in.EmployeeID,
		DepartmentID: in.DepartmentID,
		Period:       in.Period,
		Target:       target,
		Progress:     ProgressPercent(0, target),
		Status:       status,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
	}
	id, err := s.store.CreateRecord(ctx, rec)
	if err != nil {
		if errors.Is(err, ErrDuplicateAssignment) {
			return nil, &DuplicateAssignmentError{KpiName: def.Name, AssigneeName: assigneeName, Period: in.Period}
		}
		return nil, err
	}

	created, err := s.store.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Kind:         events.KindAssigned,
		RecordID:     created.ID,
		KpiName:      created.KpiName,
		AssigneeID:   firstNonEmpty(created.EmployeeID, created.DepartmentID),
		AssigneeName: created.AssigneeName,
		Period:       created.Period,
	})
	return created, nil
}

// AssignToDepartmentMembers fans one KPI out to every non-management member
// of a department. Each member is assigned independently; duplicates and
// other per-member failures are reported without aborting the batch.
func (s *Service) AssignToDepartmentMembers(ctx context.Context, in AssignInput) (BatchResult[org.Employee], error) {
	var zero BatchResult[org.Employee]
	if in.DepartmentID == "" || in.EmployeeID != "" {
		return zero, fmt.Errorf("%w: departmentId is required for fan-out", ErrInvalidInput)
	}
	members, err := s.org.ListDepartmentMembers(ctx, in.DepartmentID)
	if err != nil {
		if errors.Is(err, org.ErrNotFound) {
			return zero, fmt.Errorf("%w: department %s", ErrForeignKeyViolation, in.DepartmentID)
		}
		return zero, err
	}
	pool := members[:0]
	for _, member := range members {
		if !member.IsManagement() {
			pool = append(pool, member)
		}
	}
	if len(pool) == 0 {
		return zero, fmt.Errorf("%w: department has no assignable members", ErrInvalidInput)
	}

	result := RunBatch(ctx, pool, func(ctx context.Context, member org.Employee) error {
		memberIn := in
		memberIn.DepartmentID = ""
		memberIn.EmployeeID = member.ID
		_, err := s.Assign(ctx, memberIn)
		return err
	})
	for _, failure := range result.Failed {
		slog.Warn("fan-out assignment failed",
			"employeeId", failure.Item.ID,
			"kpiId", in.KpiID,
			"error", failure.Msg)
	}
	return result, nil
}

func (s *Service) GetRecord(ctx context.Context, recordID string) (*Record, error) {
	return s.store.GetRecord(ctx, recordID)
}

func (s *Service) ListRecords(ctx context.Context, filter RecordFilter) ([]Record, error) {
	return s.store.ListRecords(ctx, filter)
}

// Progress

// UpdateActual records interim progress on an open record.
func (s *Service) UpdateActual(ctx context.Context, recordID string, actual float64) (*Record, error) {
	if actual < 0 || math.IsNaN(actual) || math.IsInf(actual, 0) {
		return nil, fmt.Errorf("%w: actual must be a finite value >= 0", ErrInvalidInput)
	}
	rec, err := s.store.GetRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	switch rec.Status {
	case StatusApproved, StatusCompleted:
		return nil, fmt.Errorf("%w: record is %s", ErrAlreadyFinalized, rec.Status)
	}

	progress := ProgressPercent(actual, rec.Target)
	status := StatusForActual(rec.Status, actual)
	if err := s.store.UpdateRecordProgress(ctx, recordID, actual, progress, status); err != nil {
		return nil, err
	}

	updated, err := s.store.GetRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Kind:         events.KindProgressUpdated,
		RecordID:     updated.ID,
		KpiName:      updated.KpiName,
		AssigneeID:   firstNonEmpty(updated.EmployeeID, updated.DepartmentID),
		AssigneeName: updated.AssigneeName,
		Period:       updated.Period,
	})
	return updated, nil
}

// Submission

type SubmitItemInput struct {
	RecordID string  `validate:"required"`
	Actual   float64 `validate:"gte=0"`
	Notes    string
}

type SubmitBatchInput struct {
	EmployeeID  string `validate:"required"`
	Details     string
	Attachments string
	Items       []SubmitItemInput `validate:"required,min=1,dive"`
}

// SubmitBatch files one employee's results across several records for
// approval in a single submission.
func (s *Service) SubmitBatch(ctx context.Context, in SubmitBatchInput) (*Submission, error) {
	if in.EmployeeID == "" {
		return nil, fmt.Errorf("%w: employeeId is required", ErrInvalidInput)
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", ErrInvalidInput)
	}

	records := make(map[string]*Record, len(in.Items))
	var finalized []string
	for _, item := range in.Items {
		if item.Actual < 0 || math.IsNaN(item.Actual) || math.IsInf(item.Actual, 0) {
			return nil, fmt.Errorf("%w: actual must be a finite value >= 0", ErrInvalidInput)
		}
		if _, dup := records[item.RecordID]; dup {
			return nil, fmt.Errorf("%w: record %s listed twice", ErrInvalidInput, item.RecordID)
		}
		rec, err := s.store.GetRecord(ctx, item.RecordID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, fmt.Errorf("%w: record %s", ErrNotFound, item.RecordID)
			}
			return nil, err
		}
		if rec.EmployeeID != in.EmployeeID {
			return nil, fmt.Errorf("%w: record %s is not assigned to employee %s", ErrInvalidInput, item.RecordID, in.EmployeeID)
		}
		switch rec.Status {
		case StatusApproved, StatusCompleted:
			finalized = append(finalized, rec.KpiName)
		}
		records[item.RecordID] = rec
	}
	if len(finalized) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyFinalized, strings.Join(finalized, ", "))
	}

	now := s.now()
	sub := Submission{
		EmployeeID:  in.EmployeeID,
		Details:     in.Details,
		Attachments: in.Attachments,
		SubmittedAt: now,
	}
	for _, item := range in.Items {
		rec := records[item.RecordID]
		sub.Items = append(sub.Items, SubmissionItem{
			RecordID: item.RecordID,
			Actual:   item.Actual,
			Progress: ProgressPercent(item.Actual, rec.Target),
			Notes:    item.Notes,
		})
	}

	id, err := s.store.CreateSubmission(ctx, sub)
	if err != nil {
		return nil, err
	}

	for _, item := range sub.Items {
		rec := records[item.RecordID]
		if err := s.store.MarkSubmitted(ctx, item.RecordID, item.Actual, item.Progress, in.Details, in.Attachments, now); err != nil {
			slog.Error("marking record submitted failed", "recordId", item.RecordID, "error", err)
			continue
		}
		s.publish(ctx, events.Event{
			Kind:         events.KindSubmitted,
			RecordID:     item.RecordID,
			KpiName:      rec.KpiName,
			AssigneeID:   in.EmployeeID,
			AssigneeName: rec.AssigneeName,
			Period:       rec.Period,
		})
	}

	return s.store.GetSubmission(ctx, id)
}

// Submit files a single record; it is a one-item batch under the hood.
func (s *Service) Submit(ctx context.Context, recordID string, actual float64, details, attachments string) (*Record, error) {
	if actual < 0 || math.IsNaN(actual) || math.IsInf(actual, 0) {
		return nil, fmt.Errorf("%w: actual must be a finite value >= 0", ErrInvalidInput)
	}
	rec, err := s.store.GetRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	switch rec.Status {
	case StatusApproved, StatusCompleted:
		return nil, fmt.Errorf("%w: record is %s", ErrAlreadyFinalized, rec.Status)
	}

	progress := ProgressPercent(actual, rec.Target)
	if err := s.store.MarkSubmitted(ctx, recordID, actual, progress, details, attachments, s.now()); err != nil {
		return nil, err
	}
	updated, err := s.store.GetRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Kind:         events.KindSubmitted,
		RecordID:     updated.ID,
		KpiName:      updated.KpiName,
		AssigneeID:   firstNonEmpty(updated.EmployeeID, updated.DepartmentID),
		AssigneeName: updated.AssigneeName,
		Period:       updated.Period,
	})
	return updated, nil
}

func (s *Service) GetSubmission(ctx context.Context, submissionID string) (*Submission, error) {
	return s.store.GetSubmission(ctx, submissionID)
}

func (s *Service) ListSubmissions(ctx context.Context, employeeID string) ([]Submission, error) {
	return s.store.ListSubmissions(ctx, employeeID)
}

// Decision

// Decide approves or rejects a pending record. Approval freezes progress as
// the score and issues the bonus or penalty the reward bands dictate.
func (s *Service) Decide(ctx context.Context, recordID, outcome, approverID, feedback string) (*Record, error) {
	if outcome != OutcomeApproved && outcome != OutcomeRejected {
		return nil, fmt.Errorf("%w: outcome must be approved or rejected", ErrInvalidInput)
	}
	rec, err := s.store.GetRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	switch rec.Status {
	case StatusApproved, StatusCompleted:
		return nil, fmt.Errorf("%w: record is %s", ErrAlreadyFinalized, rec.Status)
	case StatusPendingApproval:
	default:
		return nil, fmt.Errorf("%w: record is %s, expected %s", ErrInvalidInput, rec.Status, StatusPendingApproval)
	}

	now := s.now()
	var reward RewardOutcome
	score := rec.Score
	status := StatusRejected
	if outcome == OutcomeApproved {
		status = StatusApproved
		score = rec.Progress
		feedback = ""
		// Reward amounts come from the definition at decision time. A
		// deactivated definition approves with zero amounts.
		var rule RewardRule
		def, err := s.store.GetDefinition(ctx, rec.KpiID)
		if err == nil {
			rule = RewardRule{BonusAmount: def.BonusAmount, PenaltyAmount: def.PenaltyAmount}
		} else if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		reward = ApplyRule(rule, rec.Progress)
	}

	if err := s.store.MarkDecided(ctx, recordID, status, approverID, now, reward, score, feedback); err != nil {
		return nil, err
	}

	if outcome == OutcomeApproved && rec.EmployeeID != "" {
		s.writeLedger(ctx, rec, reward, approverID)
	}

	updated, err := s.store.GetRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Kind:         events.KindDecided,
		RecordID:     updated.ID,
		KpiName:      updated.KpiName,
		AssigneeID:   firstNonEmpty(updated.EmployeeID, updated.DepartmentID),
		AssigneeName: updated.AssigneeName,
		Period:       updated.Period,
		Outcome:      outcome,
	})
	if outcome == OutcomeApproved {
		s.publishReward(ctx, updated, reward)
	}
	return updated, nil
}

// writeLedger appends bonus/penalty audit rows. Failures are logged, not
// fatal: the amounts stored on the record remain authoritative.
func (s *Service) writeLedger(ctx context.Context, rec *Record, reward RewardOutcome, approverID string) {
	entries := []LedgerEntry{}
	if reward.Bonus.IsPositive() {
		entries = append(entries, LedgerEntry{
			EmployeeID: rec.EmployeeID, KpiID: rec.KpiID, Type: EntryBonus,
			Amount: reward.Bonus, Period: rec.Period, CreatedBy: approverID,
			Reason: fmt.Sprintf("approved %q at %.2f%%", rec.KpiName, rec.Progress),
		})
	}
	if reward.Penalty.IsPositive() {
		entries = append(entries, LedgerEntry{
			EmployeeID: rec.EmployeeID, KpiID: rec.KpiID, Type: EntryPenalty,
			Amount: reward.Penalty, Period: rec.Period, CreatedBy: approverID,
			Reason: fmt.Sprintf("approved %q at %.2f%%", rec.KpiName, rec.Progress),
		})
	}
	for _, entry := range entries {
		if _, err := s.store.CreateLedgerEntry(ctx, entry); err != nil {
			slog.Error("ledger entry failed", "recordId", rec.ID, "type", entry.Type, "error", err)
		}
	}
}

func (s *Service) publishReward(ctx context.Context, rec *Record, reward RewardOutcome) {
	if reward.Bonus.IsPositive() {
		s.publish(ctx, events.Event{
			Kind: events.KindBonusPenaltyIssued, RecordID: rec.ID, KpiName: rec.KpiName,
			AssigneeID: firstNonEmpty(rec.EmployeeID, rec.DepartmentID), AssigneeName: rec.AssigneeName,
			Period: rec.Period, EntryType: EntryBonus, Amount: reward.Bonus,
		})
	}
	if reward.Penalty.IsPositive() {
		s.publish(ctx, events.Event{
			Kind: events.KindBonusPenaltyIssued, RecordID: rec.ID, KpiName: rec.KpiName,
			AssigneeID: firstNonEmpty(rec.EmployeeID, rec.DepartmentID), AssigneeName: rec.AssigneeName,
			Period: rec.Period, EntryType: EntryPenalty, Amount: reward.Penalty,
		})
	}
}

// DecideSubmission applies one decision across every record in a batched
// submission. Per-record failures are logged and skipped so one bad record
// cannot block the rest of the batch.
func (s *Service) DecideSubmission(ctx context.Context, submissionID, outcome, approverID, reason string) (*Submission, error) {
	if outcome != OutcomeApproved && outcome != OutcomeRejected {
		return nil, fmt.Errorf("%w: outcome must be approved or rejected", ErrInvalidInput)
	}
	sub, err := s.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.Status != StatusPendingApproval {
		return nil, fmt.Errorf("%w: submission is %s", ErrAlreadyFinalized, sub.Status)
	}

	for _, item := range sub.Items {
		if _, err := s.Decide(ctx, item.RecordID, outcome, approverID, reason); err != nil {
			slog.Warn("submission item decision failed", "submissionId", submissionID, "recordId", item.RecordID, "error", err)
		}
	}

	status := StatusRejected
	if outcome == OutcomeApproved {
		status = StatusApproved
		reason = ""
	}
	if err := s.store.DecideSubmission(ctx, submissionID, status, approverID, reason, s.now()); err != nil {
		return nil, err
	}
	return s.store.GetSubmission(ctx, submissionID)
}

// Complete administratively closes a record without the approval flow.
func (s *Service) Complete(ctx context.Context, recordID string) (*Record, error) {
	rec, err := s.store.GetRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	switch rec.Status {
	case StatusApproved, StatusCompleted:
		return nil, fmt.Errorf("%w: record is %s", ErrAlreadyFinalized, rec.Status)
	}
	if err := s.store.UpdateRecordStatus(ctx, recordID, StatusCompleted); err != nil {
		return nil, err
	}
	return s.store.GetRecord(ctx, recordID)
}

// Cancel soft-deletes a record, freeing its assignment slot for the period.
func (s *Service) Cancel(ctx context.Context, recordID string) error {
	return s.store.CancelRecord(ctx, recordID)
}

// Ledger

func (s *Service) AddLedgerEntry(ctx context.Context, entry LedgerEntry) (string, error) {
	if entry.EmployeeID == "" {
		return "", fmt.Errorf("%w: employeeId is required", ErrInvalidInput)
	}
	if entry.Type != EntryBonus && entry.Type != EntryPenalty {
		return "", fmt.Errorf("%w: type must be bonus or penalty", ErrInvalidInput)
	}
	if !entry.Amount.IsPositive() {
		return "", fmt.Errorf("%w: amount must be > 0", ErrInvalidInput)
	}
	return s.store.CreateLedgerEntry(ctx, entry)
}

func (s *Service) ListLedgerEntries(ctx context.Context, employeeID string) ([]LedgerEntry, error) {
	return s.store.ListLedgerEntries(ctx, employeeID)
}

func (s *Service) resolveAssignee(ctx context.Context, employeeID, departmentID string) (string, error) {
	if employeeID != "" {
		emp, err := s.org.GetEmployee(ctx, employeeID)
		if err != nil {
			if errors.Is(err, org.ErrNotFound) {
				return "", fmt.Errorf("%w: employee %s", ErrForeignKeyViolation, employeeID)
			}
			return "", err
		}
		return emp.Name, nil
	}
	dept, err := s.org.GetDepartment(ctx, departmentID)
	if err != nil {
		if errors.Is(err, org.ErrNotFound) {
			return "", fmt.Errorf("%w: department %s", ErrForeignKeyViolation, departmentID)
		}
		return "", err
	}
	return dept.Name, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
