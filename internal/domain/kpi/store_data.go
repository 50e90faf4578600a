package kpi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// translate maps Postgres constraint violations onto domain sentinels so
// callers never see driver error codes.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", ErrDuplicateAssignment, pgErr.ConstraintName)
		case "23503":
			return fmt.Errorf("%w: %s", ErrForeignKeyViolation, pgErr.ConstraintName)
		}
	}
	return err
}

const recordColumns = `
    r.id, r.kpi_id, k.name,
    COALESCE(r.employee_id::text, ''), COALESCE(r.department_id::text, ''),
    COALESCE(e.name, d.name, ''),
    r.period, r.target, r.actual, r.progress, r.status,
    COALESCE(r.submission_details, ''), COALESCE(r.attachments, ''),
    r.submitted_at, r.approved_at, COALESCE(r.approver_id::text, ''),
    COALESCE(r.rejection_reason, ''),
    r.bonus_amount, r.penalty_amount, r.score,
    r.start_date, r.end_date, r.active, r.created_at, r.updated_at`

const recordJoins = `
    FROM kpi_records r
    JOIN kpi_definitions k ON k.id = r.kpi_id
    LEFT JOIN employees e ON e.id = r.employee_id
    LEFT JOIN departments d ON d.id = r.department_id`

func scanRecord(row pgx.Row) (*Record, error) {
	var r Record
	err := row.Scan(
		&r.ID, &r.KpiID, &r.KpiName,
		&r.EmployeeID, &r.DepartmentID, &r.AssigneeName,
		&r.Period, &r.Target, &r.Actual, &r.Progress, &r.Status,
		&r.SubmissionDetails, &r.Attachments,
		&r.SubmittedAt, &r.ApprovedAt, &r.ApproverID,
		&r.RejectionReason,
		&r.BonusAmount, &r.PenaltyAmount, &r.Score,
		&r.StartDate, &r.EndDate, &r.Active, &r.CreatedAt, &r.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) CreateDefinition(ctx context.Context, def Definition) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO kpi_definitions (name, description, unit, target, frequency, bonus_amount, penalty_amount, department_id)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING id
  `, def.Name, def.Description, def.Unit, def.Target, def.Frequency,
		def.BonusAmount, def.PenaltyAmount, nullIfEmpty(def.DepartmentID)).Scan(&id)
	if err != nil {
		return "", translate(err)
	}
	return id, nil
}

func (s *Store) GetDefinition(ctx context.Context, definitionID string) (*Definition, error) {
	var def Definition
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, COALESCE(description, ''), COALESCE(unit, ''), target, frequency,
           bonus_amount, penalty_amount, COALESCE(department_id::text, ''), active, created_at, updated_at
    FROM kpi_definitions
    WHERE id = $1 AND active
  `, definitionID).Scan(&def.ID, &def.Name, &def.Description, &def.Unit, &def.Target, &def.Frequency,
		&def.BonusAmount, &def.PenaltyAmount, &def.DepartmentID, &def.Active, &def.CreatedAt, &def.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &def, nil
}

func (s *Store) ListDefinitions(ctx context.Context, departmentID string) ([]Definition, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, COALESCE(description, ''), COALESCE(unit, ''), target, frequency,
           bonus_amount, penalty_amount, COALESCE(department_id::text, ''), active, created_at, updated_at
    FROM kpi_definitions
    WHERE active AND ($1 = '' OR department_id::text = $1 OR department_id IS NULL)
    ORDER BY name
  `, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Definition
	for rows.Next() {
		var def Definition
		if err := rows.Scan(&def.ID, &def.Name, &def.Description, &def.Unit, &def.Target, &def.Frequency,
			&def.BonusAmount, &def.PenaltyAmount, &def.DepartmentID, &def.Active, &def.CreatedAt, &def.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, def)
	}
	return out, rows.Err()
}

func (s *Store) UpdateDefinition(ctx context.Context, def Definition) error {
	cmd, err := s.DB.Exec(ctx, `
    UPDATE kpi_definitions
    SET name = $2, description = $3, unit = $4, target = $5, frequency = $6,
        bonus_amount = $7, penalty_amount = $8, updated_at = now()
    WHERE id = $1 AND active
  `, def.ID, def.Name, def.Description, def.Unit, def.Target, def.Frequency, def.BonusAmount, def.PenaltyAmount)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeactivateDefinition(ctx context.Context, definitionID string) error {
	cmd, err := s.DB.Exec(ctx, `
    UPDATE kpi_definitions SET active = FALSE, updated_at = now() WHERE id = $1 AND active
  `, definitionID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CreateRecord(ctx context.Context, rec Record) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO kpi_records (kpi_id, employee_id, department_id, period, target, actual, progress, status, start_date, end_date)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    RETURNING id
  `, rec.KpiID, nullIfEmpty(rec.EmployeeID), nullIfEmpty(rec.DepartmentID),
		rec.Period, rec.Target, rec.Actual, rec.Progress, rec.Status, rec.StartDate, rec.EndDate).Scan(&id)
	if err != nil {
		return "", translate(err)
	}
	return id, nil
}

func (s *Store) GetRecord(ctx context.Context, recordID string) (*Record, error) {
	return scanRecord(s.DB.QueryRow(ctx, `
    SELECT`+recordColumns+recordJoins+`
    WHERE r.id = $1 AND r.active
  `, recordID))
}

func (s *Store) ListRecords(ctx context.Context, filter RecordFilter) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT`+recordColumns+recordJoins+`
    WHERE r.active
      AND ($1 = '' OR r.kpi_id::text = $1)
      AND ($2 = '' OR r.employee_id::text = $2)
      AND ($3 = '' OR r.department_id::text = $3)
      AND ($4 = '' OR r.period = $4)
      AND ($5 = '' OR r.status = $5)
      AND ($6::timestamptz IS NULL OR r.end_date >= $6)
      AND ($7::timestamptz IS NULL OR r.start_date <= $7)
    ORDER BY r.created_at DESC
  `, filter.KpiID, filter.EmployeeID, filter.DepartmentID, filter.Period, filter.Status,
		nullIfZeroTime(filter.From), nullIfZeroTime(filter.To))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

func (s *Store) ActiveAssignmentExists(ctx context.Context, kpiID, employeeID, departmentID, period string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (
      SELECT 1 FROM kpi_records
      WHERE kpi_id = $1 AND period = $2 AND active
        AND (($3 <> '' AND employee_id::text = $3) OR ($4 <> '' AND department_id::text = $4))
    )
  `, kpiID, period, employeeID, departmentID).Scan(&exists)
	return exists, err
}

func (s *Store) UpdateRecordProgress(ctx context.Context, recordID string, actual, progress float64, status string) error {
	cmd, err := s.DB.Exec(ctx, `
    UPDATE kpi_records
    SET actual = $2, progress = $3, status = $4, updated_at = now()
    WHERE id = $1 AND active
  `, recordID, actual, progress, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) MarkSubmitted(ctx context.Context, recordID string, actual, progress float64, details, attachments string, submittedAt time.Time) error {
	cmd, err := s.DB.Exec(ctx, `
    UPDATE kpi_records
    SET actual = $2, progress = $3, status = $4,
        submission_details = $5, attachments = $6, submitted_at = $7,
        rejection_reason = NULL, updated_at = now()
    WHERE id = $1 AND active
  `, recordID, actual, progress, StatusPendingApproval, details, attachments, submittedAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) MarkDecided(ctx context.Context, recordID, status, approverID string, decidedAt time.Time, outcome RewardOutcome, score float64, feedback string) error {
	cmd, err := s.DB.Exec(ctx, `
    UPDATE kpi_records
    SET status = $2, approver_id = $3, approved_at = $4,
        bonus_amount = $5, penalty_amount = $6, score = $7, rejection_reason = $8, updated_at = now()
    WHERE id = $1 AND active
  `, recordID, status, nullIfEmpty(approverID), decidedAt, outcome.Bonus, outcome.Penalty, score, feedback)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UpdateRecordStatus(ctx context.Context, recordID, status string) error {
	cmd, err := s.DB.Exec(ctx, `
    UPDATE kpi_records SET status = $2, updated_at = now() WHERE id = $1 AND active
  `, recordID, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CancelRecord(ctx context.Context, recordID string) error {
	cmd, err := s.DB.Exec(ctx, `
    UPDATE kpi_records SET active = FALSE, updated_at = now() WHERE id = $1 AND active
  `, recordID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CreateSubmission(ctx context.Context, sub Submission) (string, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id string
	if err := tx.QueryRow(ctx, `
    INSERT INTO kpi_submissions (employee_id, details, attachments, status, submitted_at)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id
  `, sub.EmployeeID, sub.Details, sub.Attachments, StatusPendingApproval, sub.SubmittedAt).Scan(&id); err != nil {
		return "", translate(err)
	}
	for _, item := range sub.Items {
		if _, err := tx.Exec(ctx, `
      INSERT INTO kpi_submission_items (submission_id, record_id, actual, progress, notes)
      VALUES ($1,$2,$3,$4,$5)
    `, id, item.RecordID, item.Actual, item.Progress, item.Notes); err != nil {
			return "", translate(err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) GetSubmission(ctx context.Context, submissionID string) (*Submission, error) {
	var sub Submission
	err := s.DB.QueryRow(ctx, `
    SELECT id, employee_id, COALESCE(details, ''), COALESCE(attachments, ''), status,
           COALESCE(approver_id::text, ''), COALESCE(rejection_reason, ''), submitted_at, decided_at
    FROM kpi_submissions
    WHERE id = $1
  `, submissionID).Scan(&sub.ID, &sub.EmployeeID, &sub.Details, &sub.Attachments, &sub.Status,
		&sub.ApproverID, &sub.RejectionReason, &sub.SubmittedAt, &sub.DecidedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.Query(ctx, `
    SELECT i.id, i.submission_id, i.record_id, k.name, i.actual, i.progress, COALESCE(i.notes, '')
    FROM kpi_submission_items i
    JOIN kpi_records r ON r.id = i.record_id
    JOIN kpi_definitions k ON k.id = r.kpi_id
    WHERE i.submission_id = $1
    ORDER BY k.name
  `, submissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item SubmissionItem
		if err := rows.Scan(&item.ID, &item.SubmissionID, &item.RecordID, &item.KpiName, &item.Actual, &item.Progress, &item.Notes); err != nil {
			return nil, err
		}
		sub.Items = append(sub.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *Store) ListSubmissions(ctx context.Context, employeeID string) ([]Submission, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, employee_id, COALESCE(details, ''), COALESCE(attachments, ''), status,
           COALESCE(approver_id::text, ''), COALESCE(rejection_reason, ''), submitted_at, decided_at
    FROM kpi_submissions
    WHERE ($1 = '' OR employee_id::text = $1)
    ORDER BY submitted_at DESC
  `, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		var sub Submission
		if err := rows.Scan(&sub.ID, &sub.EmployeeID, &sub.Details, &sub.Attachments, &sub.Status,
			&sub.ApproverID, &sub.RejectionReason, &sub.SubmittedAt, &sub.DecidedAt); err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *Store) DecideSubmission(ctx context.Context, submissionID, status, approverID, reason string, decidedAt time.Time) error {
	cmd, err := s.DB.Exec(ctx, `
    UPDATE kpi_submissions
    SET status = $2, approver_id = $3, rejection_reason = $4, decided_at = $5
    WHERE id = $1
  `, submissionID, status, nullIfEmpty(approverID), reason, decidedAt)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CreateLedgerEntry(ctx context.Context, entry LedgerEntry) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO ledger_entries (employee_id, kpi_id, entry_type, amount, reason, period, created_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id
  `, entry.EmployeeID, nullIfEmpty(entry.KpiID), entry.Type, entry.Amount,
		entry.Reason, entry.Period, nullIfEmpty(entry.CreatedBy)).Scan(&id)
	if err != nil {
		return "", translate(err)
	}
	return id, nil
}

// ListLedgerEntries returns one employee's active entries, or every active
// entry when employeeID is empty (the reporting path).
func (s *Store) ListLedgerEntries(ctx context.Context, employeeID string) ([]LedgerEntry, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, employee_id, COALESCE(kpi_id::text, ''), entry_type, amount,
           COALESCE(reason, ''), COALESCE(period, ''), COALESCE(created_by::text, ''), active, created_at
    FROM ledger_entries
    WHERE ($1 = '' OR employee_id::text = $1) AND active
    ORDER BY created_at DESC
  `, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LedgerEntry
	for rows.Next() {
		var entry LedgerEntry
		if err := rows.Scan(&entry.ID, &entry.EmployeeID, &entry.KpiID, &entry.Type, &entry.Amount,
			&entry.Reason, &entry.Period, &entry.CreatedBy, &entry.Active, &entry.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (s *Store) LedgerTotals(ctx context.Context, employeeID string) (decimal.Decimal, decimal.Decimal, error) {
	var bonus, penalty decimal.Decimal
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(SUM(amount) FILTER (WHERE entry_type = 'bonus'), 0),
           COALESCE(SUM(amount) FILTER (WHERE entry_type = 'penalty'), 0)
    FROM ledger_entries
    WHERE employee_id = $1 AND active
  `, employeeID).Scan(&bonus, &penalty)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return bonus, penalty, nil
}

func (s *Store) ListOpenRecords(ctx context.Context) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT`+recordColumns+recordJoins+`
    WHERE r.active AND r.status = ANY($1)
    ORDER BY r.end_date
  `, OpenStatuses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

// MarkReminded records that a deadline reminder went out for this record
// today. Returns false when one was already recorded for the same day.
func (s *Store) MarkReminded(ctx context.Context, recordID string, day time.Time) (bool, error) {
	cmd, err := s.DB.Exec(ctx, `
    INSERT INTO deadline_reminders (record_id, reminded_on)
    VALUES ($1, $2)
    ON CONFLICT (record_id, reminded_on) DO NOTHING
  `, recordID, day)
	if err != nil {
		return false, translate(err)
	}
	return cmd.RowsAffected() > 0, nil
}

func collectRecords(rows pgx.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullIfZeroTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
