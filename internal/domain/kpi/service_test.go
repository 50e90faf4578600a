package kpi

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kpitrack/internal/domain/org"
	"kpitrack/internal/platform/events"
)

// fakeStore is an in-memory StoreAPI for service tests.
type fakeStore struct {
	seq       int
	defs      map[string]Definition
	recs      map[string]*Record
	subs      map[string]*Submission
	ledger    []LedgerEntry
	reminders map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		defs:      map[string]Definition{},
		recs:      map[string]*Record{},
		subs:      map[string]*Submission{},
		reminders: map[string]bool{},
	}
}

func (f *fakeStore) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeStore) CreateDefinition(_ context.Context, def Definition) (string, error) {
	def.ID = f.nextID("def")
	def.Active = true
	f.defs[def.ID] = def
	return def.ID, nil
}

func (f *fakeStore) GetDefinition(_ context.Context, id string) (*Definition, error) {
	def, ok := f.defs[id]
	if !ok || !def.Active {
		return nil, ErrNotFound
	}
	out := def
	return &out, nil
}

func (f *fakeStore) ListDefinitions(_ context.Context, departmentID string) ([]Definition, error) {
	var out []Definition
	for _, def := range f.defs {
		if def.Active && (departmentID == "" || def.DepartmentID == departmentID || def.DepartmentID == "") {
			out = append(out, def)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateDefinition(_ context.Context, def Definition) error {
	existing, ok := f.defs[def.ID]
	if !ok || !existing.Active {
		return ErrNotFound
	}
	def.Active = true
	f.defs[def.ID] = def
	return nil
}

func (f *fakeStore) DeactivateDefinition(_ context.Context, id string) error {
	def, ok := f.defs[id]
	if !ok || !def.Active {
		return ErrNotFound
	}
	def.Active = false
	f.defs[id] = def
	return nil
}

func (f *fakeStore) CreateRecord(_ context.Context, rec Record) (string, error) {
	rec.ID = f.nextID("rec")
	rec.Active = true
	if def, ok := f.defs[rec.KpiID]; ok {
		rec.KpiName = def.Name
	}
	f.recs[rec.ID] = &rec
	return rec.ID, nil
}

func (f *fakeStore) GetRecord(_ context.Context, id string) (*Record, error) {
	rec, ok := f.recs[id]
	if !ok || !rec.Active {
		return nil, ErrNotFound
	}
	out := *rec
	return &out, nil
}

func (f *fakeStore) ListRecords(_ context.Context, filter RecordFilter) ([]Record, error) {
	var out []Record
	for _, rec := range f.recs {
		if !rec.Active {
			continue
		}
		if filter.KpiID != "" && rec.KpiID != filter.KpiID {
			continue
		}
		if filter.EmployeeID != "" && rec.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		out = append(out, *rec)
	}
	return out, nil
}

func (f *fakeStore) ActiveAssignmentExists(_ context.Context, kpiID, employeeID, departmentID, period string) (bool, error) {
	for _, rec := range f.recs {
		if !rec.Active || rec.KpiID != kpiID || rec.Period != period {
			continue
		}
		if employeeID != "" && rec.EmployeeID == employeeID {
			return true, nil
		}
		if departmentID != "" && rec.DepartmentID == departmentID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) UpdateRecordProgress(_ context.Context, id string, actual, progress float64, status string) error {
	rec, ok := f.recs[id]
	if !ok || !rec.Active {
		return ErrNotFound
	}
	rec.Actual = actual
	rec.Progress = progress
	rec.Status = status
	return nil
}

func (f *fakeStore) MarkSubmitted(_ context.Context, id string, actual, progress float64, details, attachments string, submittedAt time.Time) error {
	rec, ok := f.recs[id]
	if !ok || !rec.Active {
		return ErrNotFound
	}
	rec.Actual = actual
	rec.Progress = progress
	rec.Status = StatusPendingApproval
	rec.SubmissionDetails = details
	rec.Attachments = attachments
	rec.SubmittedAt = &submittedAt
	rec.RejectionReason = ""
	return nil
}

func (f *fakeStore) MarkDecided(_ context.Context, id, status, approverID string, decidedAt time.Time, outcome RewardOutcome, score float64, feedback string) error {
	rec, ok := f.recs[id]
	if !ok || !rec.Active {
		return ErrNotFound
	}
	rec.Status = status
	rec.ApproverID = approverID
	rec.ApprovedAt = &decidedAt
	rec.BonusAmount = outcome.Bonus
	rec.PenaltyAmount = outcome.Penalty
	rec.Score = score
	rec.RejectionReason = feedback
	return nil
}

func (f *fakeStore) UpdateRecordStatus(_ context.Context, id, status string) error {
	rec, ok := f.recs[id]
	if !ok || !rec.Active {
		return ErrNotFound
	}
	rec.Status = status
	return nil
}

func (f *fakeStore) CancelRecord(_ context.Context, id string) error {
	rec, ok := f.recs[id]
	if !ok || !rec.Active {
		return ErrNotFound
	}
	rec.Active = false
	return nil
}

func (f *fakeStore) CreateSubmission(_ context.Context, sub Submission) (string, error) {
	sub.ID = f.nextID("sub")
	sub.Status = StatusPendingApproval
	for i := range sub.Items {
		sub.Items[i].ID = f.nextID("item")
		sub.Items[i].SubmissionID = sub.ID
	}
	f.subs[sub.ID] = &sub
	return sub.ID, nil
}

func (f *fakeStore) GetSubmission(_ context.Context, id string) (*Submission, error) {
	sub, ok := f.subs[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *sub
	out.Items = append([]SubmissionItem{}, sub.Items...)
	return &out, nil
}

func (f *fakeStore) ListSubmissions(_ context.Context, employeeID string) ([]Submission, error) {
	var out []Submission
	for _, sub := range f.subs {
		if employeeID == "" || sub.EmployeeID == employeeID {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (f *fakeStore) DecideSubmission(_ context.Context, id, status, approverID, reason string, decidedAt time.Time) error {
	sub, ok := f.subs[id]
	if !ok {
		return ErrNotFound
	}
	sub.Status = status
	sub.ApproverID = approverID
	sub.RejectionReason = reason
	sub.DecidedAt = &decidedAt
	return nil
}

func (f *fakeStore) CreateLedgerEntry(_ context.Context, entry LedgerEntry) (string, error) {
	entry.ID = f.nextID("led")
	entry.Active = true
	f.ledger = append(f.ledger, entry)
	return entry.ID, nil
}

func (f *fakeStore) ListLedgerEntries(_ context.Context, employeeID string) ([]LedgerEntry, error) {
	var out []LedgerEntry
	for _, entry := range f.ledger {
		if employeeID == "" || entry.EmployeeID == employeeID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (f *fakeStore) LedgerTotals(_ context.Context, employeeID string) (decimal.Decimal, decimal.Decimal, error) {
	bonus, penalty := decimal.Zero, decimal.Zero
	for _, entry := range f.ledger {
		if entry.EmployeeID != employeeID {
			continue
		}
		if entry.Type == EntryBonus {
			bonus = bonus.Add(entry.Amount)
		} else {
			penalty = penalty.Add(entry.Amount)
		}
	}
	return bonus, penalty, nil
}

func (f *fakeStore) ListOpenRecords(_ context.Context) ([]Record, error) {
	open := map[string]bool{}
	for _, status := range OpenStatuses {
		open[status] = true
	}
	var out []Record
	for _, rec := range f.recs {
		if rec.Active && open[rec.Status] {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkReminded(_ context.Context, recordID string, day time.Time) (bool, error) {
	key := recordID + "|" + day.Format("2006-01-02")
	if f.reminders[key] {
		return false, nil
	}
	f.reminders[key] = true
	return true, nil
}

// fakeOrg is an in-memory org.StoreAPI with just enough behavior for
// assignment resolution.
type fakeOrg struct {
	employees   map[string]org.Employee
	departments map[string]org.Department
	members     map[string][]string
}

func newFakeOrg() *fakeOrg {
	return &fakeOrg{
		employees:   map[string]org.Employee{},
		departments: map[string]org.Department{},
		members:     map[string][]string{},
	}
}

func (f *fakeOrg) addEmployee(id, name, level, deptID string) {
	f.employees[id] = org.Employee{ID: id, Name: name, Level: level, PrimaryDepartmentID: deptID, Active: true}
	f.members[deptID] = append(f.members[deptID], id)
}

func (f *fakeOrg) ListBranches(context.Context) ([]org.Branch, error) { return nil, nil }
func (f *fakeOrg) GetBranch(context.Context, string) (*org.Branch, error) {
	return nil, org.ErrNotFound
}
func (f *fakeOrg) CreateBranch(context.Context, string) (string, error) { return "", nil }
func (f *fakeOrg) ListDepartments(context.Context, string) ([]org.Department, error) {
	return nil, nil
}

func (f *fakeOrg) GetDepartment(_ context.Context, id string) (*org.Department, error) {
	dept, ok := f.departments[id]
	if !ok {
		return nil, org.ErrNotFound
	}
	return &dept, nil
}

func (f *fakeOrg) CreateDepartment(context.Context, string, string, string) (string, error) {
	return "", nil
}
func (f *fakeOrg) DeactivateDepartment(context.Context, string) error { return nil }
func (f *fakeOrg) ListEmployees(context.Context, string) ([]org.Employee, error) {
	return nil, nil
}

func (f *fakeOrg) ListDepartmentMembers(_ context.Context, departmentID string) ([]org.Employee, error) {
	if _, ok := f.departments[departmentID]; !ok {
		return nil, org.ErrNotFound
	}
	var out []org.Employee
	for _, id := range f.members[departmentID] {
		out = append(out, f.employees[id])
	}
	return out, nil
}

func (f *fakeOrg) GetEmployee(_ context.Context, id string) (*org.Employee, error) {
	emp, ok := f.employees[id]
	if !ok {
		return nil, org.ErrNotFound
	}
	return &emp, nil
}

func (f *fakeOrg) CreateEmployee(context.Context, org.Employee) (string, error) { return "", nil }
func (f *fakeOrg) SetMemberships(context.Context, string, []string, string) error {
	return nil
}
func (f *fakeOrg) DeactivateEmployee(context.Context, string) error { return nil }

type fixture struct {
	store  *fakeStore
	org    *fakeOrg
	svc    *Service
	events *[]events.Event
	kpiID  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newFakeStore()
	orgStore := newFakeOrg()
	orgStore.departments["dept-1"] = org.Department{ID: "dept-1", Name: "Sales", Active: true}
	orgStore.addEmployee("emp-1", "An Nguyen", org.LevelStaff, "dept-1")
	orgStore.addEmployee("emp-2", "Binh Tran", org.LevelStaff, "dept-1")
	orgStore.addEmployee("mgr-1", "Chi Le", org.LevelManager, "dept-1")

	bus := events.NewBus()
	captured := &[]events.Event{}
	bus.Subscribe(func(_ context.Context, e events.Event) error {
		*captured = append(*captured, e)
		return nil
	})

	svc := NewService(store, orgStore, bus)
	svc.now = func() time.Time { return time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC) }

	kpiID, err := store.CreateDefinition(context.Background(), Definition{
		Name:          "New contracts signed",
		Target:        10,
		Frequency:     FrequencyMonthly,
		BonusAmount:   decimal.NewFromInt(500000),
		PenaltyAmount: decimal.NewFromInt(200000),
	})
	require.NoError(t, err)

	return &fixture{store: store, org: orgStore, svc: svc, events: captured, kpiID: kpiID}
}

func (f *fixture) assignInput() AssignInput {
	return AssignInput{
		KpiID:      f.kpiID,
		EmployeeID: "emp-1",
		Period:     "2026-08",
		StartDate:  time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) kinds() []events.Kind {
	out := make([]events.Kind, 0, len(*f.events))
	for _, e := range *f.events {
		out = append(out, e.Kind)
	}
	return out
}

func TestAssignCreatesRecord(t *testing.T) {
	f := newFixture(t)

	rec, err := f.svc.Assign(context.Background(), f.assignInput())
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, rec.Status) // start date already passed
	assert.Equal(t, float64(10), rec.Target)
	assert.Equal(t, float64(0), rec.Progress)
	require.Len(t, *f.events, 1)
	assert.Equal(t, events.KindAssigned, (*f.events)[0].Kind)
}

func TestAssignTargetOverrides(t *testing.T) {
	f := newFixture(t)

	in := f.assignInput()
	override := 25.0
	in.Target = &override
	rec, err := f.svc.Assign(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, float64(25), rec.Target)

	// An explicit zero is kept, not swapped for the definition's target;
	// qualitative assignments always read as met.
	in = f.assignInput()
	in.EmployeeID = "emp-2"
	zero := 0.0
	in.Target = &zero
	rec, err = f.svc.Assign(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, float64(0), rec.Target)
	assert.Equal(t, float64(100), rec.Progress)
}

func TestAssignFutureStartIsNotStarted(t *testing.T) {
	f := newFixture(t)
	in := f.assignInput()
	in.Period = "2026-09"
	in.StartDate = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	in.EndDate = time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)

	rec, err := f.svc.Assign(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, StatusNotStarted, rec.Status)
}

func TestAssignRejectsDuplicate(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Assign(context.Background(), f.assignInput())
	require.NoError(t, err)

	_, err = f.svc.Assign(context.Background(), f.assignInput())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateAssignment)

	var dup *DuplicateAssignmentError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "New contracts signed", dup.KpiName)
	assert.Equal(t, "An Nguyen", dup.AssigneeName)
}

func TestAssignSamePeriodDifferentEmployee(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Assign(context.Background(), f.assignInput())
	require.NoError(t, err)

	in := f.assignInput()
	in.EmployeeID = "emp-2"
	_, err = f.svc.Assign(context.Background(), in)
	assert.NoError(t, err)
}

func TestAssignValidation(t *testing.T) {
	f := newFixture(t)

	in := f.assignInput()
	in.DepartmentID = "dept-1" // both set
	_, err := f.svc.Assign(context.Background(), in)
	assert.ErrorIs(t, err, ErrInvalidInput)

	in = f.assignInput()
	in.EmployeeID = ""
	_, err = f.svc.Assign(context.Background(), in)
	assert.ErrorIs(t, err, ErrInvalidInput)

	in = f.assignInput()
	in.KpiID = "missing"
	_, err = f.svc.Assign(context.Background(), in)
	assert.ErrorIs(t, err, ErrForeignKeyViolation)

	in = f.assignInput()
	in.EmployeeID = "ghost"
	_, err = f.svc.Assign(context.Background(), in)
	assert.ErrorIs(t, err, ErrForeignKeyViolation)

	in = f.assignInput()
	in.EndDate = in.StartDate.AddDate(0, 0, -1)
	_, err = f.svc.Assign(context.Background(), in)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCancelFreesAssignmentSlot(t *testing.T) {
	f := newFixture(t)
	rec, err := f.svc.Assign(context.Background(), f.assignInput())
	require.NoError(t, err)

	require.NoError(t, f.svc.Cancel(context.Background(), rec.ID))

	_, err = f.svc.Assign(context.Background(), f.assignInput())
	assert.NoError(t, err, "cancelled record must not block reassignment")
}

func TestUpdateActualRecomputesProgress(t *testing.T) {
	f := newFixture(t)
	rec, err := f.svc.Assign(context.Background(), f.assignInput())
	require.NoError(t, err)

	updated, err := f.svc.UpdateActual(context.Background(), rec.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, float64(70), updated.Progress)
	assert.Equal(t, StatusInProgress, updated.Status)

	_, err = f.svc.UpdateActual(context.Background(), rec.ID, -1)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSubmitAndApproveFullBonus(t *testing.T) {
	f := newFixture(t)
	rec, err := f.svc.Assign(context.Background(), f.assignInput())
	require.NoError(t, err)

	submitted, err := f.svc.Submit(context.Background(), rec.ID, 12, "closed 12 deals", "")
	require.NoError(t, err)
	assert.Equal(t, StatusPendingApproval, submitted.Status)
	assert.Equal(t, float64(120), submitted.Progress)

	decided, err := f.svc.Decide(context.Background(), rec.ID, OutcomeApproved, "mgr-1", "")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, decided.Status)
	assert.Equal(t, float64(120), decided.Score)
	assert.Equal(t, "500000", decided.BonusAmount.String())
	assert.True(t, decided.PenaltyAmount.IsZero())

	entries, err := f.svc.ListLedgerEntries(context.Background(), "emp-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, EntryBonus, entries[0].Type)

	assert.Contains(t, f.kinds(), events.KindBonusPenaltyIssued)

	// Terminal: no further decisions or updates.
	_, err = f.svc.Decide(context.Background(), rec.ID, OutcomeRejected, "mgr-1", "")
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
	_, err = f.svc.UpdateActual(context.Background(), rec.ID, 1)
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
}

func TestApproveLowProgressIssuesPenalty(t *testing.T) {
	f := newFixture(t)
	rec, err := f.svc.Assign(context.Background(), f.assignInput())
	require.NoError(t, err)

	_, err = f.svc.Submit(context.Background(), rec.ID, 4, "", "")
	require.NoError(t, err)

	decided, err := f.svc.Decide(context.Background(), rec.ID, OutcomeApproved, "mgr-1", "")
	require.NoError(t, err)
	assert.Equal(t, float64(40), decided.Score)
	assert.Equal(t, "200000", decided.PenaltyAmount.String())
	assert.True(t, decided.BonusAmount.IsZero())

	entries, _ := f.svc.ListLedgerEntries(context.Background(), "emp-1")
	require.Len(t, entries, 1)
	assert.Equal(t, EntryPenalty, entries[0].Type)
}

func TestRejectAllowsResubmission(t *testing.T) {
	f := newFixture(t)
	rec, err := f.svc.Assign(context.Background(), f.assignInput())
	require.NoError(t, err)

	_, err = f.svc.Submit(context.Background(), rec.ID, 9, "", "")
	require.NoError(t, err)

	rejected, err := f.svc.Decide(context.Background(), rec.ID, OutcomeRejected, "mgr-1", "missing evidence")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)
	assert.Equal(t, "missing evidence", rejected.RejectionReason)
	assert.True(t, rejected.BonusAmount.IsZero())
	assert.True(t, rejected.PenaltyAmount.IsZero())

	// Rejection is not terminal.
	resubmitted, err := f.svc.Submit(context.Background(), rec.ID, 10, "with evidence", "")
	require.NoError(t, err)
	assert.Equal(t, StatusPendingApproval, resubmitted.Status)
	assert.Empty(t, resubmitted.RejectionReason, "resubmission clears the old feedback")

	approved, err := f.svc.Decide(context.Background(), rec.ID, OutcomeApproved, "mgr-1", "")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	assert.Equal(t, "500000", approved.BonusAmount.String())
}

func TestDecideRequiresPendingApproval(t *testing.T) {
	f := newFixture(t)
	rec, err := f.svc.Assign(context.Background(), f.assignInput())
	require.NoError(t, err)

	_, err = f.svc.Decide(context.Background(), rec.ID, OutcomeApproved, "mgr-1", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Decide(context.Background(), rec.ID, "maybe", "mgr-1", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCompleteIsTerminal(t *testing.T) {
	f := newFixture(t)
	rec, err := f.svc.Assign(context.Background(), f.assignInput())
	require.NoError(t, err)

	completed, err := f.svc.Complete(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)

	_, err = f.svc.Complete(context.Background(), rec.ID)
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
	_, err = f.svc.Submit(context.Background(), rec.ID, 5, "", "")
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
	_, err = f.svc.UpdateActual(context.Background(), rec.ID, 5)
	assert.ErrorIs(t, err, ErrAlreadyFinalized, "closed records take no further progress")
}

func TestSubmitBatch(t *testing.T) {
	f := newFixture(t)
	rec1, err := f.svc.Assign(context.Background(), f.assignInput())
	require.NoError(t, err)

	secondKpi, err := f.store.CreateDefinition(context.Background(), Definition{
		Name: "Tickets resolved", Target: 120, Frequency: FrequencyMonthly,
		BonusAmount: decimal.NewFromInt(250000), PenaltyAmount: decimal.NewFromInt(100000),
	})
	require.NoError(t, err)
	in := f.assignInput()
	in.KpiID = secondKpi
	rec2, err := f.svc.Assign(context.Background(), in)
	require.NoError(t, err)

	sub, err := f.svc.SubmitBatch(context.Background(), SubmitBatchInput{
		EmployeeID: "emp-1",
		Details:    "monthly report",
		Items: []SubmitItemInput{
			{RecordID: rec1.ID, Actual: 10},
			{RecordID: rec2.ID, Actual: 60},
		},
	})
	require.NoError(t, err)
	require.Len(t, sub.Items, 2)
	assert.Equal(t, StatusPendingApproval, sub.Status)

	for _, id := range []string{rec1.ID, rec2.ID} {
		rec, err := f.svc.GetRecord(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, StatusPendingApproval, rec.Status)
	}
}

func TestSubmitBatchRejectsApprovedRecordByName(t *testing.T) {
	f := newFixture(t)
	rec, err := f.svc.Assign(context.Background(), f.assignInput())
	require.NoError(t, err)
	_, err = f.svc.Submit(context.Background(), rec.ID, 10, "", "")
	require.NoError(t, err)
	_, err = f.svc.Decide(context.Background(), rec.ID, OutcomeApproved, "mgr-1", "")
	require.NoError(t, err)

	_, err = f.svc.SubmitBatch(context.Background(), SubmitBatchInput{
		EmployeeID: "emp-1",
		Items:      []SubmitItemInput{{RecordID: rec.ID, Actual: 11}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
	assert.Contains(t, err.Error(), "New contracts signed")
	assert.Empty(t, f.store.subs, "no submission header may be created")
}

func TestSubmitBatchValidation(t *testing.T) {
	f := newFixture(t)
	rec, err := f.svc.Assign(context.Background(), f.assignInput())
	require.NoError(t, err)

	_, err = f.svc.SubmitBatch(context.Background(), SubmitBatchInput{EmployeeID: "emp-1"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.SubmitBatch(context.Background(), SubmitBatchInput{
		EmployeeID: "emp-2",
		Items:      []SubmitItemInput{{RecordID: rec.ID, Actual: 1}},
	})
	assert.ErrorIs(t, err, ErrInvalidInput, "records of another employee must be rejected")

	_, err = f.svc.SubmitBatch(context.Background(), SubmitBatchInput{
		EmployeeID: "emp-1",
		Items: []SubmitItemInput{
			{RecordID: rec.ID, Actual: 1},
			{RecordID: rec.ID, Actual: 2},
		},
	})
	assert.ErrorIs(t, err, ErrInvalidInput, "duplicate record in one batch")
}

func TestDecideSubmissionAppliesToAllItems(t *testing.T) {
	f := newFixture(t)
	rec1, err := f.svc.Assign(context.Background(), f.assignInput())
	require.NoError(t, err)
	in := f.assignInput()
	in.EmployeeID = "emp-2"
	rec2, err := f.svc.Assign(context.Background(), in)
	require.NoError(t, err)
	// emp-2's record is filed by emp-2.
	sub1, err := f.svc.SubmitBatch(context.Background(), SubmitBatchInput{
		EmployeeID: "emp-1",
		Items:      []SubmitItemInput{{RecordID: rec1.ID, Actual: 10}},
	})
	require.NoError(t, err)
	_, err = f.svc.SubmitBatch(context.Background(), SubmitBatchInput{
		EmployeeID: "emp-2",
		Items:      []SubmitItemInput{{RecordID: rec2.ID, Actual: 5}},
	})
	require.NoError(t, err)

	decided, err := f.svc.DecideSubmission(context.Background(), sub1.ID, OutcomeApproved, "mgr-1", "")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, decided.Status)

	rec, err := f.svc.GetRecord(context.Background(), rec1.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, rec.Status)

	// Already decided submissions are terminal.
	_, err = f.svc.DecideSubmission(context.Background(), sub1.ID, OutcomeRejected, "mgr-1", "")
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
}

func TestFanOutSkipsManagement(t *testing.T) {
	f := newFixture(t)
	in := f.assignInput()
	in.EmployeeID = ""
	in.DepartmentID = "dept-1"

	result, err := f.svc.AssignToDepartmentMembers(context.Background(), in)
	require.NoError(t, err)
	assert.Len(t, result.Succeeded, 2, "manager must be excluded")
	assert.Empty(t, result.Failed)

	// Re-running fans out into duplicates only.
	result, err = f.svc.AssignToDepartmentMembers(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, result.AllFailed())
	for _, failure := range result.Failed {
		assert.ErrorIs(t, failure.Err, ErrDuplicateAssignment)
	}
}

func TestFanOutUnknownDepartment(t *testing.T) {
	f := newFixture(t)
	in := f.assignInput()
	in.EmployeeID = ""
	in.DepartmentID = "ghost"
	_, err := f.svc.AssignToDepartmentMembers(context.Background(), in)
	assert.ErrorIs(t, err, ErrForeignKeyViolation)
}

func TestAddLedgerEntryValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AddLedgerEntry(context.Background(), LedgerEntry{EmployeeID: "emp-1", Type: "refund", Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.AddLedgerEntry(context.Background(), LedgerEntry{EmployeeID: "emp-1", Type: EntryBonus, Amount: decimal.Zero})
	assert.ErrorIs(t, err, ErrInvalidInput)

	id, err := f.svc.AddLedgerEntry(context.Background(), LedgerEntry{EmployeeID: "emp-1", Type: EntryBonus, Amount: decimal.NewFromInt(50000), Reason: "spot award"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestDuplicateAssignmentErrorMessage(t *testing.T) {
	err := &DuplicateAssignmentError{KpiName: "Tickets resolved", AssigneeName: "An Nguyen", Period: "2026-08"}
	assert.True(t, errors.Is(err, ErrDuplicateAssignment))
	assert.Contains(t, err.Error(), "Tickets resolved")
	assert.Contains(t, err.Error(), "An Nguyen")
}
