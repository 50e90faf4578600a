package events

import (
	"time"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindAssigned            Kind = "kpi.assigned"
	KindProgressUpdated     Kind = "kpi.progress_updated"
	KindSubmitted           Kind = "kpi.submitted"
	KindDecided             Kind = "kpi.decided"
	KindDeadlineApproaching Kind = "kpi.deadline_approaching"
	KindOverdue             Kind = "kpi.overdue"
	KindBonusPenaltyIssued  Kind = "kpi.bonus_penalty_issued"
)

// Event describes a lifecycle transition on a KPI record. Listeners must
// treat it as a trigger to re-read the record, not as an authoritative
// snapshot; intermediate states may have been missed.
type Event struct {
	Kind         Kind            `json:"kind"`
	RecordID     string          `json:"recordId"`
	KpiName      string          `json:"kpiName"`
	AssigneeID   string          `json:"assigneeId"`
	AssigneeName string          `json:"assigneeName"`
	Period       string          `json:"period"`
	Outcome      string          `json:"outcome,omitempty"`
	DaysLeft     int             `json:"daysLeft,omitempty"`
	EntryType    string          `json:"entryType,omitempty"`
	Amount       decimal.Decimal `json:"amount,omitempty"`
	OccurredAt   time.Time       `json:"occurredAt"`
}
