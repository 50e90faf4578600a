package kpi

const (
	StatusNotStarted      = "not_started"
	StatusInProgress      = "in_progress"
	StatusPendingApproval = "pending_approval"
	StatusApproved        = "approved"
	StatusRejected        = "rejected"
	StatusCompleted       = "completed"
	StatusOverdue         = "overdue"
)

const (
	FrequencyDaily     = "daily"
	FrequencyWeekly    = "weekly"
	FrequencyMonthly   = "monthly"
	FrequencyQuarterly = "quarterly"
	FrequencyYearly    = "yearly"
)

const (
	OutcomeApproved = "approved"
	OutcomeRejected = "rejected"
)

const (
	EntryBonus   = "bonus"
	EntryPenalty = "penalty"
)

// OpenStatuses are the non-terminal states the deadline scanner considers.
var OpenStatuses = []string{StatusNotStarted, StatusInProgress, StatusPendingApproval, StatusRejected}

func ValidFrequency(frequency string) bool {
	switch frequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}
