package notifications

const (
	TypeKpiAssigned         = "kpi_assigned"
	TypeProgressUpdated     = "kpi_progress_updated"
	TypeKpiSubmitted        = "kpi_submitted"
	TypeKpiApproved         = "kpi_approved"
	TypeKpiRejected         = "kpi_rejected"
	TypeDeadlineApproaching = "kpi_deadline_approaching"
	TypeKpiOverdue          = "kpi_overdue"
	TypeBonusIssued         = "bonus_issued"
	TypePenaltyIssued       = "penalty_issued"
)
