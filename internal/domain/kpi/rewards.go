package kpi

import "github.com/shopspring/decimal"

var two = decimal.NewFromInt(2)

// RewardRule carries the configured amounts for one KPI definition.
type RewardRule struct {
	BonusAmount   decimal.Decimal
	PenaltyAmount decimal.Decimal
}

// RewardOutcome is the bonus/penalty pair awarded at approval time. At most
// one of the two is non-zero.
type RewardOutcome struct {
	Bonus   decimal.Decimal
	Penalty decimal.Decimal
}

// ApplyRule resolves the reward bands for an approved record:
//
//	progress >= 100  full bonus
//	80 <= p < 100    half bonus
//	70 <= p < 80     neither
//	50 <= p < 70     half penalty
//	p < 50           full penalty
func ApplyRule(rule RewardRule, progress float64) RewardOutcome {
	switch {
	case progress >= 100:
		return RewardOutcome{Bonus: rule.BonusAmount}
	case progress >= 80:
		return RewardOutcome{Bonus: rule.BonusAmount.Div(two)}
	case progress >= 70:
		return RewardOutcome{}
	case progress >= 50:
		return RewardOutcome{Penalty: rule.PenaltyAmount.Div(two)}
	default:
		return RewardOutcome{Penalty: rule.PenaltyAmount}
	}
}
