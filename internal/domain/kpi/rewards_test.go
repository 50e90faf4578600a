package kpi

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestApplyRuleBands(t *testing.T) {
	rule := RewardRule{
		BonusAmount:   decimal.NewFromInt(500000),
		PenaltyAmount: decimal.NewFromInt(200000),
	}

	cases := []struct {
		name        string
		progress    float64
		wantBonus   string
		wantPenalty string
	}{
		{"full bonus at 100", 100, "500000", "0"},
		{"full bonus above 100", 132.5, "500000", "0"},
		{"half bonus at 80", 80, "250000", "0"},
		{"half bonus at 99.99", 99.99, "250000", "0"},
		{"nothing at 70", 70, "0", "0"},
		{"nothing at 79.99", 79.99, "0", "0"},
		{"half penalty at 50", 50, "0", "100000"},
		{"half penalty at 69.99", 69.99, "0", "100000"},
		{"full penalty below 50", 49.99, "0", "200000"},
		{"full penalty at zero", 0, "0", "200000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ApplyRule(rule, tc.progress)
			if got.Bonus.String() != tc.wantBonus {
				t.Fatalf("bonus = %s, want %s", got.Bonus, tc.wantBonus)
			}
			if got.Penalty.String() != tc.wantPenalty {
				t.Fatalf("penalty = %s, want %s", got.Penalty, tc.wantPenalty)
			}
			if got.Bonus.IsPositive() && got.Penalty.IsPositive() {
				t.Fatal("bonus and penalty must not both be positive")
			}
		})
	}
}

func TestApplyRuleHalvesOddAmounts(t *testing.T) {
	rule := RewardRule{BonusAmount: decimal.NewFromInt(333)}
	got := ApplyRule(rule, 85)
	if got.Bonus.String() != "166.5" {
		t.Fatalf("half of 333 = %s, want 166.5", got.Bonus)
	}
}
