package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

type (
	RiskProfile string
	Language    string
	Goal        string
)

const (
	Conservative RiskProfile = "Conservative"
	Moderate     RiskProfile = "Moderate"
	Aggressive   RiskProfile = "Aggressive"
)

const (
	English Language = "English"
	Spanish Language = "Spanish"
)

const (
	GoalSave500       Goal = "Save $500/month"
	GoalPayOffDebt    Goal = "Pay off debt"
	GoalEmergencyFund Goal = "Build emergency fund"
	GoalInvestMore    Goal = "Invest more"
)

// Goals lists the selectable goals in display order.
var Goals = []Goal{GoalSave500, GoalPayOffDebt, GoalEmergencyFund, GoalInvestMore}

// RiskProfiles lists the selectable risk tiers in display order.
var RiskProfiles = []RiskProfile{Conservative, Moderate, Aggressive}

// Languages lists the supported response languages.
var Languages = []Language{English, Spanish}

// UserSettings is the per-session user input. Income is not validated here;
// the engine treats income <= 0 as a guarded case.
type UserSettings struct {
	MonthlyIncome decimal.Decimal `json:"monthly_income"`
	Goal          Goal            `json:"goal"`
	Risk          RiskProfile     `json:"risk_profile"`
	Language      Language        `json:"language"`
}

// DefaultSettings mirrors the values a new session starts with.
func DefaultSettings() UserSettings {
	return UserSettings{
		MonthlyIncome: decimal.NewFromInt(4000),
		Goal:          GoalSave500,
		Risk:          Moderate,
		Language:      English,
	}
}

func ParseRiskProfile(s string) (RiskProfile, error) {
	for _, r := range RiskProfiles {
		if strings.EqualFold(strings.TrimSpace(s), string(r)) {
			return r, nil
		}
	}
	return "", ErrInvalidRisk
}

// ParseLanguage accepts the canonical names and the "Español" UI label.
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "english", "en":
		return English, nil
	case "spanish", "español", "espanol", "es":
		return Spanish, nil
	}
	return "", ErrInvalidLanguage
}

func ParseGoal(s string) (Goal, error) {
	for _, g := range Goals {
		if strings.EqualFold(strings.TrimSpace(s), string(g)) {
			return g, nil
		}
	}
	return "", ErrInvalidGoal
}
