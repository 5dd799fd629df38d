package core

import "github.com/shopspring/decimal"

// DerivedMetrics is recomputed from scratch on every interaction.
type DerivedMetrics struct {
	TotalSpent  decimal.Decimal `json:"total_spent"`
	FoodSpent   decimal.Decimal `json:"food_spent"`
	SavingsRate decimal.Decimal `json:"savings_rate"`
}

// CategoryAmount represents a category name with its spent amount
type CategoryAmount struct {
	Name   Category        `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// BudgetLine is one row of a proposed allocation.
type BudgetLine struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// InvestmentSuggestion is the risk-tiered idea shown on the dashboard.
type InvestmentSuggestion struct {
	Risk   RiskProfile     `json:"risk_profile"`
	Amount decimal.Decimal `json:"amount"`
	Text   string          `json:"text"`
}
