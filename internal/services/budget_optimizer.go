package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"fincoach/internal/core"
)

// Budget categories in display order.
const (
	BudgetGroceries     = "Groceries"
	BudgetDiningOut     = "Dining Out"
	BudgetTransport     = "Transport"
	BudgetEntertainment = "Entertainment"
	BudgetSavings       = "Savings/Investing"
)

// DefaultFoodBudget is the monthly food budget the dashboard compares against.
var DefaultFoodBudget = decimal.NewFromInt(200)

var (
	savingsShare        = decimal.RequireFromString("0.15")
	diningOutBudget     = decimal.NewFromInt(80)
	transportBudget     = decimal.NewFromInt(120)
	entertainmentBudget = decimal.NewFromInt(80)
)

// BudgetProposal is a flat allocation plus the acknowledgement shown once it
// is applied.
type BudgetProposal struct {
	Lines          []core.BudgetLine `json:"lines"`
	SavingsTarget  decimal.Decimal   `json:"savings_target"`
	Acknowledgment string            `json:"acknowledgment"`
}

// Amount returns the allocation for category, or zero if absent.
func (p BudgetProposal) Amount(category string) decimal.Decimal {
	for _, l := range p.Lines {
		if l.Category == category {
			return l.Amount
		}
	}
	return decimal.Zero
}

// OptimizeBudget returns the fixed-shape allocation. Savings is exactly
// income * 0.15, negative income included. savingsRate only feeds the
// acknowledgement text.
func OptimizeBudget(income, foodBudget, savingsRate decimal.Decimal) BudgetProposal {
	savings := income.Mul(savingsShare)

	ack := fmt.Sprintf("New budget applied! You're now on track to save **$%s/month** (%s%% rate)",
		core.FormatWhole(savings), core.FormatWhole(savingsRate))

	return BudgetProposal{
		Lines: []core.BudgetLine{
			{Category: BudgetGroceries, Amount: foodBudget},
			{Category: BudgetDiningOut, Amount: diningOutBudget},
			{Category: BudgetTransport, Amount: transportBudget},
			{Category: BudgetEntertainment, Amount: entertainmentBudget},
			{Category: BudgetSavings, Amount: savings},
		},
		SavingsTarget:  savings,
		Acknowledgment: ack,
	}
}
