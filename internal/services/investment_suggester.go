package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"fincoach/internal/core"
)

// amountPlaceholder marks where the monthly amount goes in an idea's text.
const amountPlaceholder = "{amount}"

type investmentIdea struct {
	fraction decimal.Decimal
	template string
}

var investmentIdeas = map[core.RiskProfile]investmentIdea{
	core.Conservative: {decimal.RequireFromString("0.05"), "High-yield savings at 5.1% APY → ${amount}/month"},
	core.Moderate:     {decimal.RequireFromString("0.075"), "VTI (Total Stock Market ETF) → recurring ${amount}/month"},
	core.Aggressive:   {decimal.RequireFromString("0.10"), "QQQ (Nasdaq-100) + small allocation to Bitcoin ETF → ${amount}/month"},
}

// incomeShare returns income * fraction, or zero for non-positive income.
func incomeShare(income, fraction decimal.Decimal) decimal.Decimal {
	if !income.IsPositive() {
		return decimal.Zero
	}
	return income.Mul(fraction)
}

// SuggestInvestment maps a risk profile to its canned idea scaled by income.
// Profiles outside the known set get the aggressive idea.
func SuggestInvestment(risk core.RiskProfile, income decimal.Decimal) core.InvestmentSuggestion {
	idea, ok := investmentIdeas[risk]
	if !ok {
		idea = investmentIdeas[core.Aggressive]
	}
	amount := incomeShare(income, idea.fraction)
	return core.InvestmentSuggestion{
		Risk:   risk,
		Amount: amount,
		Text:   strings.Replace(idea.template, amountPlaceholder, core.FormatWhole(amount), 1),
	}
}

// DisplaySuggestion renders the suggestion the way the dashboard card shows it.
func DisplaySuggestion(s core.InvestmentSuggestion) string {
	return fmt.Sprintf("Risk profile: %s  \nRecommended: %s", s.Risk, s.Text)
}
