package services

import (
	"regexp"
	"sort"

	"github.com/shopspring/decimal"

	"fincoach/internal/core"
)

var hundred = decimal.NewFromInt(100)

// CategoryMatcher decides whether a category counts toward a spend bucket.
type CategoryMatcher interface {
	Match(core.Category) bool
}

// PatternMatcher matches category names against a case-insensitive
// alternation such as "Food|Groceries".
type PatternMatcher struct {
	re *regexp.Regexp
}

// NewPatternMatcher compiles pattern case-insensitively.
func NewPatternMatcher(pattern string) (PatternMatcher, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return PatternMatcher{}, err
	}
	return PatternMatcher{re: re}, nil
}

// MustPatternMatcher is NewPatternMatcher for package-level literals.
func MustPatternMatcher(pattern string) PatternMatcher {
	m, err := NewPatternMatcher(pattern)
	if err != nil {
		panic(err)
	}
	return m
}

func (m PatternMatcher) Match(c core.Category) bool {
	return m.re.MatchString(string(c))
}

// FoodMatcher selects both dining and grocery spending.
var FoodMatcher = MustPatternMatcher("Food|Groceries")

// TotalSpent sums the absolute values of negative amounts. Zero for an empty set.
func TotalSpent(txs []core.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.IsExpense() {
			total = total.Add(tx.Amount.Abs())
		}
	}
	return total
}

// CategorySpent is TotalSpent restricted to categories accepted by m.
func CategorySpent(txs []core.Transaction, m CategoryMatcher) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.IsExpense() && m.Match(tx.Category) {
			total = total.Add(tx.Amount.Abs())
		}
	}
	return total
}

// SavingsRate returns (income - spent) / income * 100 rounded to one decimal,
// or zero when income is not positive. The result may be negative.
func SavingsRate(income, spent decimal.Decimal) decimal.Decimal {
	if !income.IsPositive() {
		return decimal.Zero
	}
	return income.Sub(spent).Div(income).Mul(hundred).Round(1)
}

// ComputeMetrics derives the dashboard metrics from an already windowed set.
func ComputeMetrics(txs []core.Transaction, income decimal.Decimal) core.DerivedMetrics {
	total := TotalSpent(txs)
	return core.DerivedMetrics{
		TotalSpent:  total,
		FoodSpent:   CategorySpent(txs, FoodMatcher),
		SavingsRate: SavingsRate(income, total),
	}
}

// CategoryBreakdown groups expenses by category, largest first. Ties are
// broken by name so the output is deterministic.
func CategoryBreakdown(txs []core.Transaction) []core.CategoryAmount {
	totals := make(map[core.Category]decimal.Decimal)
	for _, tx := range txs {
		if !tx.IsExpense() {
			continue
		}
		totals[tx.Category] = totals[tx.Category].Add(tx.Amount.Abs())
	}

	out := make([]core.CategoryAmount, 0, len(totals))
	for name, amount := range totals {
		out = append(out, core.CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}
