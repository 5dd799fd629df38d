package services

import (
	"time"

	"github.com/shopspring/decimal"

	"fincoach/internal/core"
)

// SavingsRateBenchmark is the rate the dashboard compares the user against.
var SavingsRateBenchmark = decimal.NewFromInt(10)

// Engine bundles the pure computations behind one window policy. Every call
// recomputes from its inputs; nothing is cached between calls.
type Engine struct {
	policy     WindowPolicy
	foodBudget decimal.Decimal
	router     *AdviceRouter
}

// NewEngine returns an engine over policy. A nil policy means the default
// rolling window. foodBudget is used as given; callers without one pass
// DefaultFoodBudget.
func NewEngine(policy WindowPolicy, foodBudget decimal.Decimal) *Engine {
	if policy == nil {
		policy = DefaultWindowPolicy()
	}
	return &Engine{policy: policy, foodBudget: foodBudget, router: NewAdviceRouter()}
}

func (e *Engine) Policy() WindowPolicy {
	return e.policy
}

func (e *Engine) FoodBudget() decimal.Decimal {
	return e.foodBudget
}

// Dashboard is everything the overview page shows for one moment.
type Dashboard struct {
	Window       string                    `json:"window"`
	GeneratedAt  time.Time                 `json:"generated_at"`
	Settings     core.UserSettings         `json:"settings"`
	Metrics      core.DerivedMetrics       `json:"metrics"`
	FoodBudget   decimal.Decimal           `json:"food_budget"`
	FoodDelta    decimal.Decimal           `json:"food_delta"`
	SavingsDelta decimal.Decimal           `json:"savings_delta"`
	Breakdown    []core.CategoryAmount     `json:"breakdown"`
	Transactions []core.Transaction        `json:"transactions"`
	Investment   core.InvestmentSuggestion `json:"investment"`
}

// Metrics windows txs at now and derives the metrics.
func (e *Engine) Metrics(txs []core.Transaction, income decimal.Decimal, now time.Time) ([]core.Transaction, core.DerivedMetrics) {
	current := e.policy.Select(txs, now)
	return current, ComputeMetrics(current, income)
}

// Dashboard composes the overview.
func (e *Engine) Dashboard(txs []core.Transaction, settings core.UserSettings, now time.Time) Dashboard {
	current, m := e.Metrics(txs, settings.MonthlyIncome, now)
	return Dashboard{
		Window:       e.policy.Describe(now),
		GeneratedAt:  now,
		Settings:     settings,
		Metrics:      m,
		FoodBudget:   e.foodBudget,
		FoodDelta:    m.FoodSpent.Sub(e.foodBudget),
		SavingsDelta: m.SavingsRate.Sub(SavingsRateBenchmark),
		Breakdown:    CategoryBreakdown(current),
		Transactions: current,
		Investment:   SuggestInvestment(settings.Risk, settings.MonthlyIncome),
	}
}

// Ask routes a question against the live metrics.
func (e *Engine) Ask(question string, txs []core.Transaction, settings core.UserSettings, now time.Time) Advice {
	_, m := e.Metrics(txs, settings.MonthlyIncome, now)
	return e.router.Route(question, settings.Language, AdviceContext{
		Metrics:    m,
		Income:     settings.MonthlyIncome,
		FoodBudget: e.foodBudget,
	})
}

// Budget proposes the flat allocation for the current settings.
func (e *Engine) Budget(txs []core.Transaction, settings core.UserSettings, now time.Time) BudgetProposal {
	_, m := e.Metrics(txs, settings.MonthlyIncome, now)
	return OptimizeBudget(settings.MonthlyIncome, e.foodBudget, m.SavingsRate)
}

// Invest returns the risk-tiered suggestion.
func (e *Engine) Invest(settings core.UserSettings) core.InvestmentSuggestion {
	return SuggestInvestment(settings.Risk, settings.MonthlyIncome)
}
