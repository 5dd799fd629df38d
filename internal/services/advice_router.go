package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"fincoach/internal/core"
)

// Topic identifies which advice rule produced an answer.
type Topic string

const (
	TopicFood     Topic = "food"
	TopicSavings  Topic = "savings"
	TopicInvest   Topic = "invest"
	TopicFallback Topic = "fallback"
)

// AdviceContext carries the live values an advice template interpolates.
type AdviceContext struct {
	Metrics    core.DerivedMetrics
	Income     decimal.Decimal
	FoodBudget decimal.Decimal
}

// AdviceRule is one entry of the router's ordered dispatch table.
type AdviceRule struct {
	Topic    Topic
	Keywords []string
	Render   func(AdviceContext) string
}

// Matches reports whether any keyword occurs in the lowercased question.
func (r AdviceRule) Matches(lowered string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// Advice is the routed answer to a question.
type Advice struct {
	Topic Topic  `json:"topic"`
	Text  string `json:"text"`
}

// Phrasebook is an exact find/replace table applied to assembled English text.
type Phrasebook []Substitution

type Substitution struct {
	From string
	To   string
}

func (p Phrasebook) Apply(s string) string {
	for _, sub := range p {
		s = strings.ReplaceAll(s, sub.From, sub.To)
	}
	return s
}

var phrasebooks = map[core.Language]Phrasebook{
	core.Spanish: {
		{From: "Try meal-prepping", To: "Prueba preparar comidas los domingos"},
	},
}

const fallbackAdvice = "I'm learning every day! Try asking about food, savings, or investment questions."

var defaultRules = []AdviceRule{
	{
		Topic:    TopicFood,
		Keywords: []string{"food", "comida"},
		Render: func(c AdviceContext) string {
			return fmt.Sprintf("You're currently spending **$%s** on food this month (budget was $%s). "+
				"Try meal-prepping on Sundays — our users save an average of 31%% doing this. "+
				"Want me to create a new $%s food budget?",
				core.FormatAmount(c.Metrics.FoodSpent), core.FormatAmount(c.FoodBudget), core.FormatAmount(c.FoodBudget))
		},
	},
	{
		Topic:    TopicSavings,
		Keywords: []string{"save", "ahorrar"},
		Render: func(c AdviceContext) string {
			monthly := c.Income.Mul(c.Metrics.SavingsRate).Div(hundred)
			return fmt.Sprintf("With your $%s income and current spending, you can easily save **$%s%%/month** (%s). "+
				"I recommend auto-investing $%s into VTI.",
				core.FormatGrouped(c.Income), core.FormatPercent(c.Metrics.SavingsRate),
				core.FormatWhole(monthly), core.FormatWhole(incomeShare(c.Income, savingsShare)))
		},
	},
	{
		Topic:    TopicInvest,
		Keywords: []string{"invest", "invertir"},
		Render: func(AdviceContext) string {
			return "Moderate risk profile → recommended allocation: 60% stocks (VTI), 30% bonds (BND), 10% cash. " +
				"Start with 15% of income recurring?"
		},
	},
}

// AdviceRouter answers a free-text question with the first matching rule.
// It holds no state between calls.
type AdviceRouter struct {
	rules []AdviceRule
}

// NewAdviceRouter returns a router over the default food, savings and
// investing rules in that priority order.
func NewAdviceRouter() *AdviceRouter {
	return &AdviceRouter{rules: defaultRules}
}

// NewAdviceRouterWithRules returns a router over a custom rule table.
func NewAdviceRouterWithRules(rules []AdviceRule) *AdviceRouter {
	return &AdviceRouter{rules: rules}
}

// Route lowercases question, dispatches on the first matching rule and applies
// the language phrasebook. Unmatched questions get the fallback answer.
func (r *AdviceRouter) Route(question string, lang core.Language, c AdviceContext) Advice {
	lowered := strings.ToLower(question)
	for _, rule := range r.rules {
		if rule.Matches(lowered) {
			return Advice{Topic: rule.Topic, Text: phrasebooks[lang].Apply(rule.Render(c))}
		}
	}
	return Advice{Topic: TopicFallback, Text: phrasebooks[lang].Apply(fallbackAdvice)}
}
