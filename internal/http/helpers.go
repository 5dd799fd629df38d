package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fincoach/internal/core"
	"fincoach/internal/services"
	"fincoach/internal/session"
)

const (
	sessionCookieName = "fincoach_session"
	sessionHeader     = "X-Session-ID"
)

var errNoSession = errors.New("no session")

// sessionID reads the session id from the header, falling back to the cookie.
func sessionID(r *http.Request) (string, error) {
	if id := strings.TrimSpace(r.Header.Get(sessionHeader)); id != "" {
		return id, nil
	}
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return "", errNoSession
	}
	return c.Value, nil
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, id string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// dollars renders a whole-dollar amount with separators: 4000 -> "$4,000".
func dollars(d decimal.Decimal) string {
	return "$" + core.FormatGrouped(d.Round(0))
}

// signedDollars renders a delta with an explicit sign: "$+40", "$-159".
func signedDollars(d decimal.Decimal) string {
	if d.IsNegative() {
		return "$" + core.FormatWhole(d)
	}
	return "$+" + core.FormatWhole(d)
}

type transactionRow struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Expense     bool   `json:"expense"`
}

type budgetRow struct {
	Category string `json:"category"`
	Amount   string `json:"amount"`
}

// dashboardDisplay holds the preformatted strings the page renders.
type dashboardDisplay struct {
	TotalSpent   string           `json:"total_spent"`
	FoodSpent    string           `json:"food_spent"`
	FoodDelta    string           `json:"food_delta"`
	SavingsRate  string           `json:"savings_rate"`
	SavingsDelta string           `json:"savings_delta"`
	Income       string           `json:"income"`
	Investment   string           `json:"investment"`
	Transactions []transactionRow `json:"transactions"`
}

type dashboardView struct {
	services.Dashboard
	Display dashboardDisplay `json:"display"`
}

func newDashboardView(d services.Dashboard) dashboardView {
	rows := make([]transactionRow, 0, len(d.Transactions))
	for _, tx := range d.Transactions {
		rows = append(rows, transactionRow{
			Date:        tx.Date.String(),
			Description: tx.Description,
			Amount:      tx.Amount.StringFixed(2),
			Category:    string(tx.Category),
			Expense:     tx.IsExpense(),
		})
	}

	return dashboardView{
		Dashboard: d,
		Display: dashboardDisplay{
			TotalSpent:   dollars(d.Metrics.TotalSpent),
			FoodSpent:    "$" + core.FormatWhole(d.Metrics.FoodSpent),
			FoodDelta:    signedDollars(d.FoodDelta) + " vs budget",
			SavingsRate:  core.FormatPercent(d.Metrics.SavingsRate) + "%",
			SavingsDelta: "↑ " + core.FormatWhole(d.SavingsDelta) + "%",
			Income:       dollars(d.Settings.MonthlyIncome),
			Investment:   services.DisplaySuggestion(d.Investment),
			Transactions: rows,
		},
	}
}

type budgetView struct {
	services.BudgetProposal
	Display []budgetRow `json:"display"`
}

func newBudgetView(p services.BudgetProposal) budgetView {
	rows := make([]budgetRow, 0, len(p.Lines))
	for _, l := range p.Lines {
		rows = append(rows, budgetRow{Category: l.Category, Amount: dollars(l.Amount)})
	}
	return budgetView{BudgetProposal: p, Display: rows}
}

// sessionView is returned when a session starts.
type sessionView struct {
	ID        string            `json:"session_id"`
	CreatedAt time.Time         `json:"created_at"`
	Source    string            `json:"source"`
	Settings  core.UserSettings `json:"settings"`
}

func newSessionView(s *session.Session) sessionView {
	return sessionView{ID: s.ID, CreatedAt: s.CreatedAt, Source: s.Source, Settings: s.Settings()}
}
