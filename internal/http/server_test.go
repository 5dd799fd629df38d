package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fincoach/internal/core"
	"fincoach/internal/ledger/memory"
	"fincoach/internal/log"
	"fincoach/internal/services"
	"fincoach/internal/session"
)

func newTestCoach() *services.CoachService {
	store := session.NewStore(session.StoreConfig{
		MaxSessions: 10,
		TTL:         time.Hour,
		Defaults:    core.DefaultSettings(),
	}, memory.NewDemo(), log.Discard())
	return services.NewCoachService(services.NewEngine(nil, services.DefaultFoodBudget), store, nil, log.Discard())
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	srv := NewServer(":0", newTestCoach(), opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(srv *Server, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if strings.HasPrefix(body, "{") {
		req.Header.Set("Content-Type", "application/json")
	} else if body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func startSession(t *testing.T, srv *Server) *http.Cookie {
	t.Helper()
	rr := do(srv, http.MethodPost, "/api/session", "", nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create session status=%d body=%s", rr.Code, rr.Body.String())
	}
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

type dashboardResponse struct {
	Window   string           `json:"window"`
	Display  dashboardDisplay `json:"display"`
	Settings struct {
		Language string `json:"language"`
		Risk     string `json:"risk_profile"`
	} `json:"settings"`
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rr.Body.String(), err)
	}
	return v
}

func TestIndexAndHealth(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := do(srv, http.MethodGet, "/", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		"FinCoach AI",
		"Ethics &amp; Transparency Notice",
		"Generate Optimized Budget Now",
		"Today's Micro-Investment Idea",
		"Connected via Plaid Sandbox",
		"Español",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("index body missing %q", want)
		}
	}

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		rr := do(srv, http.MethodGet, path, "", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	if rr := do(srv, http.MethodGet, "/static/app.css", "", nil); rr.Code != http.StatusOK {
		t.Errorf("static status=%d", rr.Code)
	}
	if rr := do(srv, http.MethodGet, "/nope", "", nil); rr.Code != http.StatusNotFound {
		t.Errorf("unknown path status=%d, want 404", rr.Code)
	}
}

func TestReadyz_LedgerDown(t *testing.T) {
	srv := newTestServer(t, Options{Ready: func(context.Context) error { return errors.New("db locked") }})

	rr := do(srv, http.MethodGet, "/readyz", "", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d, want 503", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "db locked") {
		t.Errorf("body missing ledger failure: %s", rr.Body.String())
	}
}

func TestMiddlewareHeaders(t *testing.T) {
	srv := newTestServer(t, Options{})
	rr := do(srv, http.MethodGet, "/healthz", "", nil)

	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers not applied")
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("request id not echoed")
	}

	cookie := startSession(t, srv)
	rr = do(srv, http.MethodGet, "/api/dashboard", "", cookie)
	if rr.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("api Cache-Control = %q", rr.Header().Get("Cache-Control"))
	}
}

func TestDashboard(t *testing.T) {
	srv := newTestServer(t, Options{})
	cookie := startSession(t, srv)

	rr := do(srv, http.MethodGet, "/api/dashboard", "", cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	d := decode[dashboardResponse](t, rr)

	// demo ledger: six expenses totalling 311.89, food 128.20
	want := dashboardDisplay{
		TotalSpent:   "$312",
		FoodSpent:    "$128",
		FoodDelta:    "$-72 vs budget",
		SavingsRate:  "92.2%",
		SavingsDelta: "↑ 82%",
		Income:       "$4,000",
	}
	got := d.Display
	if got.TotalSpent != want.TotalSpent || got.FoodSpent != want.FoodSpent || got.FoodDelta != want.FoodDelta ||
		got.SavingsRate != want.SavingsRate || got.SavingsDelta != want.SavingsDelta || got.Income != want.Income {
		t.Errorf("display = %+v, want %+v", got, want)
	}
	if len(got.Transactions) != 7 {
		t.Errorf("transactions = %d, want 7", len(got.Transactions))
	}
	if d.Window != "last 30 days" {
		t.Errorf("window = %q", d.Window)
	}
}

func TestSessionErrors(t *testing.T) {
	srv := newTestServer(t, Options{})

	if rr := do(srv, http.MethodGet, "/api/dashboard", "", nil); rr.Code != http.StatusUnauthorized {
		t.Errorf("no session status=%d, want 401", rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/investment", nil)
	req.Header.Set(sessionHeader, "does-not-exist")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown session status=%d, want 404", rr.Code)
	}

	cookie := startSession(t, srv)
	if rr := do(srv, http.MethodDelete, "/api/session", "", cookie); rr.Code != http.StatusNoContent {
		t.Fatalf("end session status=%d", rr.Code)
	}
	if rr := do(srv, http.MethodGet, "/api/dashboard", "", cookie); rr.Code != http.StatusNotFound {
		t.Errorf("ended session status=%d, want 404", rr.Code)
	}
}

func TestSettings(t *testing.T) {
	srv := newTestServer(t, Options{})
	cookie := startSession(t, srv)

	tests := []struct {
		name     string
		body     string
		code     int
		income   string
		language string
	}{
		{"form update", "income=5500&language=Espa%C3%B1ol", http.StatusOK, "$5,500", "Spanish"},
		{"json update", `{"income": "4250.5", "language": "English"}`, http.StatusOK, "$4,251", "English"},
		{"non numeric income", `{"income": "lots"}`, http.StatusOK, "$0", "English"},
		{"invalid risk", `{"risk_profile": "YOLO"}`, http.StatusUnprocessableEntity, "", ""},
		{"malformed", `{"income":`, http.StatusBadRequest, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(srv, http.MethodPost, "/api/settings", tt.body, cookie)
			if rr.Code != tt.code {
				t.Fatalf("status=%d, want %d body=%s", rr.Code, tt.code, rr.Body.String())
			}
			if tt.code != http.StatusOK {
				return
			}
			d := decode[dashboardResponse](t, rr)
			if d.Display.Income != tt.income {
				t.Errorf("income = %q, want %q", d.Display.Income, tt.income)
			}
			if d.Settings.Language != tt.language {
				t.Errorf("language = %q, want %q", d.Settings.Language, tt.language)
			}
		})
	}
}

func TestAsk(t *testing.T) {
	srv := newTestServer(t, Options{})
	cookie := startSession(t, srv)

	rr := do(srv, http.MethodPost, "/api/ask", `{"question": "Why am I overspending on food?"}`, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	advice := decode[services.Advice](t, rr)
	if advice.Topic != services.TopicFood {
		t.Errorf("topic = %s, want food", advice.Topic)
	}
	if !strings.HasPrefix(advice.Text, "You're currently spending **$128.20**") {
		t.Errorf("text = %q", advice.Text)
	}

	tests := []struct {
		name string
		body string
		code int
	}{
		{"empty question", `{"question": "   "}`, http.StatusUnprocessableEntity},
		{"long question still answered", `{"question": "` + strings.Repeat("x", maxQuestionRunes+1) + `"}`, http.StatusOK},
		{"form body", "question=how+do+I+invest", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rr := do(srv, http.MethodPost, "/api/ask", tt.body, cookie); rr.Code != tt.code {
				t.Errorf("status=%d, want %d", rr.Code, tt.code)
			}
		})
	}

	if rr := do(srv, http.MethodGet, "/api/ask", "", cookie); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/ask status=%d, want 405", rr.Code)
	}
}

func TestClampQuestion(t *testing.T) {
	long := strings.Repeat("x", maxQuestionRunes) + " food"
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short", "food?", "food?"},
		{"exact length", strings.Repeat("a", maxQuestionRunes), strings.Repeat("a", maxQuestionRunes)},
		{"cut at rune boundary", strings.Repeat("ñ", maxQuestionRunes+3), strings.Repeat("ñ", maxQuestionRunes)},
		{"keyword past the cut", long, strings.Repeat("x", maxQuestionRunes)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clampQuestion(tt.in); got != tt.want {
				t.Errorf("clampQuestion() = %d runes, want %d", len([]rune(got)), len([]rune(tt.want)))
			}
		})
	}
}

func TestBudgetAndInvestment(t *testing.T) {
	srv := newTestServer(t, Options{})
	cookie := startSession(t, srv)

	rr := do(srv, http.MethodPost, "/api/budget/optimize", "", cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("budget status=%d", rr.Code)
	}
	budget := decode[struct {
		Display        []budgetRow `json:"display"`
		Acknowledgment string      `json:"acknowledgment"`
	}](t, rr)
	if len(budget.Display) != 5 {
		t.Fatalf("budget lines = %d, want 5", len(budget.Display))
	}
	if budget.Display[0] != (budgetRow{Category: services.BudgetGroceries, Amount: "$200"}) {
		t.Errorf("first line = %+v", budget.Display[0])
	}
	if budget.Display[4] != (budgetRow{Category: services.BudgetSavings, Amount: "$600"}) {
		t.Errorf("savings line = %+v", budget.Display[4])
	}
	if !strings.HasPrefix(budget.Acknowledgment, "New budget applied!") {
		t.Errorf("acknowledgment = %q", budget.Acknowledgment)
	}

	rr = do(srv, http.MethodGet, "/api/investment", "", cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("investment status=%d", rr.Code)
	}
	inv := decode[investmentView](t, rr)
	if inv.Risk != core.Moderate {
		t.Errorf("risk = %s", inv.Risk)
	}
	if !strings.HasPrefix(inv.Display, "Risk profile: Moderate") {
		t.Errorf("display = %q", inv.Display)
	}
}

func TestInvestmentCardPerRisk(t *testing.T) {
	srv := newTestServer(t, Options{})
	cookie := startSession(t, srv)

	tests := []struct {
		risk    string
		display string
	}{
		{"Conservative", "Risk profile: Conservative  \nRecommended: High-yield savings at 5.1% APY → $200/month"},
		{"Moderate", "Risk profile: Moderate  \nRecommended: VTI (Total Stock Market ETF) → recurring $300/month"},
		{"Aggressive", "Risk profile: Aggressive  \nRecommended: QQQ (Nasdaq-100) + small allocation to Bitcoin ETF → $400/month"},
	}
	for _, tt := range tests {
		t.Run(tt.risk, func(t *testing.T) {
			body := `{"income": "4000", "risk_profile": "` + tt.risk + `"}`
			if rr := do(srv, http.MethodPost, "/api/settings", body, cookie); rr.Code != http.StatusOK {
				t.Fatalf("settings status=%d body=%s", rr.Code, rr.Body.String())
			}
			rr := do(srv, http.MethodGet, "/api/investment", "", cookie)
			if rr.Code != http.StatusOK {
				t.Fatalf("investment status=%d", rr.Code)
			}
			inv := decode[investmentView](t, rr)
			if inv.Display != tt.display {
				t.Errorf("display = %q, want %q", inv.Display, tt.display)
			}
		})
	}
}

func TestRateLimitPosts(t *testing.T) {
	srv := newTestServer(t, Options{RateLimitPerMinute: 2})

	for i := 0; i < 2; i++ {
		if rr := do(srv, http.MethodPost, "/api/session", "", nil); rr.Code != http.StatusCreated {
			t.Fatalf("request %d status=%d", i, rr.Code)
		}
	}
	rr := do(srv, http.MethodPost, "/api/session", "", nil)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q", rr.Header().Get("Retry-After"))
	}

	// reads are not limited
	if rr := do(srv, http.MethodGet, "/healthz", "", nil); rr.Code != http.StatusOK {
		t.Errorf("GET status=%d", rr.Code)
	}
}
