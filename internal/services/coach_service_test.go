package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"fincoach/internal/amqp"
	"fincoach/internal/core"
	"fincoach/internal/ledger/memory"
	"fincoach/internal/log"
	"fincoach/internal/session"
)

type fakePublisher struct {
	mu       sync.Mutex
	messages []*amqp.AdviceAuditMessage
	err      error
	closed   bool
}

func (f *fakePublisher) PublishAdviceAudit(_ context.Context, msg *amqp.AdviceAuditMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakePublisher) published() []*amqp.AdviceAuditMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*amqp.AdviceAuditMessage(nil), f.messages...)
}

func newTestCoach(pub AuditPublisher) *CoachService {
	store := session.NewStore(session.StoreConfig{
		MaxSessions: 10,
		TTL:         time.Hour,
		Defaults:    core.DefaultSettings(),
	}, memory.NewDemo(), log.Discard())
	return NewCoachService(NewEngine(nil, DefaultFoodBudget), store, pub, log.Discard())
}

func strPtr(s string) *string {
	return &s
}

func TestCoachService_Ask(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestCoach(pub)
	ctx := context.Background()
	sess := svc.StartSession(ctx)

	advice, err := svc.Ask(ctx, sess.ID, "Why is my food spending so high?")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if advice.Topic != TopicFood {
		t.Errorf("Topic = %s, want food", advice.Topic)
	}
	// demo ledger: Starbucks 12.50 + Whole Foods 87.30 + Chipotle 28.40
	if !strings.Contains(advice.Text, "**$128.20**") {
		t.Errorf("answer does not use live food spend: %q", advice.Text)
	}

	if err := svc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	msgs := pub.published()
	if len(msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(msgs))
	}
	m := msgs[0]
	if m.SessionID != sess.ID || m.Kind != amqp.KindAdvice || m.Topic != string(TopicFood) {
		t.Errorf("unexpected audit message: %+v", m)
	}
	if m.Language != string(core.English) || m.Risk != string(core.Moderate) {
		t.Errorf("audit message settings = %s/%s", m.Language, m.Risk)
	}
	if m.Response != advice.Text {
		t.Errorf("audit response differs from answer")
	}
	if !pub.closed {
		t.Error("publisher not closed")
	}
}

func TestCoachService_UnknownSession(t *testing.T) {
	svc := newTestCoach(nil)
	ctx := context.Background()

	if _, err := svc.Ask(ctx, "missing", "food"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("Ask() error = %v, want ErrNotFound", err)
	}
	if _, err := svc.Dashboard(ctx, "missing"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("Dashboard() error = %v, want ErrNotFound", err)
	}
	if _, err := svc.OptimizeBudget(ctx, "missing"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("OptimizeBudget() error = %v, want ErrNotFound", err)
	}
	if _, err := svc.Investment(ctx, "missing"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("Investment() error = %v, want ErrNotFound", err)
	}
	if _, err := svc.UpdateSettings(ctx, "missing", SettingsUpdate{}); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("UpdateSettings() error = %v, want ErrNotFound", err)
	}
}

func TestCoachService_EndSession(t *testing.T) {
	svc := newTestCoach(nil)
	ctx := context.Background()
	sess := svc.StartSession(ctx)

	svc.EndSession(sess.ID)
	if _, err := svc.Session(sess.ID); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("Session() after EndSession error = %v", err)
	}
}

func TestCoachService_UpdateSettings(t *testing.T) {
	tests := []struct {
		name       string
		update     SettingsUpdate
		wantErr    bool
		wantIncome string
		wantRisk   core.RiskProfile
		wantLang   core.Language
	}{
		{
			name:       "all fields",
			update:     SettingsUpdate{Income: strPtr("5,500"), Goal: strPtr("Invest more"), Risk: strPtr("Aggressive"), Language: strPtr("Español")},
			wantIncome: "5500",
			wantRisk:   core.Aggressive,
			wantLang:   core.Spanish,
		},
		{
			name:       "bad income becomes zero",
			update:     SettingsUpdate{Income: strPtr("lots")},
			wantIncome: "0",
			wantRisk:   core.Moderate,
			wantLang:   core.English,
		},
		{
			name:       "nil fields unchanged",
			update:     SettingsUpdate{},
			wantIncome: "4000",
			wantRisk:   core.Moderate,
			wantLang:   core.English,
		},
		{
			name:       "invalid risk rejects whole update",
			update:     SettingsUpdate{Income: strPtr("100"), Risk: strPtr("Reckless")},
			wantErr:    true,
			wantIncome: "4000",
			wantRisk:   core.Moderate,
			wantLang:   core.English,
		},
		{
			name:       "invalid language",
			update:     SettingsUpdate{Language: strPtr("Klingon")},
			wantErr:    true,
			wantIncome: "4000",
			wantRisk:   core.Moderate,
			wantLang:   core.English,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestCoach(nil)
			ctx := context.Background()
			sess := svc.StartSession(ctx)

			_, err := svc.UpdateSettings(ctx, sess.ID, tt.update)
			if (err != nil) != tt.wantErr {
				t.Fatalf("UpdateSettings() error = %v, wantErr %v", err, tt.wantErr)
			}

			got := sess.Settings()
			if !got.MonthlyIncome.Equal(d(tt.wantIncome)) {
				t.Errorf("income = %s, want %s", got.MonthlyIncome, tt.wantIncome)
			}
			if got.Risk != tt.wantRisk {
				t.Errorf("risk = %s, want %s", got.Risk, tt.wantRisk)
			}
			if got.Language != tt.wantLang {
				t.Errorf("language = %s, want %s", got.Language, tt.wantLang)
			}
		})
	}
}

func TestCoachService_SessionsAreIsolated(t *testing.T) {
	svc := newTestCoach(nil)
	ctx := context.Background()
	a := svc.StartSession(ctx)
	b := svc.StartSession(ctx)

	if _, err := svc.UpdateSettings(ctx, a.ID, SettingsUpdate{Language: strPtr("Español")}); err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}

	adviceA, _ := svc.Ask(ctx, a.ID, "comida")
	adviceB, _ := svc.Ask(ctx, b.ID, "food")
	if !strings.Contains(adviceA.Text, "Prueba preparar comidas") {
		t.Errorf("session a should answer in Spanish: %q", adviceA.Text)
	}
	if !strings.Contains(adviceB.Text, "Try meal-prepping") {
		t.Errorf("session b should answer in English: %q", adviceB.Text)
	}
}

func TestCoachService_BudgetAndInvestment(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestCoach(pub)
	ctx := context.Background()
	sess := svc.StartSession(ctx)

	proposal, err := svc.OptimizeBudget(ctx, sess.ID)
	if err != nil {
		t.Fatalf("OptimizeBudget() error = %v", err)
	}
	if !proposal.SavingsTarget.Equal(d("600")) {
		t.Errorf("SavingsTarget = %s, want 600", proposal.SavingsTarget)
	}

	suggestion, err := svc.Investment(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Investment() error = %v", err)
	}
	if !suggestion.Amount.Equal(d("300")) {
		t.Errorf("Investment amount = %s, want 300", suggestion.Amount)
	}

	svc.Close()
	kinds := map[string]bool{}
	for _, m := range pub.published() {
		kinds[m.Kind] = true
	}
	if !kinds[amqp.KindBudget] || !kinds[amqp.KindInvestment] {
		t.Errorf("expected budget and investment audits, got %v", kinds)
	}
}

func TestCoachService_PublishFailureDoesNotFailAnswer(t *testing.T) {
	svc := newTestCoach(&fakePublisher{err: errors.New("broker down")})
	ctx := context.Background()
	sess := svc.StartSession(ctx)

	if _, err := svc.Ask(ctx, sess.ID, "invest"); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}
