package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"fincoach/internal/amqp"
	"fincoach/internal/core"
	"fincoach/internal/log"
	"fincoach/internal/session"
)

const auditPublishTimeout = 5 * time.Second

// AuditPublisher ships advice audit events to the journal.
type AuditPublisher interface {
	PublishAdviceAudit(ctx context.Context, msg *amqp.AdviceAuditMessage) error
	Close() error
}

// SettingsUpdate carries raw user input. Nil fields are left unchanged.
type SettingsUpdate struct {
	Income   *string
	Goal     *string
	Risk     *string
	Language *string
}

// CoachService resolves sessions, runs the engine and journals the advice it
// hands out. The publisher is optional.
type CoachService struct {
	engine    *Engine
	sessions  *session.Store
	publisher AuditPublisher
	logger    *log.Logger
	now       func() time.Time

	inflight sync.WaitGroup
}

func NewCoachService(engine *Engine, sessions *session.Store, publisher AuditPublisher, logger *log.Logger) *CoachService {
	return &CoachService{
		engine:    engine,
		sessions:  sessions,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentCoach),
		now:       time.Now,
	}
}

// StartSession creates a fresh session with default settings.
func (s *CoachService) StartSession(ctx context.Context) *session.Session {
	return s.sessions.Create(ctx)
}

// Session looks up a live session.
func (s *CoachService) Session(id string) (*session.Session, error) {
	return s.sessions.Get(id)
}

// EndSession discards a session.
func (s *CoachService) EndSession(id string) {
	s.sessions.Delete(id)
}

// ActiveSessions returns the number of live sessions.
func (s *CoachService) ActiveSessions() int {
	return s.sessions.Len()
}

// Dashboard computes the overview for a session.
func (s *CoachService) Dashboard(ctx context.Context, id string) (Dashboard, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return Dashboard{}, err
	}
	settings, txs := sess.Snapshot()
	return s.engine.Dashboard(txs, settings, s.now()), nil
}

// Ask answers a question for a session and journals the answer.
func (s *CoachService) Ask(ctx context.Context, id, question string) (Advice, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return Advice{}, err
	}
	settings, txs := sess.Snapshot()
	advice := s.engine.Ask(question, txs, settings, s.now())

	log.NewStructuredLogger(s.logger).LogAdvice(ctx, id, string(settings.Risk), string(settings.Language), string(advice.Topic))

	msg := amqp.NewAdviceAuditMessage(id, amqp.KindAdvice)
	msg.Topic = string(advice.Topic)
	msg.Question = question
	msg.Response = advice.Text
	s.publish(ctx, msg, settings)

	return advice, nil
}

// OptimizeBudget proposes a budget for a session.
func (s *CoachService) OptimizeBudget(ctx context.Context, id string) (BudgetProposal, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return BudgetProposal{}, err
	}
	settings, txs := sess.Snapshot()
	proposal := s.engine.Budget(txs, settings, s.now())

	msg := amqp.NewAdviceAuditMessage(id, amqp.KindBudget)
	msg.Response = proposal.Acknowledgment
	s.publish(ctx, msg, settings)

	return proposal, nil
}

// Investment returns the session's investment suggestion.
func (s *CoachService) Investment(ctx context.Context, id string) (core.InvestmentSuggestion, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return core.InvestmentSuggestion{}, err
	}
	settings := sess.Settings()
	suggestion := s.engine.Invest(settings)

	msg := amqp.NewAdviceAuditMessage(id, amqp.KindInvestment)
	msg.Topic = string(settings.Risk)
	msg.Response = suggestion.Text
	s.publish(ctx, msg, settings)

	return suggestion, nil
}

// UpdateSettings validates and applies user input. Income that does not
// parse becomes zero rather than an error; enum fields must be valid.
func (s *CoachService) UpdateSettings(ctx context.Context, id string, u SettingsUpdate) (core.UserSettings, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return core.UserSettings{}, err
	}

	var (
		income                   *decimal.Decimal
		goal                     core.Goal
		risk                     core.RiskProfile
		lang                     core.Language
		goalErr, riskErr, langErr error
	)
	if u.Income != nil {
		v := core.ParseIncome(*u.Income)
		income = &v
	}
	if u.Goal != nil {
		goal, goalErr = core.ParseGoal(*u.Goal)
	}
	if u.Risk != nil {
		risk, riskErr = core.ParseRiskProfile(*u.Risk)
	}
	if u.Language != nil {
		lang, langErr = core.ParseLanguage(*u.Language)
	}
	if err := errors.Join(goalErr, riskErr, langErr); err != nil {
		return sess.Settings(), fmt.Errorf("update settings: %w", err)
	}

	updated := sess.UpdateSettings(func(st *core.UserSettings) {
		if income != nil {
			st.MonthlyIncome = *income
		}
		if u.Goal != nil {
			st.Goal = goal
		}
		if u.Risk != nil {
			st.Risk = risk
		}
		if u.Language != nil {
			st.Language = lang
		}
	})

	s.logger.InfoContext(ctx, "Settings updated",
		log.NewFields().WithSession(id, string(updated.Risk), string(updated.Language)).
			WithOperation(log.OpSettings).ToSlice()...)
	return updated, nil
}

// publish sends msg in the background so a slow or missing broker never
// delays an answer.
func (s *CoachService) publish(ctx context.Context, msg *amqp.AdviceAuditMessage, settings core.UserSettings) {
	if s.publisher == nil {
		return
	}
	msg.Language = string(settings.Language)
	msg.Risk = string(settings.Risk)

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditPublishTimeout)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer cancel()
		if err := s.publisher.PublishAdviceAudit(pubCtx, msg); err != nil {
			s.logger.WarnContext(pubCtx, "Failed to publish advice audit",
				log.FieldSessionID, msg.SessionID,
				"kind", msg.Kind,
				log.FieldError, err)
		}
	}()
}

// Close waits for pending audit publishes and closes the publisher.
func (s *CoachService) Close() error {
	s.inflight.Wait()

	var errs []error
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close coach service: %v", errs)
	}
	return nil
}
