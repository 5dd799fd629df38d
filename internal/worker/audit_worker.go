package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fincoach/internal/amqp"
	"fincoach/internal/storage"
)

// ErrInvalidAudit marks messages that can never be stored. They are logged
// and acknowledged instead of requeued.
var ErrInvalidAudit = errors.New("invalid advice audit message")

// AuditStore is the part of the repository the worker writes to.
type AuditStore interface {
	RecordAdviceAudit(ctx context.Context, rec storage.AuditRecord) (bool, error)
	AuditBreakdown(ctx context.Context) ([]storage.TopicCount, error)
}

// AuditWorker journals advice audit events from AMQP into SQLite. It is
// driven by a single consumer goroutine.
type AuditWorker struct {
	store       AuditStore
	reportEvery int
	handled     int
}

// NewAuditWorker returns a worker that logs the audit breakdown every
// reportEvery stored records. Zero disables periodic reports.
func NewAuditWorker(store AuditStore, reportEvery int) *AuditWorker {
	return &AuditWorker{
		store:       store,
		reportEvery: reportEvery,
	}
}

// HandleAuditMessage stores one audit event. Redeliveries of an event that is
// already stored succeed without writing.
func (w *AuditWorker) HandleAuditMessage(ctx context.Context, msg *amqp.AdviceAuditMessage) error {
	if err := validateAudit(msg); err != nil {
		slog.WarnContext(ctx, "Dropping invalid advice audit", "error", err)
		return nil
	}

	slog.DebugContext(ctx, "Processing advice audit",
		"id", msg.ID,
		"kind", msg.Kind,
		"topic", msg.Topic)

	inserted, err := w.store.RecordAdviceAudit(ctx, toRecord(msg))
	if err != nil {
		return fmt.Errorf("record advice audit: %w", err)
	}
	if !inserted {
		slog.InfoContext(ctx, "Advice audit already recorded", "id", msg.ID)
		return nil
	}

	w.handled++
	if w.reportEvery > 0 && w.handled%w.reportEvery == 0 {
		if err := w.ReportBreakdown(ctx); err != nil {
			slog.WarnContext(ctx, "Failed to report audit breakdown", "error", err)
		}
	}
	return nil
}

// ReportBreakdown logs stored advice counts grouped by kind, topic and
// language so skew between languages or profiles shows up in the logs.
func (w *AuditWorker) ReportBreakdown(ctx context.Context) error {
	rows, err := w.store.AuditBreakdown(ctx)
	if err != nil {
		return fmt.Errorf("audit breakdown: %w", err)
	}

	total := 0
	for _, row := range rows {
		total += row.Count
		slog.InfoContext(ctx, "Advice audit breakdown",
			"kind", row.Kind,
			"topic", row.Topic,
			"language", row.Language,
			"count", row.Count)
	}
	slog.InfoContext(ctx, "Advice audit totals", "groups", len(rows), "total", total)
	return nil
}

func validateAudit(msg *amqp.AdviceAuditMessage) error {
	switch {
	case msg == nil:
		return fmt.Errorf("%w: nil message", ErrInvalidAudit)
	case msg.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidAudit)
	case msg.SessionID == "":
		return fmt.Errorf("%w: missing session id", ErrInvalidAudit)
	}
	switch msg.Kind {
	case amqp.KindAdvice, amqp.KindBudget, amqp.KindInvestment:
		return nil
	}
	return fmt.Errorf("%w: unknown kind %q", ErrInvalidAudit, msg.Kind)
}

func toRecord(msg *amqp.AdviceAuditMessage) storage.AuditRecord {
	givenAt := msg.Timestamp
	if givenAt.IsZero() {
		givenAt = time.Now()
	}
	return storage.AuditRecord{
		ID:        msg.ID,
		SessionID: msg.SessionID,
		Kind:      msg.Kind,
		Topic:     msg.Topic,
		Language:  msg.Language,
		Risk:      msg.Risk,
		Question:  msg.Question,
		Response:  msg.Response,
		GivenAt:   givenAt,
	}
}
