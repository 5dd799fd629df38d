package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"fincoach/internal/core"

	_ "modernc.org/sqlite"
)

// ErrEmptyAccount is returned when a ledger call has no account name.
var ErrEmptyAccount = errors.New("empty account")

type SQLiteRepository struct {
	db *sql.DB
}

// AuditRecord is one stored piece of advice.
type AuditRecord struct {
	ID        string
	SessionID string
	Kind      string
	Topic     string
	Language  string
	Risk      string
	Question  string
	Response  string
	GivenAt   time.Time
}

// AuditFilter narrows ListAdviceAudit. Zero values match everything.
type AuditFilter struct {
	SessionID string
	Kind      string
	Limit     int
}

// TopicCount is one row of the audit breakdown used for bias reviews.
type TopicCount struct {
	Kind     string
	Topic    string
	Language string
	Count    int
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// one writer at a time; sqlite serializes anyway
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("SQLite ledger ready", "path", dbPath, "schema_version", version)
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// AppendTransactions stores txs under account in one database transaction.
func (r *SQLiteRepository) AppendTransactions(ctx context.Context, account string, txs []core.Transaction) (int, error) {
	if account == "" {
		return 0, ErrEmptyAccount
	}
	for i, tx := range txs {
		if err := tx.Validate(); err != nil {
			return 0, fmt.Errorf("transaction %d: %w", i, err)
		}
	}

	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer dbtx.Rollback()

	stmt, err := dbtx.PrepareContext(ctx,
		`INSERT INTO transactions (account, tx_date, description, amount, category) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, tx := range txs {
		if _, err := stmt.ExecContext(ctx, account, tx.Date.String(), tx.Description, tx.Amount.String(), string(tx.Category)); err != nil {
			return 0, fmt.Errorf("insert transaction %q: %w", tx.Description, err)
		}
	}

	if err := dbtx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Transactions saved to SQLite", "account", account, "count", len(txs))
	return len(txs), nil
}

// ListTransactions returns the account's ledger, newest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, account string) ([]core.Transaction, error) {
	if account == "" {
		return nil, ErrEmptyAccount
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT tx_date, description, amount, category FROM transactions WHERE account = ? ORDER BY tx_date DESC, id ASC`,
		account)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var date, desc, amount, category string
		if err := rows.Scan(&date, &desc, &amount, &category); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		d, err := core.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("stored date %q: %w", date, err)
		}
		amt, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("stored amount %q: %w", amount, err)
		}
		out = append(out, core.Transaction{Date: d, Description: desc, Amount: amt, Category: core.Category(category)})
	}
	return out, rows.Err()
}

// CountTransactions returns how many rows the account holds.
func (r *SQLiteRepository) CountTransactions(ctx context.Context, account string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE account = ?`, account).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// RecordAdviceAudit stores rec. Redelivered records with a known id are
// ignored and reported as not inserted.
func (r *SQLiteRepository) RecordAdviceAudit(ctx context.Context, rec AuditRecord) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO advice_audit (id, session_id, kind, topic, language, risk_profile, question, response, given_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SessionID, rec.Kind, rec.Topic, rec.Language, rec.Risk, rec.Question, rec.Response,
		rec.GivenAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return false, fmt.Errorf("insert advice audit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// ListAdviceAudit returns matching records, oldest first.
func (r *SQLiteRepository) ListAdviceAudit(ctx context.Context, f AuditFilter) ([]AuditRecord, error) {
	query := `SELECT id, session_id, kind, topic, language, risk_profile, question, response, given_at
		FROM advice_audit WHERE (? = '' OR session_id = ?) AND (? = '' OR kind = ?) ORDER BY given_at ASC, id ASC`
	args := []any{f.SessionID, f.SessionID, f.Kind, f.Kind}
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query advice audit: %w", err)
	}
	defer rows.Close()

	var out []AuditRecord
	for rows.Next() {
		var rec AuditRecord
		var givenAt string
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Kind, &rec.Topic, &rec.Language, &rec.Risk,
			&rec.Question, &rec.Response, &givenAt); err != nil {
			return nil, fmt.Errorf("scan advice audit: %w", err)
		}
		if rec.GivenAt, err = time.Parse(time.RFC3339Nano, givenAt); err != nil {
			return nil, fmt.Errorf("stored timestamp %q: %w", givenAt, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// AuditBreakdown counts stored advice by kind, topic and language.
func (r *SQLiteRepository) AuditBreakdown(ctx context.Context) ([]TopicCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT kind, topic, language, COUNT(*) FROM advice_audit GROUP BY kind, topic, language ORDER BY kind, topic, language`)
	if err != nil {
		return nil, fmt.Errorf("query audit breakdown: %w", err)
	}
	defer rows.Close()

	var out []TopicCount
	for rows.Next() {
		var tc TopicCount
		if err := rows.Scan(&tc.Kind, &tc.Topic, &tc.Language, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan audit breakdown: %w", err)
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}
