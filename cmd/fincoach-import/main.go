// Command fincoach-import copies a ledger into the SQLite store so the
// server can run with LEDGER_BACKEND=sqlite.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"fincoach/internal/adapters"
	"fincoach/internal/cli"
	"fincoach/internal/ledger"
	"fincoach/internal/ledger/google"
	"fincoach/internal/ledger/memory"
	"fincoach/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentLedger)
	cfg := cli.LoadAndValidateConfig(logger)

	from := flag.String("from", "demo", "source ledger: demo, csv or sheets")
	csvPath := flag.String("csv", cfg.LedgerCSVPath, "CSV file for -from=csv")
	account := flag.String("account", cfg.LedgerAccount, "SQLite account to import into")
	dbPath := flag.String("db", cfg.SQLiteDBPath, "SQLite database path")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	source, err := openSource(ctx, *from, *csvPath, cfg.GoogleSpreadsheetID, google.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		Range:           cfg.GoogleLedgerRange,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to open source ledger", log.FieldError, err, "from", *from)
		os.Exit(1)
	}

	txs, err := source.Transactions(ctx, time.Now())
	if err != nil {
		logger.Error("Failed to read source ledger", log.FieldError, err, "from", *from)
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, *dbPath)
	defer repo.Close()

	n, err := adapters.NewSQLiteLedger(repo, *account).AppendTransactions(ctx, txs)
	if err != nil {
		logger.Error("Import failed", log.FieldError, err, "account", *account)
		os.Exit(1)
	}

	logger.Info("Ledger imported",
		"from", *from,
		"account", *account,
		log.FieldCount, n,
		log.FieldOperation, log.OpSeed)
}

func openSource(ctx context.Context, from, csvPath, spreadsheetID string, opts google.Options) (ledger.TransactionSource, error) {
	switch from {
	case "demo":
		return memory.NewDemo(), nil
	case "csv":
		if csvPath == "" {
			return nil, fmt.Errorf("-csv is required for -from=csv")
		}
		return memory.NewFromCSV(csvPath)
	case "sheets":
		if spreadsheetID == "" {
			return nil, fmt.Errorf("GOOGLE_SPREADSHEET_ID is required for -from=sheets")
		}
		return google.New(ctx, opts)
	default:
		return nil, fmt.Errorf("unknown source %q: must be demo, csv or sheets", from)
	}
}
