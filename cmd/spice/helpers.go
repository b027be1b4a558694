package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Veraticus/spice-forecast/internal/classification"
	"github.com/Veraticus/spice-forecast/internal/common"
	"github.com/Veraticus/spice-forecast/internal/config"
	"github.com/Veraticus/spice-forecast/internal/forecast"
	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/Veraticus/spice-forecast/internal/pattern"
	"github.com/Veraticus/spice-forecast/internal/profile"
	"github.com/Veraticus/spice-forecast/internal/service"
	"github.com/Veraticus/spice-forecast/internal/storage"
	"github.com/spf13/cobra"
)

// Output formats.
const (
	outputTable = "table"
	outputJSON  = "json"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// analysisEnv bundles what the analysis commands need.
type analysisEnv struct {
	cfg        *config.AnalysisConfig
	store      *storage.SQLiteStorage
	classifier *classification.Classifier
	profiler   *profile.Profiler
	analyzer   *pattern.Analyzer
}

// initStorage opens and migrates the database at path.
func initStorage(ctx context.Context, path string) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// newAnalysisEnv loads configuration, opens storage and builds the analysis components.
// The caller must call close.
func newAnalysisEnv(ctx context.Context) (*analysisEnv, error) {
	cfg, err := config.LoadAnalysisConfig()
	if err != nil {
		return nil, common.NewUserError("Invalid analysis configuration", err)
	}

	classifier, err := classification.NewClassifier(cfg.Classification)
	if err != nil {
		return nil, common.NewUserError("Invalid classification settings", err)
	}
	profiler, err := profile.NewProfiler(cfg.Profile)
	if err != nil {
		return nil, common.NewUserError("Invalid profile settings", err)
	}
	analyzer, err := pattern.NewAnalyzer(cfg.Holidays)
	if err != nil {
		return nil, common.NewUserError("Invalid holiday settings", err)
	}

	store, err := initStorage(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &analysisEnv{
		cfg:        cfg,
		store:      store,
		classifier: classifier,
		profiler:   profiler,
		analyzer:   analyzer,
	}, nil
}

func (e *analysisEnv) close() {
	_ = e.store.Close()
}

func (e *analysisEnv) composer() (*forecast.Composer, error) {
	return forecast.NewComposer(e.classifier, e.profiler, e.analyzer, e.cfg.Forecast)
}

// history loads the transactions selected by filter, or a UserError when there are none.
func (e *analysisEnv) history(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	txns, err := e.store.GetTransactions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	if len(txns) == 0 {
		return nil, common.NewUserError("No transactions found. Import some with: spice import <files>", common.ErrNoTransactions)
	}
	return txns, nil
}

// addHistoryFlags registers the flags that select which stored transactions are analyzed.
func addHistoryFlags(cmd *cobra.Command) {
	cmd.Flags().String("from", "", "Only analyze transactions on or after this date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "Only analyze transactions on or before this date (YYYY-MM-DD)")
	cmd.Flags().String("account", "", "Only analyze transactions from this account")
	cmd.Flags().StringP("output", "o", outputTable, "Output format (table, json)")
}

// historyFilter builds a storage filter from the history flags.
func historyFilter(cmd *cobra.Command) (service.TransactionFilter, error) {
	var filter service.TransactionFilter

	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	account, _ := cmd.Flags().GetString("account")

	if from != "" {
		d, err := parseDate(from, "from")
		if err != nil {
			return filter, err
		}
		filter.StartDate = &d
	}
	if to != "" {
		d, err := parseDate(to, "to")
		if err != nil {
			return filter, err
		}
		// Include the whole final day.
		end := d.Add(24*time.Hour - time.Nanosecond)
		filter.EndDate = &end
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return filter, common.NewUserError("--to must not be before --from", storage.ErrInvalidDateRange)
	}

	filter.AccountID = strings.TrimSpace(account)
	return filter, nil
}

func parseDate(value, flag string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, common.NewUserError(fmt.Sprintf("invalid --%s date format (use YYYY-MM-DD)", flag), err)
	}
	return d, nil
}

func outputFormat(cmd *cobra.Command) (string, error) {
	format, _ := cmd.Flags().GetString("output")
	switch format {
	case outputTable, outputJSON:
		return format, nil
	default:
		return "", common.NewUserError(fmt.Sprintf("invalid output format %q (valid: table, json)", format), common.ErrInvalidConfig)
	}
}

// writeOutput prints v as indented JSON, or the rendered text for table output.
func writeOutput(w io.Writer, format string, v any, render func() string) error {
	if format == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(w, render())
	return err
}
