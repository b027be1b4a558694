package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/spice-forecast/internal/cli"
	"github.com/Veraticus/spice-forecast/internal/common"
	"github.com/Veraticus/spice-forecast/internal/config"
	"github.com/Veraticus/spice-forecast/internal/csvimport"
	"github.com/Veraticus/spice-forecast/internal/model"
	"github.com/Veraticus/spice-forecast/internal/ofx"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// importExtensions maps supported file extensions to their format.
var importExtensions = map[string]string{
	".ofx": "ofx",
	".qfx": "ofx",
	".csv": "csv",
}

// fileResult summarizes one imported file.
type fileResult struct {
	err      error
	name     string
	parsed   int
	saved    int
	rejected int
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [files or directories...]",
		Short: "Import transactions from OFX/QFX or CSV files",
		Long: `Import spending transactions from bank exports.

OFX and QFX files are read with their account IDs. CSV files need a header
row with at least Date, Amount and Merchant (or Name) columns; Payment
Amount, Reimbursement, MCC, Category, Account and ID are optional. Rows that
cannot be read are reported and skipped.

Only purchases are imported; credits and deposits are ignored. Transactions
already in the database are skipped, so re-importing a file is safe.

Examples:
  # Import a single file
  spice import ~/Downloads/chase_jan_2024.qfx

  # Import every OFX, QFX and CSV file in a directory tree
  spice import ~/Downloads/statements

  # Preview a CSV without saving
  spice import --dry-run --account amex ~/Downloads/activity.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().String("account", "csv", "Account ID for CSV rows without an Account column")
	cmd.Flags().BoolP("dry-run", "d", false, "Parse files without saving")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	account, _ := cmd.Flags().GetString("account")
	out := cmd.OutOrStdout()

	files, err := collectImportFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return common.NewUserError("No OFX, QFX or CSV files found to import", common.ErrUnsupportedFormat)
	}

	interruptHandler := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Import")
	ctx := interruptHandler.HandleInterrupts(cmd.Context())

	var saver transactionSaver
	if !dryRun {
		store, storeErr := initStorage(ctx, config.DatabasePath(viper.GetString(config.KeyDatabasePath)))
		if storeErr != nil {
			return fmt.Errorf("failed to open database: %w", storeErr)
		}
		defer func() { _ = store.Close() }()
		slog.Debug("Opened database", "path", store.Path())
		saver = store
	}

	slog.Info("Importing files", "file_count", len(files), "dry_run", dryRun)
	if _, err := fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Importing %d file(s)", len(files)))); err != nil {
		return err
	}

	bar := newImportProgressBar(cmd.ErrOrStderr(), len(files))
	results := make([]fileResult, 0, len(files))
	for i, path := range files {
		if ctx.Err() != nil {
			break
		}

		result := importFile(ctx, saver, path, account)
		if result.err != nil {
			common.LogError(result.err, "Failed to import file", common.Fields{"file": path})
		}
		results = append(results, result)

		interruptHandler.SetProgress(i+1, len(files))
		if err := bar.Add(1); err != nil {
			slog.Warn("Failed to update progress bar", "error", err)
		}
	}

	if _, err := fmt.Fprintln(out, renderImportSummary(results, dryRun)); err != nil {
		return err
	}

	if interruptHandler.WasInterrupted() {
		return context.Canceled
	}
	return nil
}

// transactionSaver is the part of storage the import needs. A nil saver means dry run.
type transactionSaver interface {
	SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error)
}

func importFile(ctx context.Context, saver transactionSaver, path, account string) fileResult {
	result := fileResult{name: filepath.Base(path)}

	txns, rejected, err := parseImportFile(ctx, path, account)
	result.parsed = len(txns)
	result.rejected = rejected
	if err != nil {
		result.err = err
		return result
	}

	if saver == nil || len(txns) == 0 {
		return result
	}

	saved, err := saver.SaveTransactions(ctx, txns)
	if err != nil {
		result.err = fmt.Errorf("failed to save transactions: %w", err)
		return result
	}
	result.saved = saved
	return result
}

// parseImportFile reads a file by extension and returns its transactions and the
// number of rejected CSV rows.
func parseImportFile(ctx context.Context, path, account string) ([]model.Transaction, int, error) {
	format, ok := importExtensions[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", common.ErrUnsupportedFormat, filepath.Ext(path))
	}

	f, err := os.Open(path) //nolint:gosec // user-supplied import path
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if format == "ofx" {
		txns, err := ofx.NewParser().ParseFile(ctx, f)
		return txns, 0, err
	}

	txns, rowErrs, err := csvimport.NewParser(account).ParseFile(ctx, f)
	for _, rowErr := range rowErrs {
		slog.Warn("Skipped CSV row", "file", filepath.Base(path), "row", rowErr.Row, "error", rowErr.Err)
	}
	return txns, len(rowErrs), err
}

// collectImportFiles expands globs and walks directories for supported files.
// Explicit file arguments are kept even when their extension is unknown so the
// import can report them.
func collectImportFiles(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err == nil && info.IsDir() {
			walkErr := filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() && importExtensions[strings.ToLower(filepath.Ext(path))] != "" {
					add(path)
				}
				return nil
			})
			if walkErr != nil {
				return nil, fmt.Errorf("failed to scan directory %s: %w", arg, walkErr)
			}
			continue
		}
		if err == nil {
			add(arg)
			continue
		}

		matches, globErr := filepath.Glob(arg)
		if globErr != nil {
			return nil, common.NewUserError(fmt.Sprintf("invalid pattern %s", arg), globErr)
		}
		if len(matches) == 0 {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read %s: %w", arg, err)
			}
			slog.Warn("No files found matching pattern", "pattern", arg)
		}
		for _, m := range matches {
			add(m)
		}
	}

	return files, nil
}

func newImportProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Importing files...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}

func renderImportSummary(results []fileResult, dryRun bool) string {
	rows := make([][]string, 0, len(results))
	var parsed, saved, duplicates, rejected, failed int
	for _, r := range results {
		status := cli.SuccessStyle.Render(cli.SuccessIcon)
		if r.err != nil {
			status = cli.ErrorStyle.Render(cli.ErrorIcon + " " + r.err.Error())
			failed++
		} else {
			duplicates += r.parsed - r.saved
		}
		rows = append(rows, []string{
			r.name,
			fmt.Sprintf("%d", r.parsed),
			fmt.Sprintf("%d", r.saved),
			fmt.Sprintf("%d", r.rejected),
			status,
		})
		parsed += r.parsed
		saved += r.saved
		rejected += r.rejected
	}

	content := cli.RenderTable([]string{"File", "Parsed", "Saved", "Rejected", "Status"}, rows)
	content += "\n\n"
	if dryRun {
		content += cli.FormatInfo(fmt.Sprintf("Dry run: %d transactions parsed, nothing saved", parsed))
	} else {
		content += cli.FormatSuccess(fmt.Sprintf("%d new transactions saved (%d already present)", saved, duplicates))
	}
	if rejected > 0 {
		content += "\n" + cli.FormatWarning(fmt.Sprintf("%d CSV rows rejected", rejected))
	}
	if failed > 0 {
		content += "\n" + cli.FormatError(fmt.Sprintf("%d file(s) failed", failed))
	}

	return cli.RenderBox(cli.SpiceIcon+" Import Summary", content)
}
