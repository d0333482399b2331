package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"shopledger/internal/backend"
	"shopledger/internal/config"
	"shopledger/internal/core"
	"shopledger/internal/export"
	"shopledger/internal/loader"
	applog "shopledger/internal/log"
	"shopledger/internal/report"
)

// Export views.
const (
	viewSummary      = "summary"
	viewLedger       = "ledger"
	viewTransactions = "transactions"
)

func runExport(ctx context.Context, cfg *config.Config, logger *applog.Logger, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(stderr)
	view := fs.String("view", viewSummary, "summary, ledger or transactions")
	format := fs.String("format", string(export.FormatCSV), "csv or xlsx")
	out := fs.String("o", "", "output file, - for stdout (default: the download name in the current directory)")
	var filter report.Filter
	fs.StringVar(&filter.ShopName, "shop", "", "shop name")
	fs.StringVar(&filter.Leader, "leader", "", "team leader")
	fs.StringVar(&filter.Wallet, "wallet", "", "wallet (transactions)")
	fs.StringVar(&filter.Type, "type", "", "transaction type (transactions)")
	fs.StringVar(&filter.Date, "date", "", "date, served from a backup when one exists (transactions)")
	fs.StringVar(&filter.Search, "search", "", "shop name substring")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := export.ParseFormat(*format)
	if err != nil {
		return usageErr("%v", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.New(ctx, bcfg, logger)
	if err != nil {
		return err
	}
	ld := loader.New(res.Source, loader.Sources{
		BalanceSpreadsheetID:      cfg.BalanceSpreadsheetID,
		TransactionsSpreadsheetID: cfg.TransactionsSpreadsheetID,
		BackupIndexSpreadsheetID:  cfg.BackupIndexSpreadsheetID,
	}, logger, cfg.FetchTimeout)

	table, base, label, err := buildTable(ctx, ld, logger, strings.ToLower(*view), filter)
	if err != nil {
		return err
	}

	if *out == "-" {
		return export.Write(stdout, f, table)
	}
	path := *out
	if path == "" {
		path = export.Filename(base, label, f)
	}
	if err := writeFile(path, f, table); err != nil {
		return err
	}
	logger.Info("Export written",
		applog.FieldOperation, applog.OpExport,
		applog.FieldFormat, string(f),
		"path", path,
		applog.FieldRows, len(table.Rows))
	return nil
}

// buildTable loads and filters one view, returning the table and the parts
// of its default file name.
func buildTable(ctx context.Context, ld *loader.Loader, logger *applog.Logger, view string, filter report.Filter) (export.Table, string, string, error) {
	switch view {
	case viewSummary:
		rows, err := ld.ShopBalances(ctx)
		if err != nil {
			return export.Table{}, "", "", err
		}
		list := report.FilterSummaries(report.BuildShopSummaries(rows), filter)
		label := ""
		if !core.IsAll(filter.Leader) {
			label = strings.ToUpper(strings.TrimSpace(filter.Leader))
		}
		return export.SummaryTable(list), "shops_balance", label, nil

	case viewLedger:
		if core.IsAll(filter.ShopName) {
			return export.Table{}, "", "", usageErr("-shop is required for the ledger view")
		}
		ledger, err := ld.Ledger(ctx, filter.ShopName)
		if err != nil {
			return export.Table{}, "", "", err
		}
		return export.LedgerTable(ledger), "Ledger", ledger.Shop, nil

	case viewTransactions:
		set, err := ld.TransactionsForDate(ctx, filter.Date)
		if err != nil {
			return export.Table{}, "", "", err
		}
		for _, f := range set.Failures {
			logger.Warn("Transaction source unavailable", applog.FieldSource, f.Source, applog.FieldError, f.Error)
		}
		if set.Notice != "" {
			logger.Warn(set.Notice)
		}
		scoped := filter
		scoped.Date = set.FilterDate
		label := "All"
		if !core.IsAll(filter.ShopName) {
			label = core.NormalizeShopName(filter.ShopName)
		}
		return export.TransactionTable(report.FilterTransactions(set.Transactions, scoped)), "Transactions", label, nil
	}
	return export.Table{}, "", "", usageErr("unknown view %q: must be summary, ledger or transactions", view)
}

func writeFile(path string, f export.Format, t export.Table) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	if err := export.Write(file, f, t); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
