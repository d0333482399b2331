// Package loader fetches the spreadsheet sources behind each dashboard and
// turns them into normalized rows. It decides which sources are required and
// which may fail without taking the view down.
package loader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"shopledger/internal/core"
	applog "shopledger/internal/log"
	"shopledger/internal/report"
	"shopledger/internal/sheets"
)

// BackupSource labels transactions read from a backup sheet.
const BackupSource = "BACKUP"

// Sources names the spreadsheets the loader reads.
type Sources struct {
	BalanceSpreadsheetID      string
	TransactionsSpreadsheetID string
	BackupIndexSpreadsheetID  string
}

// SourceError reports a failed fetch of one named source.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string { return fmt.Sprintf("source %s: %v", e.Source, e.Err) }

func (e *SourceError) Unwrap() error { return e.Err }

// SourceFailure is a degraded source as reported to clients.
type SourceFailure struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// TransactionSet is the outcome of loading the transaction sheets.
type TransactionSet struct {
	Transactions []core.Transaction `json:"transactions"`
	Failures     []SourceFailure    `json:"failures,omitempty"`
	UsedBackup   bool               `json:"usedBackup"`
	BackupDate   string             `json:"backupDate,omitempty"`
	Notice       string             `json:"notice,omitempty"`
	// FilterDate is the ISO date rows must still be filtered on; empty when
	// the set is already scoped to a date by a backup.
	FilterDate string `json:"-"`
}

// BackupEntry is one line of the backup index.
type BackupEntry struct {
	Date string `json:"date"`
	URL  string `json:"url"`
}

// Loader reads sheets through a sheets.Source.
type Loader struct {
	src          sheets.Source
	cfg          Sources
	logger       *applog.Logger
	fetchTimeout time.Duration
}

// New creates a Loader. fetchTimeout bounds each fetch; zero disables it.
func New(src sheets.Source, cfg Sources, logger *applog.Logger, fetchTimeout time.Duration) *Loader {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Loader{
		src:          src,
		cfg:          cfg,
		logger:       logger.WithComponent(applog.ComponentLoader),
		fetchTimeout: fetchTimeout,
	}
}

func (l *Loader) balanceRef(sheet string) sheets.Ref {
	return sheets.Ref{SpreadsheetID: l.cfg.BalanceSpreadsheetID, Sheet: sheet}
}

func (l *Loader) transactionsRef(sheet string) sheets.Ref {
	return sheets.Ref{SpreadsheetID: l.cfg.TransactionsSpreadsheetID, Sheet: sheet}
}

func (l *Loader) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.fetchTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, l.fetchTimeout)
}

// read fetches one sheet, wrapping failures as *SourceError.
func (l *Loader) read(ctx context.Context, ref sheets.Ref) ([]core.RawRow, error) {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	rows, err := l.src.ReadRows(ctx, ref)
	if err != nil {
		return nil, &SourceError{Source: ref.Sheet, Err: err}
	}
	l.logger.DebugContext(ctx, "Sheet fetched",
		applog.NewFields().WithSheet(ref.SpreadsheetID, ref.Sheet, len(rows)).ToSlice()...)
	return rows, nil
}

func (l *Loader) readURL(ctx context.Context, source, rawURL string) ([]core.RawRow, error) {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	rows, err := l.src.ReadURL(ctx, rawURL)
	if err != nil {
		return nil, &SourceError{Source: source, Err: err}
	}
	return rows, nil
}

func toTransactions(raw []core.RawRow, source string) []core.Transaction {
	out := make([]core.Transaction, 0, len(raw))
	for _, r := range raw {
		out = append(out, core.NewTransaction(core.NewRow(r), source))
	}
	return out
}

// Transactions loads WD, DP and B2B in parallel. A failing sheet is logged
// and listed in Failures while the others are still returned, in sheet
// order. Only cancellation of ctx is an error.
func (l *Loader) Transactions(ctx context.Context) (TransactionSet, error) {
	names := []string{sheets.SheetWithdrawals, sheets.SheetDeposits, sheets.SheetB2B}
	results := make([][]core.Transaction, len(names))
	errs := make([]error, len(names))

	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			raw, err := l.read(ctx, l.transactionsRef(name))
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = toTransactions(raw, name)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return TransactionSet{}, err
	}

	var set TransactionSet
	for i, name := range names {
		if errs[i] != nil {
			l.logger.WarnContext(ctx, "Transaction source unavailable",
				applog.NewFields().WithSheet(l.cfg.TransactionsSpreadsheetID, name, 0).
					WithError(errs[i], applog.ErrorTypeUpstream).ToSlice()...)
			set.Failures = append(set.Failures, SourceFailure{Source: name, Error: errs[i].Error()})
			continue
		}
		set.Transactions = append(set.Transactions, results[i]...)
	}
	return set, nil
}

// BackupIndex lists the backup index sheet. Rows without a parseable date
// or URL are skipped.
func (l *Loader) BackupIndex(ctx context.Context) ([]BackupEntry, error) {
	if l.cfg.BackupIndexSpreadsheetID == "" {
		return nil, nil
	}
	raw, err := l.read(ctx, sheets.Ref{SpreadsheetID: l.cfg.BackupIndexSpreadsheetID, Sheet: sheets.SheetBackupIndex})
	if err != nil {
		return nil, err
	}
	var out []BackupEntry
	for _, r := range core.NewRows(raw) {
		date := core.NormalizeDate(r.Get("DATE"))
		url := r.Get("URL")
		if date == "" || url == "" {
			continue
		}
		out = append(out, BackupEntry{Date: date, URL: url})
	}
	return out, nil
}

// TransactionsForDate loads the backup taken on date when the backup index
// lists one, scoped to that date already. Otherwise it falls back to the
// live sheets with a notice, and FilterDate tells the caller to filter rows
// by date. A blank or ALL date is the same as Transactions.
func (l *Loader) TransactionsForDate(ctx context.Context, date string) (TransactionSet, error) {
	if core.IsAll(date) {
		return l.Transactions(ctx)
	}
	iso := core.NormalizeDate(date)
	if iso == "" {
		set, err := l.Transactions(ctx)
		if err != nil {
			return set, err
		}
		set.Notice = fmt.Sprintf("%q is not a recognised date; showing live data", date)
		set.FilterDate = date
		return set, nil
	}

	var degraded []SourceFailure
	entries, err := l.BackupIndex(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return TransactionSet{}, ctx.Err()
		}
		l.logger.WarnContext(ctx, "Backup index unavailable",
			applog.NewFields().WithError(err, applog.ErrorTypeUpstream).ToSlice()...)
		degraded = append(degraded, SourceFailure{Source: sheets.SheetBackupIndex, Error: err.Error()})
	}

	for _, e := range entries {
		if e.Date != iso {
			continue
		}
		raw, err := l.readURL(ctx, BackupSource, e.URL)
		if err != nil {
			if ctx.Err() != nil {
				return TransactionSet{}, ctx.Err()
			}
			l.logger.WarnContext(ctx, "Backup sheet unavailable",
				applog.NewFields().WithError(err, applog.ErrorTypeUpstream).ToSlice()...)
			degraded = append(degraded, SourceFailure{Source: BackupSource, Error: err.Error()})
			break
		}
		return TransactionSet{
			Transactions: toTransactions(raw, BackupSource),
			UsedBackup:   true,
			BackupDate:   iso,
			Failures:     degraded,
		}, nil
	}

	set, err := l.Transactions(ctx)
	if err != nil {
		return set, err
	}
	set.Failures = append(degraded, set.Failures...)
	set.Notice = fmt.Sprintf("No backup for %s; showing live data", iso)
	set.FilterDate = iso
	return set, nil
}

// ShopBalances loads the SHOPS BALANCE sheet. It is required.
func (l *Loader) ShopBalances(ctx context.Context) ([]core.Row, error) {
	raw, err := l.read(ctx, l.balanceRef(sheets.SheetShopsBalance))
	if err != nil {
		return nil, err
	}
	return core.NewRows(raw), nil
}

// LedgerSheets loads the five sheets a ledger needs in parallel. All are
// required; the first failure cancels the rest.
func (l *Loader) LedgerSheets(ctx context.Context) (report.LedgerSheets, error) {
	var out report.LedgerSheets
	g, gctx := errgroup.WithContext(ctx)

	fetch := func(sheet string, dst *[]core.Row) {
		g.Go(func() error {
			raw, err := l.read(gctx, l.balanceRef(sheet))
			if err != nil {
				return err
			}
			*dst = core.NewRows(raw)
			return nil
		})
	}
	fetch(sheets.SheetTotalDeposit, &out.Deposits)
	fetch(sheets.SheetTotalWithdrawal, &out.Withdrawals)
	fetch(sheets.SheetSettlement, &out.Settlements)
	fetch(sheets.SheetCommission, &out.Commissions)
	fetch(sheets.SheetShopsBalance, &out.Balances)

	if err := g.Wait(); err != nil {
		return report.LedgerSheets{}, err
	}
	return out, nil
}

// Ledger loads the ledger sheets and builds the ledger of shop.
func (l *Loader) Ledger(ctx context.Context, shop string) (report.Ledger, error) {
	s, err := l.LedgerSheets(ctx)
	if err != nil {
		return report.Ledger{}, err
	}
	return report.BuildLedger(report.NewLedgerInput(s, shop)), nil
}

// Warm fetches every sheet once so a cache in front of the source is
// filled. Transaction sheets are best effort.
func (l *Loader) Warm(ctx context.Context) error {
	if _, err := l.LedgerSheets(ctx); err != nil {
		return fmt.Errorf("warm ledger sheets: %w", err)
	}
	set, err := l.Transactions(ctx)
	if err != nil {
		return fmt.Errorf("warm transactions: %w", err)
	}
	if len(set.Failures) > 0 {
		return fmt.Errorf("warm transactions: %d source(s) failed", len(set.Failures))
	}
	return nil
}

// IsSourceError reports whether err came from a failed upstream fetch.
func IsSourceError(err error) bool {
	var se *SourceError
	return errors.As(err, &se)
}
