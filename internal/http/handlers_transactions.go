package http

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"shopledger/internal/core"
	"shopledger/internal/export"
	"shopledger/internal/loader"
	"shopledger/internal/report"
)

type transactionsResponse struct {
	Transactions report.Page[core.Transaction] `json:"transactions"`
	WalletTotals []report.KeyTotal              `json:"walletTotals"`
	DateTotals   []report.KeyTotal              `json:"dateTotals"`
	Total        string                         `json:"total"`
	Wallets      []string                       `json:"wallets"`
	Types        []string                       `json:"types"`
	Failures     []loader.SourceFailure         `json:"failures"`
	UsedBackup   bool                           `json:"usedBackup"`
	BackupDate   string                         `json:"backupDate,omitempty"`
	Notice       string                         `json:"notice,omitempty"`
	Filter       report.Filter                  `json:"filter"`
}

// loadTransactions resolves the date through the backup index and applies
// f. The date filter only applies when the set is not a dated backup.
func (s *Server) loadTransactions(ctx context.Context, f report.Filter) (loader.TransactionSet, []core.Transaction, error) {
	set, err := s.data.TransactionsForDate(ctx, f.Date)
	if err != nil {
		return loader.TransactionSet{}, nil, err
	}
	scoped := f
	scoped.Date = set.FilterDate
	return set, report.FilterTransactions(set.Transactions, scoped), nil
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	view := ParseView(r.URL.Query(), s.pageSize)
	set, filtered, err := s.loadTransactions(r.Context(), view.Filter)
	if err != nil {
		writeLoadError(w, r, err)
		return
	}

	total := decimal.Zero
	for _, t := range filtered {
		total = total.Add(t.Amount)
	}
	resp := transactionsResponse{
		Transactions: report.Paginate(filtered, view.Page, view.PageSize),
		WalletTotals: nonNil(report.WalletTotals(filtered)),
		DateTotals:   nonNil(report.DateTotals(filtered)),
		Total:        core.FormatAmount(total),
		Wallets:      nonNil(report.DistinctValues(set.Transactions, func(t core.Transaction) string { return t.Wallet })),
		Types:        nonNil(report.DistinctValues(set.Transactions, func(t core.Transaction) string { return t.Type })),
		Failures:     nonNil(set.Failures),
		UsedBackup:   set.UsedBackup,
		BackupDate:   set.BackupDate,
		Notice:       set.Notice,
		Filter:       view.Filter,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTransactionsExport(w http.ResponseWriter, r *http.Request) {
	f, ok := exportFormat(w, r)
	if !ok {
		return
	}
	filter := ParseFilter(r.URL.Query())
	_, filtered, err := s.loadTransactions(r.Context(), filter)
	if err != nil {
		writeLoadError(w, r, err)
		return
	}

	label := "All"
	if !core.IsAll(filter.ShopName) {
		label = core.NormalizeShopName(filter.ShopName)
	}
	writeAttachment(w, r, f, export.Filename("Transactions", label, f), export.TransactionTable(filtered))
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
