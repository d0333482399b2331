package export

import (
	"github.com/shopspring/decimal"

	"shopledger/internal/core"
	"shopledger/internal/report"
)

var (
	summaryHeader = []string{
		"SHOP NAME", "TEAM LEADER", "SECURITY DEPOSIT", "BRING FORWARD BALANCE",
		"TOTAL DEPOSIT", "TOTAL WITHDRAWAL", "INTERNAL TRANSFER IN", "INTERNAL TRANSFER OUT",
		"SETTLEMENT", "SPECIAL PAYMENT", "ADJUSTMENT", "DP COMM", "WD COMM", "ADD COMM",
		"RUNNING BALANCE",
	}
	ledgerHeader = []string{
		"DATE", "DEPOSIT", "WITHDRAWAL", "IN", "OUT", "SETTLEMENT", "SPECIAL PAYMENT",
		"ADJUSTMENT", "SECURITY DEPOSIT", "DP COMM", "WD COMM", "ADD COMM", "RUNNING BALANCE",
	}
	transactionHeader = []string{
		"To Wallet Number", "Wallet", "Reference", "Amount", "Date", "Type",
		"Shop Name", "Leader", "From Wallet Number",
	}
)

func amounts(ds ...decimal.Decimal) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = core.FormatAmount(d)
	}
	return out
}

// SummaryTable lays out shop summaries in the balance export column order.
func SummaryTable(list []report.ShopSummary) Table {
	t := Table{Name: "Shops Balance", Header: summaryHeader}
	for _, s := range list {
		row := append([]string{s.ShopName, s.TeamLeader}, amounts(
			s.SecurityDeposit, s.BringForward, s.TotalDeposit, s.TotalWithdrawal,
			s.TransferIn, s.TransferOut, s.Settlement, s.SpecialPayment, s.Adjustment,
			s.DPComm, s.WDComm, s.AddComm, s.RunningBalance,
		)...)
		t.Rows = append(t.Rows, row)
	}
	return t
}

func ledgerRow(label string, r report.LedgerRow) []string {
	return append([]string{label}, amounts(
		r.Deposit, r.Withdrawal, r.TransferIn, r.TransferOut, r.Settlement,
		r.SpecialPayment, r.Adjustment, r.SecurityDeposit,
		r.DPComm, r.WDComm, r.AddComm, r.RunningBalance,
	)...)
}

// LedgerTable lays out a ledger, opening row first and totals last.
func LedgerTable(l report.Ledger) Table {
	t := Table{Name: "Ledger " + l.Shop, Header: ledgerHeader}
	for _, r := range l.Rows {
		t.Rows = append(t.Rows, ledgerRow(r.Label, r))
	}
	t.Rows = append(t.Rows, ledgerRow(report.TotalLabel, l.Totals))
	return t
}

// TransactionTable lays out transactions with their sheet headers.
func TransactionTable(txs []core.Transaction) Table {
	t := Table{Name: "Transactions", Header: transactionHeader}
	for _, tx := range txs {
		t.Rows = append(t.Rows, []string{
			tx.ToWallet, tx.Wallet, tx.Reference, core.FormatAmount(tx.Amount), tx.Date,
			tx.Type, tx.ShopName, tx.Leader, tx.FromWallet,
		})
	}
	return t
}
