package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"shopledger/internal/core"
	"shopledger/internal/report"
)

func TestWriteCSV_QuotesEveryField(t *testing.T) {
	var buf bytes.Buffer
	tbl := Table{Header: []string{"A", "B"}, Rows: [][]string{{"1", `say "hi"`}}}
	if err := WriteCSV(&buf, tbl); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	want := "\"A\",\"B\"\n\"1\",\"say \"\"hi\"\"\"\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	name := `Smith, "Jr" Store`
	list := []report.ShopSummary{{
		ShopName:       name,
		TeamLeader:     "JO",
		TotalDeposit:   decimal.RequireFromString("500"),
		RunningBalance: decimal.RequireFromString("1490"),
	}}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, SummaryTable(list)); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(records))
	}
	if len(records[0]) != len(summaryHeader) || records[0][5] != "TOTAL WITHDRAWAL" {
		t.Fatalf("header = %v", records[0])
	}
	if records[1][0] != name {
		t.Fatalf("shop name = %q, want %q", records[1][0], name)
	}
	if records[1][4] != "500.00" || records[1][14] != "1490.00" {
		t.Fatalf("amounts = %v", records[1])
	}
}

func TestLedgerTable_TotalsLast(t *testing.T) {
	l := report.Ledger{
		Shop: "ACME",
		Rows: []report.LedgerRow{
			{Label: report.OpeningLabel, Opening: true, RunningBalance: decimal.RequireFromString("1000")},
			{Label: "2024-01-01", Date: "2024-01-01", Deposit: decimal.RequireFromString("500")},
		},
		Totals: report.LedgerRow{Label: report.TotalLabel, RunningBalance: decimal.RequireFromString("1490")},
	}
	tbl := LedgerTable(l)
	if len(tbl.Rows) != 3 {
		t.Fatalf("rows = %d", len(tbl.Rows))
	}
	if tbl.Rows[0][0] != report.OpeningLabel || tbl.Rows[2][0] != "TOTAL" || tbl.Rows[2][12] != "1490.00" {
		t.Fatalf("rows = %v", tbl.Rows)
	}
}

func TestTransactionTable(t *testing.T) {
	tbl := TransactionTable([]core.Transaction{{
		ToWallet: "0917", Wallet: "GCash", Reference: "R1", Amount: decimal.RequireFromString("12.5"),
		Date: "2024-01-01", Type: "CASH", ShopName: "ACME", Leader: "JO", FromWallet: "-",
	}})
	want := []string{"0917", "GCash", "R1", "12.50", "2024-01-01", "CASH", "ACME", "JO", "-"}
	if strings.Join(tbl.Rows[0], "|") != strings.Join(want, "|") {
		t.Fatalf("row = %v", tbl.Rows[0])
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	tbl := Table{Name: "Ledger ACME/1", Header: []string{"DATE", "DEPOSIT"}, Rows: [][]string{{"2024-01-01", "500.00"}}}
	if err := WriteXLSX(&buf, tbl); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Ledger ACME_1")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "2024-01-01" || rows[1][1] != "500.00" {
		t.Fatalf("rows = %v", rows)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatCSV, "CSV": FormatCSV, " xlsx ": FormatXLSX} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("pdf"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestFilename(t *testing.T) {
	cases := []struct {
		base, label string
		f           Format
		want        string
	}{
		{"shops_balance", "", FormatCSV, "shops_balance.csv"},
		{"shops_balance", "JO", FormatCSV, "shops_balance_JO.csv"},
		{"Transactions", "All", FormatCSV, "Transactions_All.csv"},
		{"Ledger", "ACME STORE", FormatXLSX, "Ledger_ACME_STORE.xlsx"},
		{"Ledger", `A/B"C`, FormatCSV, "Ledger_A_B_C.csv"},
	}
	for _, tc := range cases {
		if got := Filename(tc.base, tc.label, tc.f); got != tc.want {
			t.Fatalf("Filename(%q, %q) = %q, want %q", tc.base, tc.label, got, tc.want)
		}
	}
}
