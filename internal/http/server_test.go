package http

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"shopledger/internal/core"
	"shopledger/internal/loader"
	"shopledger/internal/report"
	"shopledger/internal/sheets"
	"shopledger/internal/sheets/memory"
)

func ref(id, sheet string) sheets.Ref { return sheets.Ref{SpreadsheetID: id, Sheet: sheet} }

func seededStore() *memory.Store {
	s := memory.New()
	s.Put(ref("tx", sheets.SheetWithdrawals), []core.RawRow{
		{"Shop Name": "acme", "Wallet": "GCash", "Amount": "100", "Date": "2024-01-01", "Type": "CASH"},
	})
	s.Put(ref("tx", sheets.SheetDeposits), []core.RawRow{
		{"Shop Name": "beta", "Wallet": "Maya", "Amount": "1,000", "Date": "2024-01-02", "Type": "BANK"},
	})
	s.Put(ref("tx", sheets.SheetB2B), []core.RawRow{
		{"Shop": "acme", "Wallet": "GCash", "Amount": "5", "Date": "2024-01-02"},
	})
	s.Put(ref("bal", sheets.SheetShopsBalance), []core.RawRow{
		{"SHOP": "Acme", "BRING FORWARD BALANCE": "1,000", "SECURITY DEPOSIT": "250", "TEAM LEADER": "Jo"},
		{"SHOP": "Beta", "BRING FORWARD BALANCE": "300", "TEAM LEADER": "Max"},
	})
	s.Put(ref("bal", sheets.SheetTotalDeposit), []core.RawRow{{"SHOP": "acme", "DATE": "2024-01-01", "AMOUNT": "500"}})
	s.Put(ref("bal", sheets.SheetTotalWithdrawal), nil)
	s.Put(ref("bal", sheets.SheetSettlement), nil)
	s.Put(ref("bal", sheets.SheetCommission), []core.RawRow{{"SHOP": "ACME", "DP COMM": "2"}})
	s.Put(ref("idx", sheets.SheetBackupIndex), []core.RawRow{
		{"Date": "1/5/2024", "URL": "https://opensheet.elk.sh/backup1/WD"},
	})
	s.Put(ref("backup1", "WD"), []core.RawRow{
		{"Shop Name": "acme", "Wallet": "GCash", "Amount": "42", "Date": "2024-01-05"},
		{"Shop Name": "acme", "Wallet": "GCash", "Amount": "7", "Date": "2024-01-04"},
	})
	return s
}

func newTestServer(t *testing.T, store *memory.Store, opts Options) *Server {
	t.Helper()
	l := loader.New(store, loader.Sources{
		BalanceSpreadsheetID:      "bal",
		TransactionsSpreadsheetID: "tx",
		BackupIndexSpreadsheetID:  "idx",
	}, nil, 0)
	if opts.RateLimitRPS == 0 {
		opts.RateLimitRPS, opts.RateLimitBurst = 1000, 1000
	}
	srv := New(l, opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func get(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("Content-Type = %q", ct)
	}
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", rr.Body.String(), err)
	}
}

func attachmentName(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	_, params, err := mime.ParseMediaType(rr.Header().Get("Content-Disposition"))
	if err != nil {
		t.Fatalf("Content-Disposition %q: %v", rr.Header().Get("Content-Disposition"), err)
	}
	return params["filename"]
}

func TestHealthAndHeaders(t *testing.T) {
	srv := newTestServer(t, seededStore(), Options{})
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := get(t, srv, path)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
		if rr.Header().Get("X-Request-ID") == "" {
			t.Fatalf("%s missing X-Request-ID", path)
		}
		if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Fatalf("%s missing security headers", path)
		}
	}
}

func TestNotFoundIsJSON(t *testing.T) {
	rr := get(t, newTestServer(t, seededStore(), Options{}), "/api/nope")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rr.Code)
	}
	var body errorResponse
	decode(t, rr, &body)
	if body.Error != "not found" {
		t.Fatalf("body = %+v", body)
	}
}

type balancesBody struct {
	Summaries struct {
		Items      []map[string]any `json:"items"`
		TotalItems int              `json:"totalItems"`
	} `json:"summaries"`
	Totals       map[string]any `json:"totals"`
	Leaders      []string       `json:"leaders"`
	LeaderLocked bool           `json:"leaderLocked"`
}

func TestBalances(t *testing.T) {
	srv := newTestServer(t, seededStore(), Options{})

	var all balancesBody
	rr := get(t, srv, "/api/balances")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	decode(t, rr, &all)
	if all.Summaries.TotalItems != 2 || all.LeaderLocked {
		t.Fatalf("unfiltered = %+v", all)
	}
	if strings.Join(all.Leaders, ",") != "JO,MAX" {
		t.Fatalf("leaders = %v", all.Leaders)
	}
	if all.Totals["runningBalance"] != "1300" {
		t.Fatalf("totals running balance = %v", all.Totals["runningBalance"])
	}

	var jo balancesBody
	decode(t, get(t, srv, "/api/balances?teamLeader=jo"), &jo)
	if jo.Summaries.TotalItems != 1 || !jo.LeaderLocked {
		t.Fatalf("leader filtered = %+v", jo)
	}
	if jo.Summaries.Items[0]["shopName"] != "ACME" || jo.Totals["runningBalance"] != "1000" {
		t.Fatalf("leader filtered = %+v", jo)
	}
	if len(jo.Leaders) != 2 {
		t.Fatalf("leader list must not be narrowed by the filter: %v", jo.Leaders)
	}

	var allLeaders balancesBody
	decode(t, get(t, srv, "/api/balances?teamLeader=ALL"), &allLeaders)
	if allLeaders.Summaries.TotalItems != 2 || allLeaders.LeaderLocked {
		t.Fatalf("teamLeader=ALL must not lock the leader: %+v", allLeaders)
	}
}

func TestBalances_SourceFailure(t *testing.T) {
	s := seededStore()
	s.Fail(ref("bal", sheets.SheetShopsBalance), errors.New("503 from upstream"))
	rr := get(t, newTestServer(t, s, Options{}), "/api/balances")
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status=%d", rr.Code)
	}
	var body errorResponse
	decode(t, rr, &body)
	if body.Source != sheets.SheetShopsBalance || body.RequestID == "" {
		t.Fatalf("body = %+v", body)
	}
}

func TestBalancesExport(t *testing.T) {
	srv := newTestServer(t, seededStore(), Options{})

	rr := get(t, srv, "/api/balances/export?teamLeader=jo")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if name := attachmentName(t, rr); name != "shops_balance_JO.csv" {
		t.Fatalf("filename = %q", name)
	}
	records, err := csv.NewReader(bytes.NewReader(rr.Body.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	if len(records) != 2 || records[0][0] != "SHOP NAME" || records[1][0] != "ACME" {
		t.Fatalf("records = %v", records)
	}

	if name := attachmentName(t, get(t, srv, "/api/balances/export")); name != "shops_balance.csv" {
		t.Fatalf("unfiltered filename = %q", name)
	}

	if rr := get(t, srv, "/api/balances/export?format=pdf"); rr.Code != http.StatusBadRequest {
		t.Fatalf("unsupported format status=%d", rr.Code)
	}
}

func TestLedger(t *testing.T) {
	srv := newTestServer(t, seededStore(), Options{})

	if rr := get(t, srv, "/api/ledger"); rr.Code != http.StatusBadRequest {
		t.Fatalf("missing shop status=%d", rr.Code)
	}
	if rr := get(t, srv, "/api/ledger?shopName=ALL"); rr.Code != http.StatusBadRequest {
		t.Fatalf("ALL shop status=%d", rr.Code)
	}

	rr := get(t, srv, "/api/ledger?shopName=%20acme%20")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var ledger report.Ledger
	decode(t, rr, &ledger)
	if ledger.Shop != "ACME" || ledger.FinalBalance.String() != "1490" {
		t.Fatalf("ledger = %+v", ledger)
	}
	if len(ledger.Rows) == 0 || ledger.Rows[0].Label != report.OpeningLabel {
		t.Fatalf("rows = %+v", ledger.Rows)
	}
}

func TestLedger_SourceFailure(t *testing.T) {
	s := seededStore()
	s.Fail(ref("bal", sheets.SheetCommission), errors.New("down"))
	rr := get(t, newTestServer(t, s, Options{}), "/api/ledger?shopName=acme")
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestLedgerExport(t *testing.T) {
	srv := newTestServer(t, seededStore(), Options{})

	rr := get(t, srv, "/api/ledger/export?shopName=acme")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if name := attachmentName(t, rr); name != "Ledger_ACME.csv" {
		t.Fatalf("filename = %q", name)
	}
	if !strings.HasPrefix(rr.Body.String(), `"DATE","DEPOSIT",`) {
		t.Fatalf("body = %s", rr.Body.String())
	}
	lines := strings.Split(strings.TrimSuffix(rr.Body.String(), "\n"), "\n")
	if !strings.HasPrefix(lines[len(lines)-1], `"TOTAL",`) {
		t.Fatalf("last line = %s", lines[len(lines)-1])
	}

	if rr := get(t, srv, "/api/ledger/export?format=xlsx"); rr.Code != http.StatusBadRequest {
		t.Fatalf("missing shop status=%d", rr.Code)
	}
}

type transactionsBody struct {
	Transactions struct {
		Items      []core.Transaction `json:"items"`
		TotalItems int                `json:"totalItems"`
	} `json:"transactions"`
	WalletTotals []report.KeyTotal      `json:"walletTotals"`
	Total        string                 `json:"total"`
	Wallets      []string               `json:"wallets"`
	Types        []string               `json:"types"`
	Failures     []loader.SourceFailure `json:"failures"`
	UsedBackup   bool                   `json:"usedBackup"`
	BackupDate   string                 `json:"backupDate"`
	Notice       string                 `json:"notice"`
}

func TestTransactions(t *testing.T) {
	srv := newTestServer(t, seededStore(), Options{})

	tests := []struct {
		name       string
		target     string
		wantItems  int
		wantTotal  string
		wantBackup bool
		wantNotice bool
	}{
		{"all", "/api/transactions", 3, "1105.00", false, false},
		{"shop", "/api/transactions?shopName=acme", 2, "105.00", false, false},
		{"wallet and type", "/api/transactions?wallet=GCash&type=CASH", 1, "100.00", false, false},
		{"backup date", "/api/transactions?date=2024-01-05", 2, "49.00", true, false},
		{"no backup filters live data", "/api/transactions?date=01/02/2024", 2, "1005.00", false, true},
		{"invalid date matches nothing", "/api/transactions?date=someday", 0, "0.00", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := get(t, srv, tt.target)
			if rr.Code != http.StatusOK {
				t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
			}
			var body transactionsBody
			decode(t, rr, &body)
			if body.Transactions.TotalItems != tt.wantItems || body.Total != tt.wantTotal {
				t.Fatalf("items=%d total=%s, want %d %s", body.Transactions.TotalItems, body.Total, tt.wantItems, tt.wantTotal)
			}
			if body.UsedBackup != tt.wantBackup || (body.Notice != "") != tt.wantNotice {
				t.Fatalf("usedBackup=%v notice=%q", body.UsedBackup, body.Notice)
			}
		})
	}
}

func TestTransactions_OptionsAndFailures(t *testing.T) {
	s := seededStore()
	s.Fail(ref("tx", sheets.SheetDeposits), errors.New("503"))
	rr := get(t, newTestServer(t, s, Options{}), "/api/transactions?shopName=acme")
	if rr.Code != http.StatusOK {
		t.Fatalf("a failing transaction sheet must not fail the view: %d", rr.Code)
	}
	var body transactionsBody
	decode(t, rr, &body)
	if len(body.Failures) != 1 || body.Failures[0].Source != sheets.SheetDeposits {
		t.Fatalf("failures = %+v", body.Failures)
	}
	if strings.Join(body.Wallets, ",") != "GCash" || strings.Join(body.Types, ",") != "-,CASH" {
		t.Fatalf("wallets=%v types=%v", body.Wallets, body.Types)
	}
	if len(body.WalletTotals) != 1 || body.WalletTotals[0].Amount.String() != "105" {
		t.Fatalf("walletTotals = %+v", body.WalletTotals)
	}
}

func TestTransactionsExport(t *testing.T) {
	srv := newTestServer(t, seededStore(), Options{})

	rr := get(t, srv, "/api/transactions/export?format=xlsx")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if name := attachmentName(t, rr); name != "Transactions_All.xlsx" {
		t.Fatalf("filename = %q", name)
	}
	f, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Transactions")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want header plus 3", len(rows))
	}

	rr = get(t, srv, "/api/transactions/export?shopName=acme")
	if name := attachmentName(t, rr); name != "Transactions_ACME.csv" {
		t.Fatalf("filename = %q", name)
	}
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, seededStore(), Options{RateLimitRPS: 0.5, RateLimitBurst: 1})

	if rr := get(t, srv, "/api/status"); rr.Code != http.StatusOK {
		t.Fatalf("first status=%d", rr.Code)
	}
	rr := get(t, srv, "/api/status")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second status=%d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After")
	}
	if rr := get(t, srv, "/healthz"); rr.Code != http.StatusOK {
		t.Fatalf("health checks must not be rate limited: %d", rr.Code)
	}
}

func TestStatusHook(t *testing.T) {
	srv := newTestServer(t, seededStore(), Options{Status: func() map[string]any {
		return map[string]any{"cache": map[string]int{"size": 3}}
	}})
	var body map[string]any
	decode(t, get(t, srv, "/api/status"), &body)
	if _, ok := body["cache"]; !ok {
		t.Fatalf("status = %v", body)
	}
	if _, ok := body["rateLimit"]; !ok {
		t.Fatalf("status = %v", body)
	}
}

type panicking struct{ DataSource }

func (panicking) ShopBalances(context.Context) ([]core.Row, error) { panic("boom") }

func TestRecoversPanics(t *testing.T) {
	srv := New(panicking{}, Options{RateLimitRPS: 100, RateLimitBurst: 100})
	defer srv.Shutdown(context.Background())
	rr := get(t, srv, "/api/balances")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rr.Code)
	}
}
