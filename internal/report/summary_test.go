package report

import (
	"math/rand"
	"testing"

	"shopledger/internal/core"
)

func balanceRows() []core.RawRow {
	return []core.RawRow{
		{"SHOP": "Alpha", "TEAM LEADER": "jo", "BRING FORWARD BALANCE": "1,000", "TOTAL DEPOSIT": "500", "DP COMM": "10"},
		{"SHOP NAME": " alpha  ", "TOTAL WITHDAWAL": "200", "INTERNAL TRANSAFER OUT": "50", "SETTLEMENT": "(25)"},
		{"SHOP": "Beta", "TEAM LEADER": "#N/A", "INTERNAL TRANSFER IN": "75", "ADJUSTMENT": "5", "SPECIAL PAYMENT": "3"},
		{"SHOP": "", "TOTAL DEPOSIT": "999999"},
		{"SHOP": "Beta", "WD COMM": "1", "ADD COMM": "2", "SECURITY DEPOSIT": "100", "TOTAL DEPOSIT": "oops"},
		{"SHOP": "Gamma", "TEAM LEADER": "Ann"},
	}
}

func TestBuildShopSummaries(t *testing.T) {
	got := BuildShopSummaries(core.NewRows(balanceRows()))
	if len(got) != 3 {
		t.Fatalf("expected 3 shops, got %d: %+v", len(got), got)
	}
	if got[0].ShopName != "ALPHA" || got[1].ShopName != "BETA" || got[2].ShopName != "GAMMA" {
		t.Fatalf("unexpected order: %s %s %s", got[0].ShopName, got[1].ShopName, got[2].ShopName)
	}

	a := got[0]
	if a.TeamLeader != "JO" {
		t.Fatalf("leader = %q", a.TeamLeader)
	}
	// 1000 + 500 - 200 - 50 - (-25) - 10 = 1265
	if !a.RunningBalance.Equal(d("1265")) {
		t.Fatalf("alpha running balance = %s", a.RunningBalance)
	}
	if !a.TotalWithdrawal.Equal(d("200")) || !a.TransferOut.Equal(d("50")) {
		t.Fatalf("typo headers not read: %+v", a)
	}

	b := got[1]
	// 75 - 3 + 5 - 1 - 2 = 74
	if !b.RunningBalance.Equal(d("74")) || !b.SecurityDeposit.Equal(d("100")) {
		t.Fatalf("beta = %+v", b)
	}
	if !b.TotalDeposit.IsZero() {
		t.Fatalf("bad cell must count as zero, got %s", b.TotalDeposit)
	}
}

func TestBuildShopSummaries_RunningBalanceTracksEveryRow(t *testing.T) {
	one := BuildShopSummaries(core.NewRows(balanceRows()[:1]))
	if !one[0].RunningBalance.Equal(one[0].BalanceOf()) || !one[0].RunningBalance.Equal(d("1490")) {
		t.Fatalf("running balance after one row = %s", one[0].RunningBalance)
	}
}

func TestBuildShopSummaries_OrderIndependentTotals(t *testing.T) {
	base := balanceRows()
	want := map[string]ShopSummary{}
	for _, s := range BuildShopSummaries(core.NewRows(base)) {
		want[s.ShopName] = s
	}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		perm := make([]core.RawRow, len(base))
		copy(perm, base)
		rng.Shuffle(len(perm), func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })

		for _, s := range BuildShopSummaries(core.NewRows(perm)) {
			w := want[s.ShopName]
			if !s.RunningBalance.Equal(w.RunningBalance) ||
				!s.TotalDeposit.Equal(w.TotalDeposit) ||
				!s.TotalWithdrawal.Equal(w.TotalWithdrawal) ||
				!s.Settlement.Equal(w.Settlement) ||
				!s.SecurityDeposit.Equal(w.SecurityDeposit) {
				t.Fatalf("permutation %d changed totals for %s: %+v vs %+v", i, s.ShopName, s, w)
			}
		}
	}
}

func TestSumSummariesAndLeaders(t *testing.T) {
	list := BuildShopSummaries(core.NewRows(balanceRows()))
	total := SumSummaries(list)
	if total.ShopName != "TOTAL" {
		t.Fatalf("total label = %q", total.ShopName)
	}
	if !total.RunningBalance.Equal(d("1339")) {
		t.Fatalf("sum of running balances = %s", total.RunningBalance)
	}

	leaders := TeamLeaders(list)
	if len(leaders) != 2 || leaders[0] != "ANN" || leaders[1] != "JO" {
		t.Fatalf("leaders = %v", leaders)
	}
}

func TestGroupTotals(t *testing.T) {
	txs := []core.Transaction{
		{Wallet: "Maya", Amount: d("10"), Date: "2024-01-02"},
		{Wallet: "GCash", Amount: d("5"), Date: "2024-01-01"},
		{Wallet: "Maya", Amount: d("2.5"), Date: "2024-01-01"},
	}
	w := WalletTotals(txs)
	if len(w) != 2 || w[0].Key != "Maya" || !w[0].Amount.Equal(d("12.5")) || w[0].Count != 2 {
		t.Fatalf("wallet totals = %+v", w)
	}
	dt := DateTotals(txs)
	if dt[0].Key != "2024-01-01" || !dt[0].Amount.Equal(d("7.5")) {
		t.Fatalf("date totals = %+v", dt)
	}
	wallets := DistinctValues(txs, func(t core.Transaction) string { return t.Wallet })
	if len(wallets) != 2 || wallets[0] != "GCash" {
		t.Fatalf("wallets = %v", wallets)
	}
}
