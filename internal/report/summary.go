// Package report holds the pure transforms behind every dashboard: shop
// balance aggregation, the per-shop running-balance ledger, grouping,
// filtering and paging. Nothing here performs I/O or keeps state between
// calls; every function builds fresh results from its inputs.
package report

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"shopledger/internal/core"
)

// Column aliases of the SHOPS BALANCE sheet. The sheet has carried typos in
// some headers, so both spellings are read.
var (
	colTeamLeader      = []string{"TEAM LEADER"}
	colSecurityDeposit = []string{"SECURITY DEPOSIT"}
	colBringForward    = []string{"BRING FORWARD BALANCE"}
	colTotalDeposit    = []string{"TOTAL DEPOSIT"}
	colTotalWithdrawal = []string{"TOTAL WITHDRAWAL", "TOTAL WITHDAWAL"}
	colTransferIn      = []string{"INTERNAL TRANSFER IN"}
	colTransferOut     = []string{"INTERNAL TRANSFER OUT", "INTERNAL TRANSAFER OUT"}
	colSettlement      = []string{"SETTLEMENT"}
	colSpecialPayment  = []string{"SPECIAL PAYMENT"}
	colAdjustment      = []string{"ADJUSTMENT"}
	colDPComm          = []string{"DP COMM"}
	colWDComm          = []string{"WD COMM"}
	colAddComm         = []string{"ADD COMM"}
)

// ShopSummary is the balance summary of one shop.
type ShopSummary struct {
	ShopName        string          `json:"shopName"`
	TeamLeader      string          `json:"teamLeader"`
	SecurityDeposit decimal.Decimal `json:"securityDeposit"`
	BringForward    decimal.Decimal `json:"bringForwardBalance"`
	TotalDeposit    decimal.Decimal `json:"totalDeposit"`
	TotalWithdrawal decimal.Decimal `json:"totalWithdrawal"`
	TransferIn      decimal.Decimal `json:"transferIn"`
	TransferOut     decimal.Decimal `json:"transferOut"`
	Settlement      decimal.Decimal `json:"settlement"`
	SpecialPayment  decimal.Decimal `json:"specialPayment"`
	Adjustment      decimal.Decimal `json:"adjustment"`
	DPComm          decimal.Decimal `json:"dpComm"`
	WDComm          decimal.Decimal `json:"wdComm"`
	AddComm         decimal.Decimal `json:"addComm"`
	RunningBalance  decimal.Decimal `json:"runningBalance"`
}

// BalanceOf applies the running-balance sign convention:
//
//	bringForward + deposit - withdrawal + transferIn - transferOut
//	  - settlement - specialPayment + adjustment - dpComm - wdComm - addComm
func (s ShopSummary) BalanceOf() decimal.Decimal {
	return s.BringForward.
		Add(s.TotalDeposit).Sub(s.TotalWithdrawal).
		Add(s.TransferIn).Sub(s.TransferOut).
		Sub(s.Settlement).Sub(s.SpecialPayment).
		Add(s.Adjustment).
		Sub(s.DPComm).Sub(s.WDComm).Sub(s.AddComm)
}

func (s *ShopSummary) add(r core.Row) {
	s.SecurityDeposit = s.SecurityDeposit.Add(r.Number(colSecurityDeposit...))
	s.BringForward = s.BringForward.Add(r.Number(colBringForward...))
	s.TotalDeposit = s.TotalDeposit.Add(r.Number(colTotalDeposit...))
	s.TotalWithdrawal = s.TotalWithdrawal.Add(r.Number(colTotalWithdrawal...))
	s.TransferIn = s.TransferIn.Add(r.Number(colTransferIn...))
	s.TransferOut = s.TransferOut.Add(r.Number(colTransferOut...))
	s.Settlement = s.Settlement.Add(r.Number(colSettlement...))
	s.SpecialPayment = s.SpecialPayment.Add(r.Number(colSpecialPayment...))
	s.Adjustment = s.Adjustment.Add(r.Number(colAdjustment...))
	s.DPComm = s.DPComm.Add(r.Number(colDPComm...))
	s.WDComm = s.WDComm.Add(r.Number(colWDComm...))
	s.AddComm = s.AddComm.Add(r.Number(colAddComm...))
	// Recomputed after every row, never accumulated.
	s.RunningBalance = s.BalanceOf()
}

// BuildShopSummaries folds SHOPS BALANCE rows into one summary per shop, in
// first-seen order. Rows without a shop are skipped.
func BuildShopSummaries(rows []core.Row) []ShopSummary {
	index := make(map[string]int)
	var out []ShopSummary
	for _, r := range rows {
		shop := r.Shop()
		if shop == "" {
			continue
		}
		i, ok := index[shop]
		if !ok {
			i = len(out)
			index[shop] = i
			out = append(out, ShopSummary{ShopName: shop})
		}
		if out[i].TeamLeader == "" {
			out[i].TeamLeader = strings.ToUpper(r.Get(colTeamLeader...))
		}
		out[i].add(r)
	}
	return out
}

// SumSummaries totals every numeric column of list, including the running
// balance, for the dashboard totals cards.
func SumSummaries(list []ShopSummary) ShopSummary {
	t := ShopSummary{ShopName: "TOTAL"}
	for _, s := range list {
		t.SecurityDeposit = t.SecurityDeposit.Add(s.SecurityDeposit)
		t.BringForward = t.BringForward.Add(s.BringForward)
		t.TotalDeposit = t.TotalDeposit.Add(s.TotalDeposit)
		t.TotalWithdrawal = t.TotalWithdrawal.Add(s.TotalWithdrawal)
		t.TransferIn = t.TransferIn.Add(s.TransferIn)
		t.TransferOut = t.TransferOut.Add(s.TransferOut)
		t.Settlement = t.Settlement.Add(s.Settlement)
		t.SpecialPayment = t.SpecialPayment.Add(s.SpecialPayment)
		t.Adjustment = t.Adjustment.Add(s.Adjustment)
		t.DPComm = t.DPComm.Add(s.DPComm)
		t.WDComm = t.WDComm.Add(s.WDComm)
		t.AddComm = t.AddComm.Add(s.AddComm)
		t.RunningBalance = t.RunningBalance.Add(s.RunningBalance)
	}
	return t
}

// TeamLeaders returns the distinct leader names of list, sorted, without
// blanks or spreadsheet error markers.
func TeamLeaders(list []ShopSummary) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, s := range list {
		l := strings.ToUpper(strings.TrimSpace(s.TeamLeader))
		if l == "" || l == "#N/A" || l == "N/A" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
