package report

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"shopledger/internal/core"
)

const (
	// OpeningLabel labels the synthetic bring-forward row of a ledger.
	OpeningLabel = "B/F Balance"
	// TotalLabel labels the totals row of a ledger.
	TotalLabel = "TOTAL"
)

// Settlement modes of the STLM/TOPUP sheet.
const (
	ModeIn              = "IN"
	ModeOut             = "OUT"
	ModeSettlement      = "SETTLEMENT"
	ModeSpecialPayment  = "SPECIAL PAYMENT"
	ModeAdjustment      = "ADJUSTMENT"
	ModeSecurityDeposit = "SECURITY DEPOSIT"
)

var hundred = decimal.NewFromInt(100)

type (
	// ShopProfile is what the SHOPS BALANCE sheet says about one shop.
	ShopProfile struct {
		ShopName        string          `json:"shopName"`
		TeamLeader      string          `json:"teamLeader"`
		BringForward    decimal.Decimal `json:"bringForwardBalance"`
		SecurityDeposit decimal.Decimal `json:"securityDeposit"`
		Found           bool            `json:"found"`
	}

	// CommissionRates are percentages from the COMM sheet.
	CommissionRates struct {
		DP  decimal.Decimal `json:"dpCommRate"`
		WD  decimal.Decimal `json:"wdCommRate"`
		Add decimal.Decimal `json:"addCommRate"`
	}

	// Entry is one deposit, withdrawal or settlement line of a shop.
	Entry struct {
		Date   string
		Amount decimal.Decimal
		Mode   string
	}

	// LedgerSheets are the raw sheets a ledger is computed from.
	LedgerSheets struct {
		Deposits    []core.Row
		Withdrawals []core.Row
		Settlements []core.Row
		Commissions []core.Row
		Balances    []core.Row
	}

	// LedgerInput is everything known about one shop before the fold.
	LedgerInput struct {
		Shop        string
		Profile     ShopProfile
		Rates       CommissionRates
		Deposits    []Entry
		Withdrawals []Entry
		Settlements []Entry
	}

	// DayFlows are the summed flows of one date, before commissions.
	DayFlows struct {
		Date            string
		Deposit         decimal.Decimal
		Withdrawal      decimal.Decimal
		TransferIn      decimal.Decimal
		TransferOut     decimal.Decimal
		Settlement      decimal.Decimal
		SpecialPayment  decimal.Decimal
		Adjustment      decimal.Decimal
		SecurityDeposit decimal.Decimal
	}

	// LedgerRow is one line of a shop ledger.
	LedgerRow struct {
		Label           string          `json:"label"`
		Date            string          `json:"date,omitempty"`
		Opening         bool            `json:"opening,omitempty"`
		Deposit         decimal.Decimal `json:"deposit"`
		Withdrawal      decimal.Decimal `json:"withdrawal"`
		TransferIn      decimal.Decimal `json:"transferIn"`
		TransferOut     decimal.Decimal `json:"transferOut"`
		Settlement      decimal.Decimal `json:"settlement"`
		SpecialPayment  decimal.Decimal `json:"specialPayment"`
		Adjustment      decimal.Decimal `json:"adjustment"`
		SecurityDeposit decimal.Decimal `json:"securityDeposit"`
		DPComm          decimal.Decimal `json:"dpComm"`
		WDComm          decimal.Decimal `json:"wdComm"`
		AddComm         decimal.Decimal `json:"addComm"`
		RunningBalance  decimal.Decimal `json:"runningBalance"`
	}

	// Ledger is the date-ordered running balance of one shop.
	Ledger struct {
		Shop         string          `json:"shop"`
		Profile      ShopProfile     `json:"profile"`
		Rates        CommissionRates `json:"rates"`
		Rows         []LedgerRow     `json:"rows"`
		Totals       LedgerRow       `json:"totals"`
		FinalBalance decimal.Decimal `json:"finalBalance"`
	}
)

// FindShopProfile returns the first SHOPS BALANCE row of shop. A shop that
// is not listed yields a zero profile.
func FindShopProfile(balances []core.Row, shop string) ShopProfile {
	shop = core.NormalizeShopName(shop)
	p := ShopProfile{ShopName: shop, TeamLeader: core.Placeholder}
	for _, r := range balances {
		if r.Shop() != shop {
			continue
		}
		p.Found = true
		p.BringForward = r.Number(colBringForward...)
		p.SecurityDeposit = r.Number(colSecurityDeposit...)
		if l := r.Get(colTeamLeader...); l != "" {
			p.TeamLeader = l
		}
		break
	}
	return p
}

// FindCommissionRates returns the COMM rates of shop, zero when absent.
func FindCommissionRates(comm []core.Row, shop string) CommissionRates {
	shop = core.NormalizeShopName(shop)
	for _, r := range comm {
		if r.Shop() != shop {
			continue
		}
		return CommissionRates{
			DP:  core.ParseRate(r.Get("DP COMM")),
			WD:  core.ParseRate(r.Get("WD COMM")),
			Add: core.ParseRate(r.Get("ADD COMM")),
		}
	}
	return CommissionRates{}
}

func entriesFor(rows []core.Row, shop string) []Entry {
	var out []Entry
	for _, r := range rows {
		if r.Shop() != shop {
			continue
		}
		out = append(out, Entry{
			Date:   r.Get("DATE"),
			Amount: r.Number("AMOUNT"),
			Mode:   core.NormalizeMode(r.Get("MODE")),
		})
	}
	return out
}

// NewLedgerInput resolves the profile, rates and entries of shop from the
// raw ledger sheets. Shop identity is compared in canonical form only.
func NewLedgerInput(sheets LedgerSheets, shop string) LedgerInput {
	shop = core.NormalizeShopName(shop)
	return LedgerInput{
		Shop:        shop,
		Profile:     FindShopProfile(sheets.Balances, shop),
		Rates:       FindCommissionRates(sheets.Commissions, shop),
		Deposits:    entriesFor(sheets.Deposits, shop),
		Withdrawals: entriesFor(sheets.Withdrawals, shop),
		Settlements: entriesFor(sheets.Settlements, shop),
	}
}

type dayKey struct {
	key   string
	valid bool
}

// keyOf groups entries by calendar date. Unparseable dates keep their raw
// text so their amounts are not lost.
func keyOf(raw string) (dayKey, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return dayKey{}, false
	}
	if iso := core.NormalizeDate(raw); iso != "" {
		return dayKey{key: iso, valid: true}, true
	}
	return dayKey{key: raw}, true
}

// CollectDays buckets the entries of in by date and returns them in
// calendar order; dates that do not parse follow, in lexical order.
func CollectDays(in LedgerInput) []DayFlows {
	days := make(map[dayKey]*DayFlows)
	day := func(raw string) *DayFlows {
		k, ok := keyOf(raw)
		if !ok {
			return nil
		}
		d, exists := days[k]
		if !exists {
			d = &DayFlows{Date: k.key}
			days[k] = d
		}
		return d
	}

	for _, e := range in.Deposits {
		if d := day(e.Date); d != nil {
			d.Deposit = d.Deposit.Add(e.Amount)
		}
	}
	for _, e := range in.Withdrawals {
		if d := day(e.Date); d != nil {
			d.Withdrawal = d.Withdrawal.Add(e.Amount)
		}
	}
	for _, e := range in.Settlements {
		d := day(e.Date)
		if d == nil {
			continue
		}
		switch e.Mode {
		case ModeIn:
			d.TransferIn = d.TransferIn.Add(e.Amount)
		case ModeOut:
			d.TransferOut = d.TransferOut.Add(e.Amount)
		case ModeSettlement:
			d.Settlement = d.Settlement.Add(e.Amount)
		case ModeSpecialPayment:
			d.SpecialPayment = d.SpecialPayment.Add(e.Amount)
		case ModeAdjustment:
			d.Adjustment = d.Adjustment.Add(e.Amount)
		case ModeSecurityDeposit:
			d.SecurityDeposit = d.SecurityDeposit.Add(e.Amount)
		}
	}

	keys := make([]dayKey, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].valid != keys[j].valid {
			return keys[i].valid
		}
		// ISO dates order lexically in calendar order.
		return keys[i].key < keys[j].key
	})

	out := make([]DayFlows, len(keys))
	for i, k := range keys {
		out[i] = *days[k]
	}
	return out
}

// RunBalance folds days, in the given order, onto opening. It returns one
// row per day carrying the balance after that day, and a totals row whose
// running balance is the final balance.
func RunBalance(opening decimal.Decimal, days []DayFlows, rates CommissionRates) ([]LedgerRow, LedgerRow) {
	balance := opening
	totals := LedgerRow{Label: TotalLabel}
	rows := make([]LedgerRow, 0, len(days))

	for _, d := range days {
		r := LedgerRow{
			Label:           d.Date,
			Date:            d.Date,
			Deposit:         d.Deposit,
			Withdrawal:      d.Withdrawal,
			TransferIn:      d.TransferIn,
			TransferOut:     d.TransferOut,
			Settlement:      d.Settlement,
			SpecialPayment:  d.SpecialPayment,
			Adjustment:      d.Adjustment,
			SecurityDeposit: d.SecurityDeposit,
			DPComm:          d.Deposit.Mul(rates.DP).Div(hundred),
			WDComm:          d.Withdrawal.Mul(rates.WD).Div(hundred),
			AddComm:         d.Deposit.Mul(rates.Add).Div(hundred),
		}
		balance = balance.
			Add(r.Deposit).Sub(r.Withdrawal).
			Add(r.TransferIn).Sub(r.TransferOut).
			Sub(r.Settlement).Sub(r.SpecialPayment).
			Add(r.Adjustment).Sub(r.SecurityDeposit).
			Sub(r.DPComm).Sub(r.WDComm).Sub(r.AddComm)
		r.RunningBalance = balance
		rows = append(rows, r)
		totals = addFlows(totals, r)
	}
	totals.RunningBalance = balance
	return rows, totals
}

func addFlows(t, r LedgerRow) LedgerRow {
	t.Deposit = t.Deposit.Add(r.Deposit)
	t.Withdrawal = t.Withdrawal.Add(r.Withdrawal)
	t.TransferIn = t.TransferIn.Add(r.TransferIn)
	t.TransferOut = t.TransferOut.Add(r.TransferOut)
	t.Settlement = t.Settlement.Add(r.Settlement)
	t.SpecialPayment = t.SpecialPayment.Add(r.SpecialPayment)
	t.Adjustment = t.Adjustment.Add(r.Adjustment)
	t.SecurityDeposit = t.SecurityDeposit.Add(r.SecurityDeposit)
	t.DPComm = t.DPComm.Add(r.DPComm)
	t.WDComm = t.WDComm.Add(r.WDComm)
	t.AddComm = t.AddComm.Add(r.AddComm)
	return t
}

// BuildLedger computes the running-balance ledger of one shop. A non-zero
// bring-forward balance is shown as an opening row that carries no flows.
func BuildLedger(in LedgerInput) Ledger {
	opening := in.Profile.BringForward
	var rows []LedgerRow
	if !opening.IsZero() {
		rows = append(rows, LedgerRow{
			Label:           OpeningLabel,
			Opening:         true,
			SecurityDeposit: in.Profile.SecurityDeposit,
			RunningBalance:  opening,
		})
	}
	dayRows, totals := RunBalance(opening, CollectDays(in), in.Rates)
	rows = append(rows, dayRows...)

	return Ledger{
		Shop:         in.Shop,
		Profile:      in.Profile,
		Rates:        in.Rates,
		Rows:         rows,
		Totals:       totals,
		FinalBalance: totals.RunningBalance,
	}
}
