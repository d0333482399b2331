package core

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Placeholder is shown for transaction fields missing in the sheet.
const Placeholder = "-"

type (
	// RawRow is one sheet row as fetched: header text to cell text. It is
	// never modified after loading.
	RawRow map[string]string

	// Row is a read-only lookup view over a RawRow keyed by NormalizeKey.
	Row struct {
		cells map[string]string
	}

	// Transaction is a normalized WD/DP/B2B row.
	Transaction struct {
		ToWallet   string          `json:"toWallet"`
		Wallet     string          `json:"wallet"`
		Reference  string          `json:"reference"`
		Amount     decimal.Decimal `json:"amount"`
		Date       string          `json:"date"`
		Type       string          `json:"type"`
		ShopName   string          `json:"shopName"`
		Leader     string          `json:"leader"`
		FromWallet string          `json:"fromWallet"`
		Source     string          `json:"source"`
	}
)

// NewRow indexes raw by normalized header. Values are trimmed. When two
// headers normalize to the same key, headers already in normalized form are
// tried first, then the rest in lexical order, and the first non-empty value
// wins.
func NewRow(raw RawRow) Row {
	headers := make([]string, 0, len(raw))
	for k := range raw {
		headers = append(headers, k)
	}
	sort.Slice(headers, func(i, j int) bool {
		ei, ej := NormalizeKey(headers[i]) == headers[i], NormalizeKey(headers[j]) == headers[j]
		if ei != ej {
			return ei
		}
		return headers[i] < headers[j]
	})

	cells := make(map[string]string, len(raw))
	for _, k := range headers {
		key := NormalizeKey(k)
		v := strings.TrimSpace(raw[k])
		if prev, ok := cells[key]; ok && prev != "" {
			continue
		}
		cells[key] = v
	}
	return Row{cells: cells}
}

// NewRows indexes every raw row.
func NewRows(raw []RawRow) []Row {
	out := make([]Row, len(raw))
	for i, r := range raw {
		out[i] = NewRow(r)
	}
	return out
}

// Get returns the first non-empty value among the given header aliases.
func (r Row) Get(names ...string) string {
	for _, n := range names {
		if v := r.cells[NormalizeKey(n)]; v != "" {
			return v
		}
	}
	return ""
}

// Number is ParseNumber over Get.
func (r Row) Number(names ...string) decimal.Decimal {
	return ParseNumber(r.Get(names...))
}

// Shop returns the canonical shop name of the row, looking at both the
// SHOP and SHOP NAME columns.
func (r Row) Shop() string {
	return NormalizeShopName(r.Get("SHOP", "SHOP NAME"))
}

// NewTransaction normalizes one transaction row. Missing text fields become
// Placeholder; the shop name stays empty so it never matches a real shop.
func NewTransaction(r Row, source string) Transaction {
	return Transaction{
		ToWallet:   orPlaceholder(r.Get("To Wallet Number")),
		Wallet:     orPlaceholder(r.Get("Wallet")),
		Reference:  orPlaceholder(r.Get("Reference")),
		Amount:     r.Number("Amount"),
		Date:       NormalizeDate(r.Get("Date")),
		Type:       orPlaceholder(r.Get("Type")),
		ShopName:   NormalizeShopName(r.Get("Shop Name", "Shop")),
		Leader:     orPlaceholder(r.Get("Leader", "Team Leader")),
		FromWallet: orPlaceholder(r.Get("From Wallet Number")),
		Source:     source,
	}
}

func orPlaceholder(v string) string {
	if v == "" {
		return Placeholder
	}
	return v
}
