package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"shopledger/internal/core"
)

// KeyTotal is an amount aggregated under one key.
type KeyTotal struct {
	Key    string          `json:"key"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// GroupTotals sums amount(item) per key(item), preserving the order in which
// keys first appear.
func GroupTotals[T any](items []T, key func(T) string, amount func(T) decimal.Decimal) []KeyTotal {
	index := make(map[string]int)
	var out []KeyTotal
	for _, it := range items {
		k := key(it)
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, KeyTotal{Key: k})
		}
		out[i].Count++
		out[i].Amount = out[i].Amount.Add(amount(it))
	}
	return out
}

func txAmount(t core.Transaction) decimal.Decimal { return t.Amount }

// WalletTotals sums transaction amounts per wallet.
func WalletTotals(txs []core.Transaction) []KeyTotal {
	return GroupTotals(txs, func(t core.Transaction) string { return t.Wallet }, txAmount)
}

// DateTotals sums transaction amounts per normalized date, ordered by date.
func DateTotals(txs []core.Transaction) []KeyTotal {
	out := GroupTotals(txs, func(t core.Transaction) string { return t.Date }, txAmount)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// DistinctValues returns the sorted distinct values of field over txs.
func DistinctValues(txs []core.Transaction, field func(core.Transaction) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range txs {
		v := field(t)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
