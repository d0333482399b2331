package report

import (
	"strings"

	"shopledger/internal/core"
)

// Filter is the set of active dashboard filters. Any field that is empty or
// "ALL" matches everything.
type Filter struct {
	ShopName string `json:"shopName,omitempty"`
	Wallet   string `json:"wallet,omitempty"`
	Type     string `json:"type,omitempty"`
	Leader   string `json:"leader,omitempty"`
	Date     string `json:"date,omitempty"`
	Search   string `json:"search,omitempty"`
}

// matcher is a Filter with its values canonicalized once.
type matcher struct {
	shop, wallet, typ, leader, date, search string
	anyShop, anyWallet, anyType             bool
	anyLeader, anyDate, anySearch           bool
}

func (f Filter) compile() matcher {
	m := matcher{
		anyShop:   core.IsAll(f.ShopName),
		anyWallet: core.IsAll(f.Wallet),
		anyType:   core.IsAll(f.Type),
		anyLeader: core.IsAll(f.Leader),
		anyDate:   core.IsAll(f.Date),
		anySearch: strings.TrimSpace(f.Search) == "",
	}
	m.shop = core.NormalizeShopName(f.ShopName)
	m.wallet = strings.TrimSpace(f.Wallet)
	m.typ = strings.TrimSpace(f.Type)
	m.leader = strings.ToUpper(strings.TrimSpace(f.Leader))
	m.search = strings.ToUpper(strings.TrimSpace(f.Search))
	if !m.anyDate {
		m.date = core.NormalizeDate(f.Date)
		if m.date == "" {
			// An unparseable date filter matches nothing rather than failing.
			m.date = "\x00invalid"
		}
	}
	return m
}

func (m matcher) transaction(t core.Transaction) bool {
	return (m.anyShop || t.ShopName == m.shop) &&
		(m.anyWallet || t.Wallet == m.wallet) &&
		(m.anyType || t.Type == m.typ) &&
		(m.anyLeader || strings.ToUpper(t.Leader) == m.leader) &&
		(m.anyDate || t.Date == m.date) &&
		(m.anySearch || strings.Contains(strings.ToUpper(t.ShopName), m.search))
}

func (m matcher) summary(s ShopSummary) bool {
	return (m.anyShop || s.ShopName == m.shop) &&
		(m.anyLeader || strings.ToUpper(s.TeamLeader) == m.leader) &&
		(m.anySearch || strings.Contains(strings.ToUpper(s.ShopName), m.search))
}

// Matches reports whether t satisfies every active filter.
func (f Filter) Matches(t core.Transaction) bool {
	return f.compile().transaction(t)
}

// FilterTransactions returns the transactions satisfying every active filter.
func FilterTransactions(txs []core.Transaction, f Filter) []core.Transaction {
	m := f.compile()
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if m.transaction(t) {
			out = append(out, t)
		}
	}
	return out
}

// FilterSummaries applies the shop, leader and search filters to shop
// summaries. Wallet, type and date do not apply to summaries.
func FilterSummaries(list []ShopSummary, f Filter) []ShopSummary {
	m := f.compile()
	out := make([]ShopSummary, 0, len(list))
	for _, s := range list {
		if m.summary(s) {
			out = append(out, s)
		}
	}
	return out
}
