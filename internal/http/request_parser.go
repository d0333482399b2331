package http

import (
	"net/url"
	"strconv"
	"strings"

	"shopledger/internal/report"
)

// Query parameter names.
const (
	paramShopName   = "shopName"
	paramWallet     = "wallet"
	paramType       = "type"
	paramTeamLeader = "teamLeader"
	paramDate       = "date"
	paramSearch     = "search"
	paramPage       = "page"
	paramPageSize   = "pageSize"
	paramFormat     = "format"
)

// maxPageSize bounds client supplied page sizes.
const maxPageSize = 500

// ParseFilter reads the dashboard filters from query. Values are trimmed
// and control characters dropped; normalization happens in the filter.
func ParseFilter(query url.Values) report.Filter {
	return report.Filter{
		ShopName: sanitizeInput(query.Get(paramShopName)),
		Wallet:   sanitizeInput(query.Get(paramWallet)),
		Type:     sanitizeInput(query.Get(paramType)),
		Leader:   sanitizeInput(query.Get(paramTeamLeader)),
		Date:     sanitizeInput(query.Get(paramDate)),
		Search:   sanitizeInput(query.Get(paramSearch)),
	}
}

// ParseView reads filters and paging. Missing or invalid paging falls back
// to page 1 and defaultSize.
func ParseView(query url.Values, defaultSize int) report.View {
	v := report.View{
		Filter:   ParseFilter(query),
		Page:     parsePositiveInt(query.Get(paramPage), 1),
		PageSize: parsePositiveInt(query.Get(paramPageSize), defaultSize),
	}
	if v.PageSize > maxPageSize {
		v.PageSize = maxPageSize
	}
	return v
}

func parsePositiveInt(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return def
	}
	return n
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
}
