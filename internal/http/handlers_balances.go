package http

import (
	"context"
	"net/http"
	"strings"

	"shopledger/internal/core"
	"shopledger/internal/export"
	"shopledger/internal/report"
)

type balancesResponse struct {
	Summaries report.Page[report.ShopSummary] `json:"summaries"`
	Totals    report.ShopSummary              `json:"totals"`
	Leaders   []string                        `json:"leaders"`
	// LeaderLocked is set when the leader came from the link itself, so a
	// client should not offer to change it.
	LeaderLocked bool          `json:"leaderLocked"`
	Filter       report.Filter `json:"filter"`
}

// loadSummaries returns every shop summary and the subset matching f.
func (s *Server) loadSummaries(ctx context.Context, f report.Filter) (all, filtered []report.ShopSummary, err error) {
	rows, err := s.data.ShopBalances(ctx)
	if err != nil {
		return nil, nil, err
	}
	all = report.BuildShopSummaries(rows)
	return all, report.FilterSummaries(all, f), nil
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	view := ParseView(r.URL.Query(), s.pageSize)
	all, filtered, err := s.loadSummaries(r.Context(), view.Filter)
	if err != nil {
		writeLoadError(w, r, err)
		return
	}

	leaders := report.TeamLeaders(all)
	if leaders == nil {
		leaders = []string{}
	}
	writeJSON(w, http.StatusOK, balancesResponse{
		Summaries:    report.Paginate(filtered, view.Page, view.PageSize),
		Totals:       report.SumSummaries(filtered),
		Leaders:      leaders,
		LeaderLocked: !core.IsAll(view.Filter.Leader),
		Filter:       view.Filter,
	})
}

func (s *Server) handleBalancesExport(w http.ResponseWriter, r *http.Request) {
	f, ok := exportFormat(w, r)
	if !ok {
		return
	}
	filter := ParseFilter(r.URL.Query())
	_, filtered, err := s.loadSummaries(r.Context(), filter)
	if err != nil {
		writeLoadError(w, r, err)
		return
	}

	label := ""
	if !core.IsAll(filter.Leader) {
		label = strings.ToUpper(filter.Leader)
	}
	writeAttachment(w, r, f, export.Filename("shops_balance", label, f), export.SummaryTable(filtered))
}
