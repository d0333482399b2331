package http

import (
	"net/http"

	"shopledger/internal/core"
	"shopledger/internal/export"
	"shopledger/internal/report"
)

// ledgerShop returns the requested shop, writing a 400 when there is none.
// A ledger is always about one shop, so ALL is rejected too.
func ledgerShop(w http.ResponseWriter, r *http.Request) (string, bool) {
	shop := sanitizeInput(r.URL.Query().Get(paramShopName))
	if core.IsAll(shop) {
		writeError(w, http.StatusBadRequest, "shopName is required")
		return "", false
	}
	return shop, true
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	shop, ok := ledgerShop(w, r)
	if !ok {
		return
	}
	ledger, err := s.data.Ledger(r.Context(), shop)
	if err != nil {
		writeLoadError(w, r, err)
		return
	}
	if ledger.Rows == nil {
		ledger.Rows = []report.LedgerRow{}
	}
	writeJSON(w, http.StatusOK, ledger)
}

func (s *Server) handleLedgerExport(w http.ResponseWriter, r *http.Request) {
	f, ok := exportFormat(w, r)
	if !ok {
		return
	}
	shop, ok := ledgerShop(w, r)
	if !ok {
		return
	}
	ledger, err := s.data.Ledger(r.Context(), shop)
	if err != nil {
		writeLoadError(w, r, err)
		return
	}
	writeAttachment(w, r, f, export.Filename("Ledger", ledger.Shop, f), export.LedgerTable(ledger))
}
