package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"shopledger/internal/core"
)

// Sheet names of the upstream workbooks.
const (
	SheetShopsBalance    = "SHOPS BALANCE"
	SheetTotalDeposit    = "TOTAL DEPOSIT"
	SheetTotalWithdrawal = "TOTAL WITHDRAWAL"
	SheetSettlement      = "STLM/TOPUP"
	SheetCommission      = "COMM"

	SheetWithdrawals = "WD"
	SheetDeposits    = "DP"
	SheetB2B         = "B2B"

	SheetBackupIndex = "Backup_Index"
)

// Ref addresses one sheet of one spreadsheet.
type Ref struct {
	SpreadsheetID string `json:"spreadsheetId"`
	Sheet         string `json:"sheet"`
}

func (r Ref) String() string { return r.SpreadsheetID + "/" + r.Sheet }

// Ports for outbound adapters.
type (
	// RowReader returns the rows of a sheet as header -> cell maps.
	RowReader interface {
		ReadRows(ctx context.Context, ref Ref) ([]core.RawRow, error)
	}

	// URLReader reads a sheet addressed by a full URL, as listed in the
	// backup index.
	URLReader interface {
		ReadURL(ctx context.Context, rawURL string) ([]core.RawRow, error)
	}

	// Source is what the loader needs from a backend.
	Source interface {
		RowReader
		URLReader
	}
)

// ErrNotFound is returned by adapters when a sheet does not exist.
var ErrNotFound = errors.New("sheet not found")

// ParseSheetURL extracts a Ref from an opensheet URL
// (https://host/<spreadsheet>/<sheet>) or a Google Sheets URL
// (https://docs.google.com/spreadsheets/d/<spreadsheet>/...). A Google URL
// names no sheet, so the first sheet is implied by an empty Sheet.
func ParseSheetURL(rawURL string) (Ref, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return Ref{}, fmt.Errorf("parse sheet url: %w", err)
	}
	if u.Host == "" {
		return Ref{}, fmt.Errorf("parse sheet url %q: missing host", rawURL)
	}

	parts := strings.Split(strings.Trim(u.EscapedPath(), "/"), "/")
	for i, p := range parts {
		if v, err := url.PathUnescape(p); err == nil {
			parts[i] = v
		}
	}

	if strings.HasSuffix(u.Host, "docs.google.com") {
		for i := 0; i+1 < len(parts); i++ {
			if parts[i] == "d" && parts[i+1] != "" {
				return Ref{SpreadsheetID: parts[i+1]}, nil
			}
		}
		return Ref{}, fmt.Errorf("parse sheet url %q: no spreadsheet id", rawURL)
	}

	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Ref{}, fmt.Errorf("parse sheet url %q: want /<spreadsheet>/<sheet>", rawURL)
	}
	return Ref{SpreadsheetID: parts[0], Sheet: strings.Join(parts[1:], "/")}, nil
}
