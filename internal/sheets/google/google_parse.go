package google

import (
	"fmt"
	"strings"

	"shopledger/internal/core"
)

// rowsFromValues converts a values matrix (as returned by the Sheets API)
// into header -> cell rows, the same shape opensheet serves. Blank header
// cells are skipped, short rows leave trailing columns empty and rows with
// no content are dropped.
func rowsFromValues(values [][]interface{}) []core.RawRow {
	if len(values) == 0 {
		return nil
	}
	headers := toStrings(values[0])

	out := make([]core.RawRow, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		cells := toStrings(values[i])
		row := make(core.RawRow, len(headers))
		empty := true
		for col, h := range headers {
			if strings.TrimSpace(h) == "" {
				continue
			}
			v := safeGet(cells, col)
			if strings.TrimSpace(v) != "" {
				empty = false
			}
			row[h] = v
		}
		if empty {
			continue
		}
		out = append(out, row)
	}
	return out
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		if v == nil {
			continue
		}
		out[i] = fmt.Sprint(v)
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
