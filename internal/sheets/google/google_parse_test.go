package google

import (
	"testing"
)

// Matrix shaped like the STLM/TOPUP sheet as the Values API returns it.
func TestRowsFromValues(t *testing.T) {
	values := [][]interface{}{
		{"DATE", "SHOP", "AMOUNT", "MODE", ""},
		{"2024-01-01", "Acme", "1,000", "IN", "stray"},
		{"2024-01-02", "Beta", 250.5},
		{"", "", "", ""},
		{},
		{"2024-01-03", nil, "5", "OUT"},
	}
	rows := rowsFromValues(values)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d: %v", len(rows), rows)
	}
	if rows[0]["SHOP"] != "Acme" || rows[0]["AMOUNT"] != "1,000" {
		t.Fatalf("row 0 = %v", rows[0])
	}
	if _, ok := rows[0][""]; ok {
		t.Fatalf("blank header must be skipped: %v", rows[0])
	}
	if rows[1]["AMOUNT"] != "250.5" || rows[1]["MODE"] != "" {
		t.Fatalf("short row = %v", rows[1])
	}
	if rows[2]["SHOP"] != "" || rows[2]["MODE"] != "OUT" {
		t.Fatalf("nil cell = %v", rows[2])
	}
}

func TestRowsFromValues_Empty(t *testing.T) {
	if rows := rowsFromValues(nil); rows != nil {
		t.Fatalf("expected nil, got %v", rows)
	}
	if rows := rowsFromValues([][]interface{}{{"A", "B"}}); len(rows) != 0 {
		t.Fatalf("header only should yield no rows, got %v", rows)
	}
}

func TestQuoteSheet(t *testing.T) {
	if got := quoteSheet("SHOPS BALANCE"); got != "'SHOPS BALANCE'" {
		t.Fatalf("got %q", got)
	}
	if got := quoteSheet("Bob's"); got != "'Bob''s'" {
		t.Fatalf("got %q", got)
	}
}
