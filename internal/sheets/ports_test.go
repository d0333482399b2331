package sheets

import "testing"

func TestParseSheetURL(t *testing.T) {
	cases := []struct {
		in   string
		want Ref
	}{
		{"https://opensheet.elk.sh/abc123/WD", Ref{"abc123", "WD"}},
		{"https://opensheet.elk.sh/abc123/STLM%2FTOPUP", Ref{"abc123", "STLM/TOPUP"}},
		{"https://opensheet.elk.sh/abc123/SHOPS%20BALANCE", Ref{"abc123", "SHOPS BALANCE"}},
		{" https://docs.google.com/spreadsheets/d/xyz/edit#gid=0 ", Ref{SpreadsheetID: "xyz"}},
	}
	for _, tc := range cases {
		got, err := ParseSheetURL(tc.in)
		if err != nil {
			t.Fatalf("ParseSheetURL(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseSheetURL(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}

	for _, bad := range []string{"", "not a url", "https://opensheet.elk.sh/onlyid", "https://docs.google.com/spreadsheets/"} {
		if _, err := ParseSheetURL(bad); err == nil {
			t.Fatalf("ParseSheetURL(%q) should fail", bad)
		}
	}
}
