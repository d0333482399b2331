package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"1,234.50", "1234.5"},
		{"(500)", "-500"},
		{"( 1,000.25 )", "-1000.25"},
		{"", "0"},
		{"   ", "0"},
		{"abc", "0"},
		{"12abc", "0"},
		{"-42", "-42"},
		{"+7.5", "7.5"},
		{" 2 500 ", "2500"},
		{"1.2.3", "0"},
		{"NaN", "0"},
		{"Infinity", "0"},
		{"1e3", "1000"},
		{"1e99999", "0"},
		{"(abc)", "0"},
		{"(-500)", "0"},
		{"(+500)", "0"},
		{"()", "0"},
		{"₱100", "0"},
		{".5", "0.5"},
		{"-", "0"},
	}
	for _, tc := range cases {
		got := ParseNumber(tc.in)
		want := decimal.RequireFromString(tc.out)
		if !got.Equal(want) {
			t.Fatalf("ParseNumber(%q) = %s, want %s", tc.in, got, want)
		}
	}
}

func TestParseNumberIsTotal(t *testing.T) {
	inputs := []string{"(", ")", ",,,", "((1))", "1,,2", "--1", "1e", "e5", "\x00", "١٢٣", "0x10"}
	for _, in := range inputs {
		// Must not panic and must yield a finite value.
		got := ParseNumber(in)
		if got.String() == "" {
			t.Fatalf("ParseNumber(%q) returned empty representation", in)
		}
	}
}

func TestParseRate(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"2", "2"},
		{"2%", "2"},
		{" 1.5 % ", "1.5"},
		{"", "0"},
		{"n/a", "0"},
	}
	for _, tc := range cases {
		got := ParseRate(tc.in)
		if !got.Equal(decimal.RequireFromString(tc.out)) {
			t.Fatalf("ParseRate(%q) = %s, want %s", tc.in, got, tc.out)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(decimal.RequireFromString("1490")); got != "1490.00" {
		t.Fatalf("FormatAmount = %q", got)
	}
	if got := FormatAmount(decimal.RequireFromString("1234.567")); got != "1234.57" {
		t.Fatalf("FormatAmount rounding = %q", got)
	}
}
