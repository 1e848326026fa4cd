package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"15", "15", true},
		{"15.5", "15.5", true},
		{"12,50", "12.5", true},
		{"1,250", "1250", true},
		{"1,250,000", "1250000", true},
		{"١٥", "15", true},
		{"١٥٫٥", "15.5", true},
		{"۲۰", "20", true},
		{"SAR 40", "40", true},
		{"40 ريال", "40", true},
		{" 0 ", "0", true},
		{"-1", "", false},
		{"+1", "", false},
		{"abc", "", false},
		{"1e5", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			want := decimal.RequireFromString(tc.out)
			if err != nil || !got.Equal(want) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, want, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error, got %s", tc.in, got)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := map[string]string{
		"15":     "15",
		"15.00":  "15",
		"12.5":   "12.50",
		"0.333":  "0.33",
		"1250.1": "1250.10",
	}
	for in, want := range cases {
		if got := FormatAmount(decimal.RequireFromString(in)); got != want {
			t.Fatalf("FormatAmount(%s)=%s want %s", in, got, want)
		}
	}
}
