package core

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in       string
		negative bool
		want     string
		ok       bool
	}{
		{"12.34", false, "12.34", true},
		{"  7 ", false, "7", true},
		{"₱1,500.5", false, "1500.5", true},
		{"PHP 2,000", false, "2000", true},
		{"1 000 000.25", false, "1000000.25", true},
		{"+3", false, "3", true},
		{"-3", false, "", false},
		{"-3.5", true, "-3.5", true},
		{"", false, "", false},
		{"abc", false, "", false},
		{"1.2.3", false, "", false},
		{"5.", false, "", false},
		{"12e3", false, "", false},
		{"-1,250.5", true, "-1250.5", true},
		{"12,345,678", false, "12345678", true},
		{"1,2,3", false, "", false},
		{"12 34", false, "", false},
		{"1234,567", false, "", false},
		{",500", false, "", false},
		{"1,,000", false, "", false},
		{"1,000.000,5", false, "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in, tc.negative)
		if tc.ok {
			if err != nil {
				t.Fatalf("%q: unexpected error %v", tc.in, err)
			}
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("%q: got %s want %s", tc.in, got, tc.want)
			}
			continue
		}
		if err == nil {
			t.Fatalf("%q: expected error, got %s", tc.in, got)
		}
	}
}

func TestCoerce(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, "0"},
		{"", "0"},
		{"abc", "0"},
		{"1,250.75", "1250.75"},
		{"-10", "-10"},
		{float64(42.5), "42.5"},
		{math.NaN(), "0"},
		{math.Inf(1), "0"},
		{int(7), "7"},
		{json.Number("19.99"), "19.99"},
		{decimal.NewFromInt(3), "3"},
		{true, "0"},
	}
	for i, tc := range cases {
		got := Coerce(tc.in)
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("case %d (%v): got %s want %s", i, tc.in, got, tc.want)
		}
	}
}
