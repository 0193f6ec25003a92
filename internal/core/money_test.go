package core

import (
	"encoding/json"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"150.5", 15050, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"Rs. 1,500.25", 150025, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		0:      "Rs. 0.00",
		5:      "Rs. 0.05",
		15050:  "Rs. 150.50",
		150000: "Rs. 1500.00",
	}
	for cents, want := range cases {
		if got := (Money{Cents: cents}).String(); got != want {
			t.Fatalf("%d: got %q want %q", cents, got, want)
		}
	}
}

func TestMoneyUnmarshalJSON(t *testing.T) {
	var b Budget
	if err := json.Unmarshal([]byte(`{"food":100,"transport":"250.75","total":1e3}`), &b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if b.Food.Cents != 10000 || b.Transport.Cents != 25075 || b.Total.Cents != 100000 {
		t.Fatalf("unexpected budget: %+v", b)
	}
	if b.Entertainment.Cents != 0 {
		t.Fatalf("absent key must decode as zero")
	}
	var m Money
	if err := json.Unmarshal([]byte(`"twelve"`), &m); err == nil {
		t.Fatalf("expected error for non-numeric amount")
	}
}
