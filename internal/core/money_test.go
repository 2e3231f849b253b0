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
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"0.004", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"1.٣", 0, false},
		{"١٢", 0, false},
		{"５", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestParseSignedAmount(t *testing.T) {
	cases := map[string]int64{"-12.5": -1250, "+3": 300, "0": 0, "7,99": 799}
	for in, want := range cases {
		got, err := ParseSignedAmount(in)
		if err != nil || got.Cents != want {
			t.Fatalf("%q expected %d, got %d (err=%v)", in, want, got.Cents, err)
		}
	}
	if _, err := ParseSignedAmount("--1"); err == nil {
		t.Fatalf("expected error for double sign")
	}
	largest, err := ParseSignedAmount("92233720368547758.07")
	if err != nil || largest.Cents != 1<<63-1 {
		t.Fatalf("largest amount: got %d (err=%v)", largest.Cents, err)
	}
	for _, in := range []string{"92233720368547758.08", "92233720368547758.99", "-92233720368547758.99", "92233720368547759"} {
		if got, err := ParseSignedAmount(in); err == nil {
			t.Fatalf("%q expected overflow error, got %d", in, got.Cents)
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{0: "0.00", 5: "0.05", 1234: "12.34", -200: "-2.00", -5: "-0.05"}
	for cents, want := range cases {
		if got := Cents(cents).String(); got != want {
			t.Fatalf("Cents(%d).String() = %q, want %q", cents, got, want)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	var v struct {
		A Money `json:"a"`
		B Money `json:"b"`
		C Money `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a": -200, "b": 12.345, "c": "7.10"}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.A.Cents != -20000 || v.B.Cents != 1235 || v.C.Cents != 710 {
		t.Fatalf("unexpected cents: %+v", v)
	}
	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"a":-200.00,"b":12.35,"c":7.10}` {
		t.Fatalf("unexpected json: %s", out)
	}
	if err := json.Unmarshal([]byte(`{"a": true}`), &v); err == nil {
		t.Fatalf("expected error for boolean amount")
	}
	var tx struct {
		Amount Money `json:"amount"`
	}
	if err := json.Unmarshal([]byte(`{"amount": "-5.٣"}`), &tx); err == nil {
		t.Fatalf("expected error for non-ASCII digits, got %d cents", tx.Amount.Cents)
	}
}
