package stakefolio

import (
	"encoding/json"
	"errors"
	"math/big"
	"testing"
)

func TestGwei_String(t *testing.T) {
	tests := []struct {
		in   Gwei
		want string
	}{
		{Gwei{}, "0.000000000 ETH"},
		{E(32), "32.000000000 ETH"},
		{G(1), "0.000000001 ETH"},
		{G(-1_500_000_000), "-1.500000000 ETH"},
		{E(12_345), "12,345.000000000 ETH"},
	}
	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("%s.String() = %q, want %q", tt.in.Decimal(), got, tt.want)
		}
	}
}

func TestGwei_StringBeyondInt64(t *testing.T) {
	b, _ := new(big.Int).SetString("10000000000000000000", 10) // 10 billion ETH
	if got, want := GweiFromBig(b).String(), "10000000000.000000000 ETH"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestGwei_SignedString(t *testing.T) {
	if got := (Gwei{}).SignedString(); got != "-" {
		t.Errorf("zero SignedString() = %q, want %q", got, "-")
	}
	if got, want := E(1).SignedString(), "+1.000000000 ETH"; got != want {
		t.Errorf("SignedString() = %q, want %q", got, want)
	}
	if got, want := E(-1).SignedString(), "-1.000000000 ETH"; got != want {
		t.Errorf("SignedString() = %q, want %q", got, want)
	}
}

func TestParseETH(t *testing.T) {
	got, err := ParseETH("32.05")
	if err != nil {
		t.Fatalf("ParseETH() unexpected error: %v", err)
	}
	if want := G(32_050_000_000); !got.Equal(want) {
		t.Errorf("ParseETH(32.05) = %s, want %s", got, want)
	}

	if _, err := ParseETH("0.0000000001"); !errors.Is(err, ErrNonIntegerGwei) {
		t.Errorf("ParseETH(0.0000000001) error = %v, want %v", err, ErrNonIntegerGwei)
	}
	if _, err := ParseETH("lots"); err == nil {
		t.Error("ParseETH(lots) expected an error")
	}
}

func TestParseGwei(t *testing.T) {
	if got := MustParseGwei("32000000000"); !got.Equal(E(32)) {
		t.Errorf("MustParseGwei() = %s, want %s", got, E(32))
	}
	if _, err := ParseGwei("1.5"); !errors.Is(err, ErrNonIntegerGwei) {
		t.Errorf("ParseGwei(1.5) error = %v, want %v", err, ErrNonIntegerGwei)
	}
}

func TestGwei_Arithmetic(t *testing.T) {
	if got := SumGwei(E(1), G(5), E(-1)); !got.Equal(G(5)) {
		t.Errorf("SumGwei() = %s, want %s", got, G(5))
	}
	if got := G(5).Div(2); !got.Equal(G(3)) {
		t.Errorf("5.Div(2) = %s, want 3 gwei", got)
	}
	if got := G(-5).Div(2); !got.Equal(G(-3)) {
		t.Errorf("-5.Div(2) = %s, want -3 gwei", got)
	}
	if got := G(7).Mul(3); !got.Equal(G(21)) {
		t.Errorf("7.Mul(3) = %s, want 21 gwei", got)
	}
	if got := E(1).Ratio(Gwei{}); got != 0 {
		t.Errorf("Ratio(0) = %v, want 0", got)
	}
	if got := G(1).Ratio(G(4)); got != 0.25 {
		t.Errorf("Ratio() = %v, want 0.25", got)
	}
	if got := E(-2).Abs(); !got.Equal(E(2)) {
		t.Errorf("Abs() = %s, want %s", got, E(2))
	}
}

func TestGwei_JSON(t *testing.T) {
	b, err := json.Marshal(E(32))
	if err != nil {
		t.Fatalf("Marshal() unexpected error: %v", err)
	}
	if string(b) != "32000000000" {
		t.Errorf("Marshal() = %s, want 32000000000", b)
	}

	var g Gwei
	if err := json.Unmarshal([]byte(`"50000000"`), &g); err != nil {
		t.Fatalf("Unmarshal(string) unexpected error: %v", err)
	}
	if !g.Equal(E(0.05)) {
		t.Errorf("Unmarshal(string) = %s, want %s", g, E(0.05))
	}
	if err := json.Unmarshal([]byte(`0.5`), &g); !errors.Is(err, ErrNonIntegerGwei) {
		t.Errorf("Unmarshal(0.5) error = %v, want %v", err, ErrNonIntegerGwei)
	}
}

func TestRate_String(t *testing.T) {
	if got := Rate(0.0415).String(); got != "4.15%" {
		t.Errorf("String() = %q, want 4.15%%", got)
	}
	if got := Rate(-0.01).SignedString(); got != "-1.00%" {
		t.Errorf("SignedString() = %q, want -1.00%%", got)
	}
	if got := Rate(0).SignedString(); got != "-" {
		t.Errorf("SignedString() = %q, want -", got)
	}
	if !Rate(0.1 + 0.2).Equal(0.3) {
		t.Error("Equal() is not tolerant to float rounding")
	}
}
