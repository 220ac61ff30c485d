package stakefolio

import (
	"fmt"
	"math/big"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// ETH is the currency code used to display Gwei amounts.
const ETH = "ETH"

// GweiPerETH is the number of gwei in one ETH.
const GweiPerETH = 1_000_000_000

const gweiExp = 9

func init() {
	// go-money knows nothing about ether, register it with gwei as the minor unit.
	money.AddCurrency(ETH, "ETH", "1 $", ".", ",", gweiExp)
}

// Gwei is an exact, arbitrary-precision amount of gwei.
// The zero value is 0 gwei.
type Gwei struct {
	value decimal.Decimal // always an integer
}

// G returns an amount of gwei.
func G[T int | int32 | int64 | uint | uint32 | uint64](v T) Gwei {
	switch x := any(v).(type) {
	case int:
		return Gwei{value: decimal.NewFromInt(int64(x))}
	case int32:
		return Gwei{value: decimal.NewFromInt32(x)}
	case int64:
		return Gwei{value: decimal.NewFromInt(x)}
	case uint:
		return Gwei{value: decimal.NewFromUint64(uint64(x))}
	case uint32:
		return Gwei{value: decimal.NewFromUint64(uint64(x))}
	case uint64:
		return Gwei{value: decimal.NewFromUint64(x)}
	default:
		panic("unsupported type")
	}
}

// E returns the amount of gwei in 'eth' ether, rounded to the gwei.
func E[T float64 | int | int64 | decimal.Decimal](eth T) Gwei {
	var d decimal.Decimal
	switch x := any(eth).(type) {
	case float64:
		d = decimal.NewFromFloat(x)
	case int:
		d = decimal.NewFromInt(int64(x))
	case int64:
		d = decimal.NewFromInt(x)
	case decimal.Decimal:
		d = x
	default:
		panic("unsupported type")
	}
	return Gwei{value: d.Shift(gweiExp).Round(0)}
}

// GweiFromBig returns the amount of gwei held in b.
func GweiFromBig(b *big.Int) Gwei { return Gwei{value: decimal.NewFromBigInt(b, 0)} }

// ParseGwei parses an integer amount of gwei like "32000000000".
func ParseGwei(s string) (Gwei, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Gwei{}, fmt.Errorf("invalid gwei amount %q: %w", s, err)
	}
	if !d.IsInteger() {
		return Gwei{}, fmt.Errorf("%w: %q", ErrNonIntegerGwei, s)
	}
	return Gwei{value: d}, nil
}

// MustParseGwei is like ParseGwei but panics on error.
func MustParseGwei(s string) Gwei {
	g, err := ParseGwei(s)
	if err != nil {
		panic(err.Error())
	}
	return g
}

// ParseETH parses an amount of ether like "32.05" into gwei.
// More than 9 decimals is an error.
func ParseETH(s string) (Gwei, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Gwei{}, fmt.Errorf("invalid ether amount %q: %w", s, err)
	}
	d = d.Shift(gweiExp)
	if !d.IsInteger() {
		return Gwei{}, fmt.Errorf("%w: %q ETH", ErrNonIntegerGwei, s)
	}
	return Gwei{value: d}, nil
}

func (g Gwei) Equal(h Gwei) bool              { return g.value.Equal(h.value) }
func (g Gwei) Cmp(h Gwei) int                 { return g.value.Cmp(h.value) }
func (g Gwei) IsZero() bool                   { return g.value.IsZero() }
func (g Gwei) IsPositive() bool               { return g.value.IsPositive() }
func (g Gwei) IsNegative() bool               { return g.value.IsNegative() }
func (g Gwei) Sign() int                      { return g.value.Sign() }
func (g Gwei) LessThan(h Gwei) bool           { return g.value.LessThan(h.value) }
func (g Gwei) GreaterThan(h Gwei) bool        { return g.value.GreaterThan(h.value) }
func (g Gwei) LessThanOrEqual(h Gwei) bool    { return g.value.LessThanOrEqual(h.value) }
func (g Gwei) GreaterThanOrEqual(h Gwei) bool { return g.value.GreaterThanOrEqual(h.value) }
func (g Gwei) Add(h Gwei) Gwei                { return Gwei{value: g.value.Add(h.value)} }
func (g Gwei) Sub(h Gwei) Gwei                { return Gwei{value: g.value.Sub(h.value)} }
func (g Gwei) Neg() Gwei                      { return Gwei{value: g.value.Neg()} }
func (g Gwei) Abs() Gwei                      { return Gwei{value: g.value.Abs()} }
func (g Gwei) Mul(n int64) Gwei               { return Gwei{value: g.value.Mul(decimal.NewFromInt(n))} }

// Div returns g/n rounded to the nearest gwei, half away from zero.
func (g Gwei) Div(n int64) Gwei { return Gwei{value: g.value.DivRound(decimal.NewFromInt(n), 0)} }

// BigInt returns the amount as a big integer.
func (g Gwei) BigInt() *big.Int { return g.value.BigInt() }

// Decimal returns the amount in gwei as a decimal.
func (g Gwei) Decimal() decimal.Decimal { return g.value }

// ETH returns the amount in ether, exactly.
func (g Gwei) ETH() decimal.Decimal { return g.value.Shift(-gweiExp) }

// Ratio returns g/d as a float. It is the only place where amounts become
// inexact. A zero denominator returns 0.
func (g Gwei) Ratio(d Gwei) float64 {
	if d.IsZero() {
		return 0
	}
	return g.value.DivRound(d.value, 18).InexactFloat64()
}

// weighted returns g*r, exact up to the float representation of r.
func (g Gwei) weighted(r Rate) decimal.Decimal {
	return g.value.Mul(decimal.NewFromFloat(float64(r)))
}

// SumGwei returns the sum of all amounts.
func SumGwei(amounts ...Gwei) Gwei {
	var total Gwei
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// String formats the amount in ether with all 9 decimals, e.g. "32.000000000 ETH".
func (g Gwei) String() string {
	b := g.value.BigInt()
	if !b.IsInt64() {
		return g.ETH().StringFixed(gweiExp) + " " + ETH
	}
	return money.GetCurrency(ETH).Formatter().Format(b.Int64())
}

// SignedString returns the string representation with an explicit sign.
// 0 is represented as "-".
func (g Gwei) SignedString() string {
	if g.IsZero() {
		return "-"
	}
	if g.IsPositive() {
		return "+" + g.String()
	}
	return g.String()
}

// MarshalJSON writes the amount as a JSON integer number of gwei.
func (g Gwei) MarshalJSON() ([]byte, error) {
	return []byte(g.value.String()), nil
}

// UnmarshalJSON reads a JSON number or string holding an integer number of gwei.
func (g *Gwei) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("invalid gwei amount %s: %w", b, err)
	}
	if !d.IsInteger() {
		return fmt.Errorf("%w: %s", ErrNonIntegerGwei, b)
	}
	g.value = d
	return nil
}
