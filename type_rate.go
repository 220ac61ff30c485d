package stakefolio

import (
	"fmt"
	"math"
)

// Rate is an annualized rate of return expressed as a decimal fraction:
// 0.04 is 4%.
type Rate float64

// rateTolerance is the precision used to compare rates.
const rateTolerance = 1e-9

// Equal compares rates with some precision.
func (r Rate) Equal(q Rate) bool {
	return math.Abs(float64(r-q)) < rateTolerance
}

// Percent returns the rate in percent: 0.04 is 4.
func (r Rate) Percent() float64 { return float64(r) * 100 }

func (r Rate) String() string {
	return fmt.Sprintf("%.2f%%", r.Percent())
}

func (r Rate) SignedString() string {
	res := fmt.Sprintf("%+.2f%%", r.Percent())
	if res == "+0.00%" || res == "-0.00%" {
		return "-"
	}
	return res
}
