package stakefolio

import (
	"cmp"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Allocation is the share of the portfolio held through one group of
// validators: a custodian or an operator.
type Allocation struct {
	ID             string  `json:"id"`
	Value          Gwei    `json:"value"`
	Percentage     float64 `json:"percentage"` // share of the total value, in [0, 1]
	TrailingAPY    Rate    `json:"trailingApy"`
	ValidatorCount int     `json:"validatorCount"`
}

// CustodianAllocation is the Allocation of a custodian, its ID is the custodian ID.
type CustodianAllocation = Allocation

// RollupByCustodian aggregates validators per custodian.
//
// Each allocation sums its validators' balances, counts them, computes its
// share of the grand total, and its trailing APY from the reward events of
// its own validators only.
//
// Allocations are sorted by decreasing value, then by ID.
func RollupByCustodian(validators []ValidatorRecord, rewards []RewardEvent, window Window) ([]CustodianAllocation, error) {
	return rollup(validators, rewards, window, func(v ValidatorRecord) string { return v.CustodianID })
}

// RollupByOperator aggregates validators per node operator, like RollupByCustodian.
func RollupByOperator(validators []ValidatorRecord, rewards []RewardEvent, window Window) ([]Allocation, error) {
	return rollup(validators, rewards, window, func(v ValidatorRecord) string { return v.OperatorID })
}

func rollup(validators []ValidatorRecord, rewards []RewardEvent, window Window, key func(ValidatorRecord) string) ([]Allocation, error) {
	groups := make(map[string][]ValidatorRecord)
	groupOf := make(map[string]string, len(validators)) // validator ID -> group
	for _, v := range validators {
		k := key(v)
		groups[k] = append(groups[k], v)
		groupOf[v.ID] = k
	}
	events := make(map[string][]RewardEvent, len(groups))
	for _, e := range rewards {
		if k, ok := groupOf[e.ValidatorID]; ok {
			events[k] = append(events[k], e)
		}
	}

	total := SumBalances(validators)
	allocations := make([]Allocation, 0, len(groups))
	for k, members := range groups {
		value := SumBalances(members)
		apy, err := TrailingAPY(events[k], value, window)
		if err != nil {
			return nil, err
		}
		allocations = append(allocations, Allocation{
			ID:             k,
			Value:          value,
			Percentage:     value.Ratio(total),
			TrailingAPY:    apy,
			ValidatorCount: len(members),
		})
	}
	sortAllocations(allocations)
	return allocations, nil
}

// sortAllocations orders by decreasing value then increasing ID, so that the
// result never depends on map iteration order.
func sortAllocations(allocations []Allocation) {
	slices.SortFunc(allocations, func(a, b Allocation) int {
		return cmp.Or(b.Value.Cmp(a.Value), strings.Compare(a.ID, b.ID))
	})
}

// Blend rolls allocations up to the portfolio level: total value, total
// validator count and the value-weighted yield
//
//	blended = sum(value * apy) / sum(value)
//
// which is 0 when the total value is 0.
func Blend(allocations []Allocation) (total Gwei, count int, blended Rate) {
	var sum decimal.Decimal // exact sum of value*apy
	for _, a := range allocations {
		total = total.Add(a.Value)
		count += a.ValidatorCount
		sum = sum.Add(a.Value.weighted(a.TrailingAPY))
	}
	if total.IsZero() {
		return total, count, 0
	}
	return total, count, Rate(sum.DivRound(total.value, 18).InexactFloat64())
}
