package stakefolio

import (
	"fmt"
	"iter"
)

// StateBuckets holds the total balance of validators per lifecycle state.
// Buckets are exclusive and exhaustive: their total is the total balance of
// the validators they were built from.
type StateBuckets struct {
	Deposited         Gwei `json:"deposited"`
	PendingActivation Gwei `json:"pendingActivation"`
	Active            Gwei `json:"active"`
	Exiting           Gwei `json:"exiting"`
	Withdrawable      Gwei `json:"withdrawable"`
}

// bucket returns the address of the bucket for state s, or nil.
func (b *StateBuckets) bucket(s StakeState) *Gwei {
	switch s {
	case Deposited:
		return &b.Deposited
	case PendingActivation:
		return &b.PendingActivation
	case Active:
		return &b.Active
	case Exiting:
		return &b.Exiting
	case Withdrawable:
		return &b.Withdrawable
	}
	return nil
}

// Get returns the balance held in state s. Unknown states hold nothing.
func (b StateBuckets) Get(s StakeState) Gwei {
	if p := b.bucket(s); p != nil {
		return *p
	}
	return Gwei{}
}

// All iterates over the buckets in lifecycle order.
func (b StateBuckets) All() iter.Seq2[StakeState, Gwei] {
	return func(yield func(StakeState, Gwei) bool) {
		for _, s := range stakeStates {
			if !yield(s, b.Get(s)) {
				return
			}
		}
	}
}

// Total returns the sum of all buckets.
func (b StateBuckets) Total() Gwei {
	var total Gwei
	for _, v := range b.All() {
		total = total.Add(v)
	}
	return total
}

// AggregateByStateBucket partitions the validators' balances by lifecycle state.
//
// A validator whose state has no bucket is an error: its balance would
// otherwise vanish from the totals.
func AggregateByStateBucket(validators []ValidatorRecord) (StateBuckets, error) {
	var b StateBuckets
	for _, v := range validators {
		p := b.bucket(v.State)
		if p == nil {
			return StateBuckets{}, fmt.Errorf("validator %q: %w %q", v.ID, ErrUnknownStakeState, v.State)
		}
		*p = p.Add(v.Balance)
	}
	return b, nil
}
