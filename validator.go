package stakefolio

import "time"

// ValidatorRecord is a snapshot of one validator as known by the ledger.
type ValidatorRecord struct {
	ID               string
	OperatorID       string
	CustodianID      string
	State            StakeState
	Balance          Gwei
	EffectiveBalance Gwei
	// TransitStart is when the stake entered a pre-activation state, zero if unknown.
	TransitStart time.Time
}

// RewardEvent is a reward credited to a validator.
type RewardEvent struct {
	ValidatorID string
	Amount      Gwei
	Timestamp   time.Time
}

// SumBalances returns the sum of the validators' balances.
func SumBalances(validators []ValidatorRecord) Gwei {
	var total Gwei
	for _, v := range validators {
		total = total.Add(v.Balance)
	}
	return total
}

// SumRewards returns the sum of the reward amounts.
func SumRewards(events []RewardEvent) Gwei {
	var total Gwei
	for _, e := range events {
		total = total.Add(e.Amount)
	}
	return total
}
