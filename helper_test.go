package stakefolio

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// V is a helper for tests to create a validator holding eth ether.
func V(id, custodian string, state StakeState, eth float64) ValidatorRecord {
	return ValidatorRecord{
		ID:               id,
		OperatorID:       "op-" + custodian,
		CustodianID:      custodian,
		State:            state,
		Balance:          E(eth),
		EffectiveBalance: E(eth),
	}
}

// R is a helper for tests to create a reward of eth ether.
func R(validator string, eth float64, at time.Time) RewardEvent {
	return RewardEvent{ValidatorID: validator, Amount: E(eth), Timestamp: at}
}

// day returns midnight UTC of a day of 2025.
func day(month time.Month, d int) time.Time {
	return time.Date(2025, month, d, 0, 0, 0, 0, time.UTC)
}

// testNow is the instant every test detector and reconciler lives at.
var testNow = time.Date(2025, time.March, 31, 12, 0, 0, 0, time.UTC)

// sequence returns an ID generator yielding ex-1, ex-2, ...
func sequence() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("ex-%d", n)
	}
}

func testDetector() *Detector {
	return NewDetector(WithClock(clockwork.NewFakeClockAt(testNow)), WithIDGenerator(sequence()))
}

// referenceBands are the bands of the reference deployment.
var referenceBands = ReconciliationBands{ReconciledMax: 0.001, VarianceDetectedMax: 0.01}

func testReconciler() *Reconciler {
	r, err := NewReconciler(referenceBands, WithClock(clockwork.NewFakeClockAt(testNow)))
	if err != nil {
		panic(err)
	}
	return r
}
