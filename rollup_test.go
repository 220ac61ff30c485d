package stakefolio

import (
	"math/rand/v2"
	"reflect"
	"testing"
	"time"
)

func rollupFixture() ([]ValidatorRecord, []RewardEvent, Window) {
	validators := []ValidatorRecord{
		V("a1", "anchorage", Active, 32),
		V("c1", "coinbase", Active, 32),
		V("c2", "coinbase", Active, 32),
		V("c3", "coinbase", PendingActivation, 32),
		V("f1", "figment", Active, 32),
		V("k1", "kiln", Active, 32),
	}
	rewards := []RewardEvent{
		R("c1", 0.1, day(time.March, 10)),
		R("c2", 0.1, day(time.March, 10)),
		R("f1", 0.05, day(time.March, 20)),
		R("zz", 5, day(time.March, 20)), // unknown validator
	}
	return validators, rewards, NewWindow(day(time.March, 1), day(time.March, 31))
}

func TestRollupByCustodian(t *testing.T) {
	validators, rewards, window := rollupFixture()
	got, err := RollupByCustodian(validators, rewards, window)
	if err != nil {
		t.Fatalf("RollupByCustodian() unexpected error: %v", err)
	}

	wantIDs := []string{"coinbase", "anchorage", "figment", "kiln"}
	var ids []string
	var total Gwei
	var pct float64
	count := 0
	for _, a := range got {
		ids = append(ids, a.ID)
		total = total.Add(a.Value)
		pct += a.Percentage
		count += a.ValidatorCount
	}
	if !reflect.DeepEqual(ids, wantIDs) {
		t.Errorf("allocation order = %v, want %v", ids, wantIDs)
	}
	if !total.Equal(SumBalances(validators)) {
		t.Errorf("sum of allocations = %s, want %s", total, SumBalances(validators))
	}
	if pct < 1-1e-9 || pct > 1+1e-9 {
		t.Errorf("sum of percentages = %v, want 1", pct)
	}
	if count != len(validators) {
		t.Errorf("sum of validator counts = %d, want %d", count, len(validators))
	}

	// coinbase earns 0.2 on 96 ETH, its pending validator dilutes the yield.
	coinbase := got[0]
	if want := Rate(0.2 / 96 * 365 / 30); !coinbase.TrailingAPY.Equal(want) {
		t.Errorf("coinbase APY = %v, want %v", coinbase.TrailingAPY, want)
	}
	if got[3].TrailingAPY != 0 {
		t.Errorf("kiln APY = %v, want 0", got[3].TrailingAPY)
	}
}

func TestRollupByCustodian_Deterministic(t *testing.T) {
	validators, rewards, window := rollupFixture()
	want, err := RollupByCustodian(validators, rewards, window)
	if err != nil {
		t.Fatalf("RollupByCustodian() unexpected error: %v", err)
	}
	r := rand.New(rand.NewPCG(1, 2))
	for range 20 {
		r.Shuffle(len(validators), func(i, j int) { validators[i], validators[j] = validators[j], validators[i] })
		got, err := RollupByCustodian(validators, rewards, window)
		if err != nil {
			t.Fatalf("RollupByCustodian() unexpected error: %v", err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("RollupByCustodian() depends on input order:\n%+v\nwant\n%+v", got, want)
		}
	}
}

func TestRollupByOperator(t *testing.T) {
	validators, rewards, window := rollupFixture()
	validators[0].OperatorID = "op-coinbase" // anchorage validator run by coinbase's operator
	got, err := RollupByOperator(validators, rewards, window)
	if err != nil {
		t.Fatalf("RollupByOperator() unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("RollupByOperator() = %d allocations, want 3", len(got))
	}
	if got[0].ID != "op-coinbase" || got[0].ValidatorCount != 4 || !got[0].Value.Equal(E(128)) {
		t.Errorf("first allocation = %+v, want op-coinbase with 4 validators and 128 ETH", got[0])
	}
}

func TestRollupByCustodian_EmptyWindow(t *testing.T) {
	validators, rewards, _ := rollupFixture()
	if _, err := RollupByCustodian(validators, rewards, Window{}); err == nil {
		t.Error("RollupByCustodian() expected an error on an empty window")
	}
}

func TestBlend(t *testing.T) {
	allocations := []Allocation{
		{ID: "a", Value: E(96), TrailingAPY: 0.04, ValidatorCount: 3},
		{ID: "b", Value: E(32), TrailingAPY: 0.02, ValidatorCount: 1},
	}
	total, count, blended := Blend(allocations)
	if !total.Equal(E(128)) || count != 4 {
		t.Errorf("Blend() = %s, %d, want 128 ETH and 4 validators", total, count)
	}
	if want := Rate(0.035); !blended.Equal(want) {
		t.Errorf("Blend() APY = %v, want %v", blended, want)
	}

	if _, _, blended := Blend(nil); blended != 0 {
		t.Errorf("Blend(nil) APY = %v, want 0", blended)
	}
}

func TestNewPortfolioSummary(t *testing.T) {
	validators, rewards, window := rollupFixture()
	s, err := NewPortfolioSummary(validators, rewards, window, testNow)
	if err != nil {
		t.Fatalf("NewPortfolioSummary() unexpected error: %v", err)
	}
	if !s.TotalValue.Equal(E(192)) || s.ValidatorCount != 6 {
		t.Errorf("summary = %s, %d validators, want 192 ETH, 6 validators", s.TotalValue, s.ValidatorCount)
	}
	if !s.Buckets.Total().Equal(s.TotalValue) {
		t.Errorf("buckets total = %s, want %s", s.Buckets.Total(), s.TotalValue)
	}
	if want := Rate(0.25 / 192 * 365 / 30); !s.BlendedAPY.Equal(want) {
		t.Errorf("BlendedAPY = %v, want %v", s.BlendedAPY, want)
	}
	if a, ok := s.Allocation("figment"); !ok || a.ValidatorCount != 1 {
		t.Errorf("Allocation(figment) = %+v, %v", a, ok)
	}
	if _, ok := s.Allocation("lido"); ok {
		t.Error("Allocation(lido) found")
	}
	snap := s.Snapshot()
	if !snap.Value.Equal(E(192)) || snap.ValidatorCount != 6 || !snap.AsOf.Equal(testNow) {
		t.Errorf("Snapshot() = %+v", snap)
	}
}

func TestNewPortfolioSummary_UnknownState(t *testing.T) {
	validators := []ValidatorRecord{V("v1", "c1", "gone", 32)}
	if _, err := NewPortfolioSummary(validators, nil, NewWindow(day(time.March, 1), day(time.March, 31)), testNow); err == nil {
		t.Error("NewPortfolioSummary() expected an error")
	}
}
