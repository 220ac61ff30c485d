package stakefolio

import (
	"fmt"
	"strings"
)

// StakeState is the lifecycle state of a validator.
//
// The canonical taxonomy has five states. Deployments still emitting the
// legacy taxonomy must convert through ParseLegacyStakeState.
type StakeState string

const (
	Deposited         StakeState = "deposited"          // deposit seen, not yet queued
	PendingActivation StakeState = "pending_activation" // in the entry queue
	Active            StakeState = "active"
	Exiting           StakeState = "exiting"
	Withdrawable      StakeState = "withdrawable"
)

var stakeStates = []StakeState{Deposited, PendingActivation, Active, Exiting, Withdrawable}

// StakeStates returns the canonical states in lifecycle order.
func StakeStates() []StakeState {
	return append([]StakeState(nil), stakeStates...)
}

// Valid reports whether s is a canonical state.
func (s StakeState) Valid() bool {
	switch s {
	case Deposited, PendingActivation, Active, Exiting, Withdrawable:
		return true
	}
	return false
}

// PreActivation reports whether a validator in state s holds stake that is
// not earning yet, i.e. still in transit towards activation.
func (s StakeState) PreActivation() bool {
	return s == Deposited || s == PendingActivation
}

// ParseStakeState parses a canonical state. "entry_queue" and "entryQueue"
// are accepted as names of the pending activation state.
func ParseStakeState(str string) (StakeState, error) {
	switch s := strings.TrimSpace(str); s {
	case "entry_queue", "entryQueue":
		return PendingActivation, nil
	default:
		if st := StakeState(s); st.Valid() {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownStakeState, str)
}

// LegacyMapping is one row of the legacy to canonical equivalence table.
type LegacyMapping struct {
	Legacy    string
	Canonical StakeState
}

var legacyEquivalence = []LegacyMapping{
	{"active", Active},
	{"pending_activation", PendingActivation},
	{"in_transit", Deposited},
	{"exiting", Exiting},
	{"exited", Withdrawable},
}

// LegacyEquivalence returns the equivalence table used by ParseLegacyStakeState.
func LegacyEquivalence() []LegacyMapping {
	return append([]LegacyMapping(nil), legacyEquivalence...)
}

// ParseLegacyStakeState converts a state of the legacy taxonomy
// (active, pending_activation, in_transit, exiting, exited) to its canonical state.
func ParseLegacyStakeState(str string) (StakeState, error) {
	s := strings.TrimSpace(str)
	for _, m := range legacyEquivalence {
		if m.Legacy == s {
			return m.Canonical, nil
		}
	}
	return "", fmt.Errorf("%w %q in legacy taxonomy", ErrUnknownStakeState, str)
}

// Taxonomy selects how lifecycle states are read from external records.
type Taxonomy int

const (
	CanonicalTaxonomy Taxonomy = iota
	LegacyTaxonomy
)

func (t Taxonomy) String() string {
	if t == LegacyTaxonomy {
		return "legacy"
	}
	return "canonical"
}

// ParseTaxonomy parses "canonical" or "legacy".
func ParseTaxonomy(s string) (Taxonomy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "canonical", "":
		return CanonicalTaxonomy, nil
	case "legacy":
		return LegacyTaxonomy, nil
	default:
		return CanonicalTaxonomy, fmt.Errorf("unknown taxonomy %q", s)
	}
}

// Parse parses a state name according to the taxonomy.
func (t Taxonomy) Parse(s string) (StakeState, error) {
	if t == LegacyTaxonomy {
		return ParseLegacyStakeState(s)
	}
	return ParseStakeState(s)
}
