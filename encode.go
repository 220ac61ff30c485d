package stakefolio

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Validators, rewards and statements are exchanged as JSONL: one JSON object
// per line, blank lines ignored. Amounts are integer numbers of gwei.

// jvalidator is a validator as read from a JSONL file.
type jvalidator struct {
	ID               string    `json:"id"`
	Operator         string    `json:"operator"`
	Custodian        string    `json:"custodian"`
	State            string    `json:"state"`
	Balance          Gwei      `json:"balance"`
	EffectiveBalance Gwei      `json:"effectiveBalance"`
	TransitStart     time.Time `json:"transitStart"`
}

type jreward struct {
	Validator string    `json:"validator"`
	Amount    Gwei      `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// scanLines calls f for each non blank line of r, with its 1-based number.
func scanLines(r io.Reader, f func(n int, line []byte) error) error {
	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		if err := f(n, line); err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading from input: %w", err)
	}
	return nil
}

// DecodeValidators reads validator records, parsing their states with
// taxonomy. Validator IDs must be unique.
func DecodeValidators(r io.Reader, taxonomy Taxonomy) ([]ValidatorRecord, error) {
	var res []ValidatorRecord
	seen := make(map[string]bool)
	err := scanLines(r, func(_ int, line []byte) error {
		var jv jvalidator
		if err := json.Unmarshal(line, &jv); err != nil {
			return fmt.Errorf("format error on %q: %w", string(line), err)
		}
		if jv.ID == "" {
			return fmt.Errorf("validator without id")
		}
		if seen[jv.ID] {
			return fmt.Errorf("validator %q is already defined", jv.ID)
		}
		seen[jv.ID] = true
		state, err := taxonomy.Parse(jv.State)
		if err != nil {
			return fmt.Errorf("validator %q: %w", jv.ID, err)
		}
		res = append(res, ValidatorRecord{
			ID:               jv.ID,
			OperatorID:       jv.Operator,
			CustodianID:      jv.Custodian,
			State:            state,
			Balance:          jv.Balance,
			EffectiveBalance: jv.EffectiveBalance,
			TransitStart:     jv.TransitStart,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// EncodeValidators writes validators as JSONL, states in the canonical taxonomy.
func EncodeValidators(w io.Writer, validators []ValidatorRecord) error {
	enc := json.NewEncoder(w)
	for _, v := range validators {
		jv := jvalidator{
			ID:               v.ID,
			Operator:         v.OperatorID,
			Custodian:        v.CustodianID,
			State:            string(v.State),
			Balance:          v.Balance,
			EffectiveBalance: v.EffectiveBalance,
			TransitStart:     v.TransitStart,
		}
		if err := enc.Encode(jv); err != nil {
			return fmt.Errorf("encoding validator %q: %w", v.ID, err)
		}
	}
	return nil
}

// DecodeRewards reads reward events.
func DecodeRewards(r io.Reader) ([]RewardEvent, error) {
	var res []RewardEvent
	err := scanLines(r, func(_ int, line []byte) error {
		var jr jreward
		if err := json.Unmarshal(line, &jr); err != nil {
			return fmt.Errorf("format error on %q: %w", string(line), err)
		}
		if jr.Validator == "" {
			return fmt.Errorf("reward without validator")
		}
		res = append(res, RewardEvent{ValidatorID: jr.Validator, Amount: jr.Amount, Timestamp: jr.Timestamp})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// DecodeStatements reads custodian statements already in canonical form:
//
//	{"source":"coinbase","totalValue":32000000000,"reportDate":"2025-03-31T00:00:00Z"}
func DecodeStatements(r io.Reader) ([]CustodianStatement, error) {
	var res []CustodianStatement
	err := scanLines(r, func(_ int, line []byte) error {
		var s CustodianStatement
		if err := json.Unmarshal(line, &s); err != nil {
			return fmt.Errorf("format error on %q: %w", string(line), err)
		}
		if s.Source == "" {
			return fmt.Errorf("statement without source")
		}
		res = append(res, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// DecodeSnapshot reads a snapshot saved by EncodeSnapshot.
func DecodeSnapshot(r io.Reader) (Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Snapshot{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	return s, nil
}

// EncodeSnapshot writes s as an indented JSON object.
func EncodeSnapshot(w io.Writer, s Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
