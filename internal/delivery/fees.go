// Package delivery holds the flat per-state delivery fee table used at checkout.
package delivery

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

type FeeTable struct {
	fees map[string]decimal.Decimal
}

// NewFeeTable parses a state → fee mapping. State names are matched
// case-insensitively.
func NewFeeTable(raw map[string]string) (*FeeTable, error) {
	fees := make(map[string]decimal.Decimal, len(raw))
	for state, v := range raw {
		fee, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("parse delivery fee for %q: %w", state, err)
		}
		if fee.IsNegative() {
			return nil, fmt.Errorf("delivery fee for %q is negative", state)
		}
		fees[normalize(state)] = fee
	}
	return &FeeTable{fees: fees}, nil
}

func (t *FeeTable) Lookup(state string) (decimal.Decimal, bool) {
	fee, ok := t.fees[normalize(state)]
	return fee, ok
}

// States returns the known states in sorted order.
func (t *FeeTable) States() []string {
	states := make([]string, 0, len(t.fees))
	for s := range t.fees {
		states = append(states, s)
	}
	sort.Strings(states)
	return states
}

func normalize(state string) string {
	return strings.ToLower(strings.TrimSpace(state))
}
