package vend

import (
	"fmt"
	"sort"
)

// Change maps a coin denomination to the number of coins of that value.
type Change map[int64]int64

// Total returns the summed value of the change.
func (c Change) Total() int64 {
	var total int64
	for denom, count := range c {
		total += denom * count
	}
	return total
}

// CoinSet is the fixed set of accepted coin denominations. Denominations are
// kept sorted descending so change can be computed with a single greedy pass.
type CoinSet struct {
	denoms []int64
}

// NewCoinSet builds a coin set from the given denominations. Values must be
// positive and unique.
func NewCoinSet(denoms []int64) (CoinSet, error) {
	if len(denoms) == 0 {
		return CoinSet{}, fmt.Errorf("at least one denomination is required")
	}
	seen := make(map[int64]bool, len(denoms))
	sorted := make([]int64, 0, len(denoms))
	for _, d := range denoms {
		if d <= 0 {
			return CoinSet{}, fmt.Errorf("denomination %d is not positive", d)
		}
		if seen[d] {
			return CoinSet{}, fmt.Errorf("denomination %d appears twice", d)
		}
		seen[d] = true
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })
	return CoinSet{denoms: sorted}, nil
}

// DefaultCoinSet returns the standard vending denominations.
func DefaultCoinSet() CoinSet {
	cs, err := NewCoinSet([]int64{5, 10, 20, 50, 100})
	if err != nil {
		panic(err)
	}
	return cs
}

// Denominations returns the accepted coin values, largest first.
func (cs CoinSet) Denominations() []int64 {
	out := make([]int64, len(cs.denoms))
	copy(out, cs.denoms)
	return out
}

// Validate returns ErrInvalidDenomination unless value is exactly one of the
// accepted coins.
func (cs CoinSet) Validate(value int64) error {
	for _, d := range cs.denoms {
		if d == value {
			return nil
		}
	}
	return ErrInvalidDenomination
}

// Breakdown splits a non-negative amount into coins, greedily taking the
// largest denomination first. Only denominations with a non-zero count appear
// in the result. A remainder smaller than the smallest coin is not
// representable and is left out of the breakdown.
func (cs CoinSet) Breakdown(amount int64) Change {
	change := make(Change)
	remaining := amount
	for _, d := range cs.denoms {
		if remaining < d {
			continue
		}
		count := remaining / d
		change[d] = count
		remaining -= count * d
	}
	return change
}
