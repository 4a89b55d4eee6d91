package pricedb

import (
	"slices"

	"github.com/shopspring/decimal"
)

// maxSamples caps both the growth ratios and the anchor levels an estimate averages.
const maxSamples = 5

// powPrecision bounds the fractional digits kept while raising the growth ratio.
const powPrecision = 24

// EstimateMissingLevel extrapolates the price of level from the levels that do have
// prices: the mean growth ratio of consecutive known levels is applied to the closest
// known levels and the results are averaged. ok is false when fewer than two levels are
// known or no consecutive pair shares a discount level.
func (e *Elem) EstimateMissingLevel(level, discount int) (decimal.Decimal, bool) {
	known := e.Levels()
	if len(known) < 2 {
		return decimal.Zero, false
	}

	ratios := e.growthRatios(level, known)
	if len(ratios) == 0 {
		return decimal.Zero, false
	}
	multiplier := mean(ratios)
	if !multiplier.IsPositive() {
		return decimal.Zero, false
	}

	estimates := make([]decimal.Decimal, 0, maxSamples)
	for _, l := range closestLevels(known, level, maxSamples) {
		price, _, ok := e.lookup(l, discount)
		if !ok {
			continue
		}
		estimates = append(estimates, price.Mul(powInt(multiplier, level-l)))
	}
	if len(estimates) == 0 {
		return decimal.Zero, false
	}
	return mean(estimates), true
}

// growthRatios returns up to maxSamples price ratios of consecutive known levels,
// scanning from the edge of the known range nearest to target.
func (e *Elem) growthRatios(target int, known []int) []decimal.Decimal {
	top := known[len(known)-1]
	if e.LastLevel != nil && *e.LastLevel-1 < top {
		top = *e.LastLevel - 1
	}

	var pairs [][2]int
	for i := 0; i+1 < len(known); i++ {
		lower, upper := known[i], known[i+1]
		if upper == lower+1 && upper <= top {
			pairs = append(pairs, [2]int{lower, upper})
		}
	}

	if abs(target-known[0]) >= abs(target-top) {
		slices.Reverse(pairs)
	}

	ratios := make([]decimal.Decimal, 0, maxSamples)
	for _, pair := range pairs {
		if ratio, ok := e.pairRatio(pair[0], pair[1]); ok {
			ratios = append(ratios, ratio)
			if len(ratios) == maxSamples {
				break
			}
		}
	}
	return ratios
}

// pairRatio is the mean of price(upper, d) / price(lower, d) over every discount d
// recorded at both levels.
func (e *Elem) pairRatio(lower, upper int) (decimal.Decimal, bool) {
	var ratios []decimal.Decimal
	for _, p := range e.Prices(lower) {
		q, ok := e.prices[upper][p.DiscountLevel]
		if !ok || p.Value().IsZero() {
			continue
		}
		ratios = append(ratios, q.Value().Div(p.Value()))
	}
	if len(ratios) == 0 {
		return decimal.Zero, false
	}
	return mean(ratios), true
}

// closestLevels orders known by distance to target, the higher level first on a tie.
func closestLevels(known []int, target, n int) []int {
	levels := slices.Clone(known)
	slices.SortStableFunc(levels, func(a, b int) int {
		if da, db := abs(a-target), abs(b-target); da != db {
			return da - db
		}
		return b - a
	})
	if len(levels) > n {
		levels = levels[:n]
	}
	return levels
}

// powInt raises a positive x to n. A negative n inverts x first, so rounding a tiny
// power to zero never ends up in a divisor.
func powInt(x decimal.Decimal, n int) decimal.Decimal {
	if n < 0 {
		return powInt(decimal.NewFromInt(1).DivRound(x, powPrecision), -n)
	}
	result := decimal.NewFromInt(1)
	for ; n > 0; n >>= 1 {
		if n&1 == 1 {
			result = result.Mul(x).Round(powPrecision)
		}
		x = x.Mul(x).Round(powPrecision)
	}
	return result
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
