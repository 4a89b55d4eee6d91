package ranking

import (
	"iter"

	"github.com/mkmccarty/IdleResearchPlanner/src/research"
	"github.com/mkmccarty/IdleResearchPlanner/src/state"
	"github.com/shopspring/decimal"
)

// GapKind tells what observation a research is missing.
type GapKind string

// Data gaps
const (
	// DiscountGap: the current level is only priced at other discount levels.
	DiscountGap GapKind = "discount-gap"
	// LevelGap: nothing is recorded for the current level.
	LevelGap GapKind = "level-gap"
)

// DataRequest asks the player for the price of a research's current level.
type DataRequest struct {
	Kind           GapKind
	Research       *research.Research
	EstimatedPrice decimal.NullDecimal
	LastLevelKnown bool
}

// ResearchesNeedingData yields a request for every research whose current level lacks
// an exact price at the state's discount. Completed researches are never flagged. The
// sequence can be ranged over any number of times.
func ResearchesNeedingData(st *state.State) iter.Seq[DataRequest] {
	return func(yield func(DataRequest) bool) {
		discount := st.DiscountLevel
		for _, r := range st.Researches() {
			if r.IsComplete() {
				continue
			}
			elem := r.Elem
			req := DataRequest{Research: r, LastLevelKnown: elem.LastLevel != nil}

			if price, isEstimate, ok := elem.PriceAt(r.Level, discount); ok {
				if !isEstimate {
					continue
				}
				req.Kind = DiscountGap
				req.EstimatedPrice = decimal.NewNullDecimal(price)
			} else {
				req.Kind = LevelGap
				if price, ok := elem.EstimateMissingLevel(r.Level, discount); ok {
					req.EstimatedPrice = decimal.NewNullDecimal(price)
				}
			}
			if !yield(req) {
				return
			}
		}
	}
}
