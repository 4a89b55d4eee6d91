package research

import (
	"iter"

	"github.com/mkmccarty/IdleResearchPlanner/src/pricedb"
	"github.com/shopspring/decimal"
)

// Research is the player's progress in one research track.
type Research struct {
	Name  string
	Level int
	Elem  *pricedb.Elem // owned by the Database
}

// PaybackEntry is the quote for buying one level of a research.
type PaybackEntry struct {
	Research   *Research
	Level      int
	Cost       decimal.Decimal
	Payback    decimal.NullDecimal
	IsEstimate bool
}

// New creates a research at level.
func New(name string, level int, elem *pricedb.Elem) *Research {
	return &Research{Name: name, Level: level, Elem: elem}
}

// AdvanceLevel records the purchase of the current level.
func (r *Research) AdvanceLevel() {
	r.Level++
}

// IsComplete reports whether the current level is at or past the last level.
func (r *Research) IsComplete() bool {
	return r.Elem.IsComplete(r.Level)
}

// ForwardPaybacks yields one entry per consecutive level from start on. It stops at
// the last level, or at the first level nothing can be quoted for.
func (r *Research) ForwardPaybacks(discount, start int) iter.Seq[PaybackEntry] {
	return func(yield func(PaybackEntry) bool) {
		for level := start; !r.Elem.IsComplete(level); level++ {
			q, ok := r.Elem.PriceAndPaybackAt(level, discount)
			if !ok {
				return
			}
			entry := PaybackEntry{
				Research:   r,
				Level:      level,
				Cost:       q.Cost,
				Payback:    q.Payback,
				IsEstimate: q.IsEstimate,
			}
			if !yield(entry) {
				return
			}
		}
	}
}

// Paybacks is ForwardPaybacks from the current level.
func (r *Research) Paybacks(discount int) iter.Seq[PaybackEntry] {
	return r.ForwardPaybacks(discount, r.Level)
}

// NextPayback returns the first entry of ForwardPaybacks(discount, start).
func (r *Research) NextPayback(discount, start int) (PaybackEntry, bool) {
	for entry := range r.ForwardPaybacks(discount, start) {
		return entry, true
	}
	return PaybackEntry{}, false
}
