package pricedb

import (
	"slices"

	"github.com/mkmccarty/IdleResearchPlanner/src/units"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrDuplicateObservation is returned when a price is already recorded for a (level, discount) pair.
var ErrDuplicateObservation = errors.New("price already recorded")

// Kind is the growth law of a research track.
type Kind string

// Research growth laws
const (
	KindFixedPercent Kind = "fixed-percent"
	KindDouble       Kind = "double"
	KindTriple       Kind = "triple"
)

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindFixedPercent, KindDouble, KindTriple:
		return k, nil
	}
	return "", errors.Errorf("unknown increase type %q", s)
}

// StartLevel is the level a fresh research of this kind begins at.
func (k Kind) StartLevel() int {
	if k == KindDouble || k == KindTriple {
		return 1
	}
	return 0
}

var (
	two     = decimal.NewFromInt(2)
	three   = decimal.NewFromInt(3)
	hundred = decimal.NewFromInt(100)
)

// Price is one observed research price.
type Price struct {
	Level         int
	DiscountLevel int
	Amount        decimal.Decimal // mantissa in Unit
	Unit          units.Unit
}

// Value returns the absolute price.
func (p Price) Value() decimal.Decimal {
	return p.Amount.Mul(p.Unit.Multiplier())
}

// At returns the price renormalized to another discount level. The undiscounted base
// is quantized to display precision before the target discount is applied.
func (p Price) At(discount int) decimal.Decimal {
	price := p.Value()
	if discount == p.DiscountLevel {
		return price
	}
	base := units.Quantize(price.Div(discountFactor(p.DiscountLevel)))
	return base.Mul(discountFactor(discount))
}

func discountFactor(discount int) decimal.Decimal {
	return decimal.New(int64(100-discount), -2)
}

func validDiscount(discount int) bool {
	return discount >= 0 && discount < 100
}

// Quote is the price and payback of one research level.
type Quote struct {
	Cost       decimal.Decimal
	Payback    decimal.NullDecimal
	IsEstimate bool
}

// Elem is the pricing model of one research track.
type Elem struct {
	Kind      Kind
	Percent   decimal.Decimal
	LastLevel *int // exclusive; nil while unknown
	prices    map[int]map[int]Price
}

// NewElem creates a track with no recorded prices.
func NewElem(kind Kind, percent decimal.Decimal, lastLevel *int) *Elem {
	return &Elem{
		Kind:      kind,
		Percent:   percent,
		LastLevel: lastLevel,
		prices:    make(map[int]map[int]Price),
	}
}

// IsComplete reports whether level is at or past the last level.
func (e *Elem) IsComplete(level int) bool {
	return e.LastLevel != nil && level >= *e.LastLevel
}

// MarkCompleted sets the exclusive last level.
func (e *Elem) MarkCompleted(level int) {
	e.LastLevel = &level
}

// HasLevel reports whether any price is recorded for level.
func (e *Elem) HasLevel(level int) bool {
	return len(e.prices[level]) > 0
}

// Levels returns the levels with recorded prices in ascending order.
func (e *Elem) Levels() []int {
	levels := make([]int, 0, len(e.prices))
	for l, discounts := range e.prices {
		if len(discounts) > 0 {
			levels = append(levels, l)
		}
	}
	slices.Sort(levels)
	return levels
}

// Prices returns the recorded prices of level ordered by discount.
func (e *Elem) Prices(level int) []Price {
	discounts := e.prices[level]
	keys := make([]int, 0, len(discounts))
	for d := range discounts {
		keys = append(keys, d)
	}
	slices.Sort(keys)

	prices := make([]Price, 0, len(keys))
	for _, d := range keys {
		prices = append(prices, discounts[d])
	}
	return prices
}

// RecordObservedPrice stores a new exact observation of amount × unit.
// Observations are append-only.
func (e *Elem) RecordObservedPrice(level, discount int, amount decimal.Decimal, unitShort string) error {
	unit, err := units.ParseUnitShort(unitShort)
	if err != nil {
		return err
	}
	if level < 0 {
		return errors.Errorf("invalid level %d", level)
	}
	if !validDiscount(discount) {
		return errors.Errorf("invalid discount level %d", discount)
	}
	if amount.IsNegative() {
		return errors.Errorf("invalid price %s", amount)
	}
	if _, ok := e.prices[level][discount]; ok {
		return errors.Wrapf(ErrDuplicateObservation, "level %d discount %d", level, discount)
	}
	e.insert(Price{Level: level, DiscountLevel: discount, Amount: amount, Unit: unit})
	return nil
}

func (e *Elem) insert(p Price) {
	discounts := e.prices[p.Level]
	if discounts == nil {
		discounts = make(map[int]Price)
		e.prices[p.Level] = discounts
	}
	discounts[p.DiscountLevel] = p
}

// PriceAt returns the price of level at a discount. isEstimate is set when the value
// was renormalized from another discount. ok is false when nothing is recorded for
// level or the research is already complete there.
func (e *Elem) PriceAt(level, discount int) (price decimal.Decimal, isEstimate bool, ok bool) {
	if e.IsComplete(level) {
		return decimal.Zero, false, false
	}
	return e.lookup(level, discount)
}

func (e *Elem) lookup(level, discount int) (decimal.Decimal, bool, bool) {
	if !e.HasLevel(level) {
		return decimal.Zero, false, false
	}
	discounts := e.prices[level]

	if p, ok := discounts[discount]; ok {
		return p.Value(), false, true
	}

	if p, ok := discounts[0]; ok {
		return p.At(discount), true, true
	}

	estimates := make([]decimal.Decimal, 0, len(discounts))
	for _, p := range e.Prices(level) {
		estimates = append(estimates, p.At(discount))
	}
	return mean(estimates), true, true
}

// PaybackFor returns the price at which buying the level after this one pays back.
// It is unknown (not Valid) for a fixed-percent track without a percent.
func (e *Elem) PaybackFor(price decimal.Decimal, level int) decimal.NullDecimal {
	switch e.Kind {
	case KindDouble:
		return decimal.NewNullDecimal(price.Mul(two))
	case KindTriple:
		return decimal.NewNullDecimal(price.Mul(three))
	}

	if !e.Percent.IsPositive() {
		return decimal.NullDecimal{}
	}
	// price * m / (m - 1) with m = (1 + p/100 + p*level/100) / (1 + p*level/100)
	// reduces to price * (100 + p*(level+1)) / p.
	factor := hundred.Add(e.Percent.Mul(decimal.NewFromInt(int64(level + 1))))
	return decimal.NewNullDecimal(price.Mul(factor).Div(e.Percent))
}

// PriceAndPaybackAt quotes level, extrapolating from other levels when nothing is
// recorded for it.
func (e *Elem) PriceAndPaybackAt(level, discount int) (Quote, bool) {
	price, isEstimate, ok := e.PriceAt(level, discount)
	if !ok {
		if e.IsComplete(level) {
			return Quote{}, false
		}
		if price, ok = e.EstimateMissingLevel(level, discount); !ok {
			return Quote{}, false
		}
		isEstimate = true
	}

	return Quote{
		Cost:       price,
		Payback:    e.PaybackFor(price, level),
		IsEstimate: isEstimate,
	}, true
}

func mean(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	return decimal.Sum(decimal.Zero, values...).Div(decimal.NewFromInt(int64(len(values))))
}
