package units

import (
	"math/big"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrUnknownUnit is returned when a unit short code is not in the registry.
var ErrUnknownUnit = errors.New("unknown unit")

// Unit is a named order of magnitude.
type Unit struct {
	Short    string
	Long     string
	Exponent int
}

// Multiplier returns 10^Exponent.
func (u Unit) Multiplier() decimal.Decimal {
	return decimal.New(1, int32(u.Exponent))
}

var registry = []Unit{
	{"", "", 0},
	{"M", "Millions", 6},
	{"B", "Billions", 9},
	{"T", "Trillions", 12},
	{"q", "Quadrillions", 15},
	{"Q", "Quintillions", 18},
	{"s", "Sextillions", 21},
	{"S", "Septillions", 24},
	{"o", "Octillions", 27},
	{"N", "Nonillions", 30},
	{"d", "Decillions", 33},
	{"U", "Undecillions", 36},
	{"D", "Duodecillions", 39},
	{"Td", "Tredecillions", 42},
	{"qd", "Quattuordecillions", 45},
	{"Qd", "Quindecillions", 48},
}

var exponent2unit = make(map[int]Unit)
var short2unit = make(map[string]Unit)
var maxExponent int

func init() {
	for _, u := range registry {
		exponent2unit[u.Exponent] = u
		short2unit[u.Short] = u
	}
	maxExponent = registry[len(registry)-1].Exponent
}

// All returns the registry in ascending exponent order.
func All() []Unit {
	return append([]Unit(nil), registry...)
}

// ParseUnitShort looks up a unit by its short code.
func ParseUnitShort(code string) (Unit, error) {
	u, ok := short2unit[code]
	if !ok {
		return Unit{}, errors.Wrapf(ErrUnknownUnit, "%q", code)
	}
	return u, nil
}

// ForExponent returns the unit registered for exp.
func ForExponent(exp int) (Unit, bool) {
	u, ok := exponent2unit[exp]
	return u, ok
}

// Scaled is a display-quantized value: Mantissa × 10^Unit.Exponent.
type Scaled struct {
	Mantissa decimal.Decimal
	Places   int32
	Unit     Unit
}

// Value reconstructs the absolute value.
func (s Scaled) Value() decimal.Decimal {
	return s.Mantissa.Shift(int32(s.Unit.Exponent))
}

// Equal reports whether both values render identically.
func (s Scaled) Equal(o Scaled) bool {
	return s.Places == o.Places && s.Unit.Short == o.Unit.Short && s.Mantissa.Equal(o.Mantissa)
}

func (s Scaled) String() string {
	if s.Unit.Short == "" {
		return s.Mantissa.StringFixed(s.Places)
	}
	return s.Mantissa.StringFixed(s.Places) + " " + s.Unit.Short
}

// Magnitude returns the decimal order of the most significant digit of x (0 for zero).
func Magnitude(x decimal.Decimal) int {
	if x.IsZero() {
		return 0
	}
	digits := len(new(big.Int).Abs(x.Coefficient()).String())
	return digits + int(x.Exponent()) - 1
}

// ScaleForDisplay picks the display unit and quantization for x.
//
//	order <= 1      -> no unit, 2 decimals
//	order in (1, 7] -> no unit, integer
//	order > 7       -> largest multiple of 3 <= order, 3 decimals
func ScaleForDisplay(x decimal.Decimal) Scaled {
	// A rounding carry (999.9996 M -> 1000.000 M) lands on the next magnitude.
	// Scaling the reconstruction once more settles it on 1.000 B.
	return scale(scale(x).Value())
}

func scale(x decimal.Decimal) Scaled {
	order := Magnitude(x)
	exp, places := 0, int32(2)
	switch {
	case order <= 1:
	case order <= 7:
		places = 0
	default:
		exp = order - order%3
		if exp > maxExponent {
			exp = maxExponent
		}
		places = 3
	}
	unit, _ := ForExponent(exp)
	return Scaled{
		Mantissa: x.Shift(int32(-exp)).RoundBank(places),
		Places:   places,
		Unit:     unit,
	}
}

// Quantize returns x rounded the way it would be displayed.
func Quantize(x decimal.Decimal) decimal.Decimal {
	return ScaleForDisplay(x).Value()
}

// Format renders x in display units, e.g. "4.250 B".
func Format(x decimal.Decimal) string {
	return ScaleForDisplay(x).String()
}

var valueWithUnitRegExp = regexp.MustCompile(`^(?P<value>\d+(\.\d+)?)\s*(?P<unit>[A-Za-z]*)$`)

// ParseValueWithUnit parses "4.25B", "4.25 B" or "123" into a mantissa and its unit.
func ParseValueWithUnit(s string) (decimal.Decimal, Unit, error) {
	match := valueWithUnitRegExp.FindStringSubmatch(strings.TrimSpace(s))
	if match == nil {
		return decimal.Zero, Unit{}, errors.Errorf("invalid price %q", s)
	}

	value, err := decimal.NewFromString(match[1])
	if err != nil {
		return decimal.Zero, Unit{}, errors.Wrapf(err, "invalid price %q", s)
	}

	unit, err := ParseUnitShort(match[3])
	if err != nil {
		return decimal.Zero, Unit{}, err
	}
	return value, unit, nil
}
