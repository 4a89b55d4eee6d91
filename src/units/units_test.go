package units_test

import (
	"testing"

	"github.com/mkmccarty/IdleResearchPlanner/src/units"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

func TestScaleForDisplay(t *testing.T) {
	testCases := []struct {
		name     string
		value    string
		expected string
	}{
		{"Zero", "0", "0.00"},
		{"Fraction", "0.456", "0.46"},
		{"Two digits", "42.125", "42.12"},
		{"Two digits bank rounding", "42.135", "42.14"},
		{"Three digits", "123.4", "123"},
		{"Seven digits", "1234567.5", "1234568"},
		{"Eight digits", "12345678", "12345678"},
		{"Nine digits", "123456789", "123.457 M"},
		{"Billion", "4250000000", "4.250 B"},
		{"Trillion", "1234000000000", "1.234 T"},
		{"Quadrillion", "5.67e15", "5.670 q"},
		{"Carry into next unit", "999999600", "1.000 B"},
		{"Carry into units", "99999999.6", "100.000 M"},
		{"Duodecillion", "3.5e40", "35.000 D"},
		{"Qd", "7.125e48", "7.125 Qd"},
		{"Above registry", "2e51", "2000.000 Qd"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := units.ScaleForDisplay(decimal.RequireFromString(tc.value)).String()
			if got != tc.expected {
				t.Errorf("ScaleForDisplay(%v) = %q; want %q", tc.value, got, tc.expected)
			}
		})
	}
}

func TestScaleForDisplayRoundTrip(t *testing.T) {
	values := []string{
		"0", "0.005", "0.015", "9.995", "99.995", "100.5", "101.5", "9999999.5",
		"99999999.5", "999999500", "999999499", "1000000000", "123456789012345678901234567890",
		"999999999999999999999999999999999999999999999", "4.2504999e20", "1.0005e9", "7e49",
	}

	for _, v := range values {
		x := decimal.RequireFromString(v)
		first := units.ScaleForDisplay(x)
		second := units.ScaleForDisplay(first.Value())
		if !first.Equal(second) {
			t.Errorf("ScaleForDisplay(ScaleForDisplay(%v).Value()) = %v; want %v", v, second, first)
		}
	}
}

func TestMagnitude(t *testing.T) {
	testCases := []struct {
		value    string
		expected int
	}{
		{"0", 0},
		{"1", 0},
		{"9.99", 0},
		{"10", 1},
		{"1000", 3},
		{"0.01", -2},
		{"4.250e9", 9},
		{"-1500", 3},
	}

	for _, tc := range testCases {
		got := units.Magnitude(decimal.RequireFromString(tc.value))
		if got != tc.expected {
			t.Errorf("Magnitude(%v) = %d; want %d", tc.value, got, tc.expected)
		}
	}
}

func TestRegistryIsBijective(t *testing.T) {
	seenShort := make(map[string]bool)
	seenExp := make(map[int]bool)
	for _, u := range units.All() {
		if seenShort[u.Short] || seenExp[u.Exponent] {
			t.Fatalf("duplicate registry entry %+v", u)
		}
		seenShort[u.Short] = true
		seenExp[u.Exponent] = true

		byShort, err := units.ParseUnitShort(u.Short)
		if err != nil || byShort.Exponent != u.Exponent {
			t.Errorf("ParseUnitShort(%q) = %+v, %v; want exponent %d", u.Short, byShort, err, u.Exponent)
		}
		byExp, ok := units.ForExponent(u.Exponent)
		if !ok || byExp.Short != u.Short {
			t.Errorf("ForExponent(%d) = %+v; want %q", u.Exponent, byExp, u.Short)
		}
	}
	if _, ok := units.ForExponent(3); ok {
		t.Errorf("ForExponent(3) should not exist")
	}
}

func TestParseUnitShort(t *testing.T) {
	if _, err := units.ParseUnitShort("K"); !errors.Is(err, units.ErrUnknownUnit) {
		t.Errorf("ParseUnitShort(%q) error = %v; want ErrUnknownUnit", "K", err)
	}
	u, err := units.ParseUnitShort("Td")
	if err != nil {
		t.Fatalf("ParseUnitShort(%q) returned an unexpected error: %v", "Td", err)
	}
	if !u.Multiplier().Equal(decimal.New(1, 42)) {
		t.Errorf("Td multiplier = %v; want 1e42", u.Multiplier())
	}
}

func TestParseValueWithUnit(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		expectedVal string
		expectedExp int
		expectError bool
	}{
		{"Integer no unit", "123", "123", 0, false},
		{"Decimal no unit", "123.45", "123.45", 0, false},
		{"Billions", "4.25B", "4.25", 9, false},
		{"Space before unit", "4.25 B", "4.25", 9, false},
		{"Two letter unit", "1.5Td", "1.5", 42, false},
		{"Lower q", "2.345q", "2.345", 15, false},
		{"Unknown unit", "10X", "", 0, true},
		{"Kilo is not registered", "10K", "", 0, true},
		{"Not a number", "abc", "", 0, true},
		{"Negative", "-10B", "", 0, true},
		{"Unit only", "B", "", 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, unit, err := units.ParseValueWithUnit(tc.input)
			if tc.expectError {
				if err == nil {
					t.Errorf("ParseValueWithUnit(%q) expected an error, but got nil", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseValueWithUnit(%q) returned an unexpected error: %v", tc.input, err)
			}
			if !got.Equal(decimal.RequireFromString(tc.expectedVal)) || unit.Exponent != tc.expectedExp {
				t.Errorf("ParseValueWithUnit(%q) = %v %q; want %v e%d", tc.input, got, unit.Short, tc.expectedVal, tc.expectedExp)
			}
		})
	}
}
