package pricedb

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/mkmccarty/IdleResearchPlanner/src/store"
	"github.com/pkg/errors"
)

const sampleDatabase = `{
    "Runway": {
        "increase_type": "fixed-percent",
        "increase_percent": 10,
        "last_level": null,
        "prices": {
            "0": {"0": {"price": "100", "unit": "B"}},
            "1": {"0": {"price": 110, "unit": "B"}, "20": {"price": "88", "unit": "B"}}
        }
    },
    "Fuel": {
        "increase_type": "double",
        "increase_percent": 0,
        "last_level": 3,
        "prices": {}
    }
}`

func TestDecode(t *testing.T) {
	db, err := Decode([]byte(sampleDatabase))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if got := db.Names(); !slices.Equal(got, []string{"Fuel", "Runway"}) {
		t.Errorf("Names() = %v; want [Fuel Runway]", got)
	}

	runway, ok := db.Elem("Runway")
	if !ok {
		t.Fatalf("Elem(%q) missing", "Runway")
	}
	if runway.Kind != KindFixedPercent || !runway.Percent.Equal(d("10")) || runway.LastLevel != nil {
		t.Errorf("Runway = %+v", runway)
	}
	if got := runway.Levels(); !slices.Equal(got, []int{0, 1}) {
		t.Errorf("Levels() = %v; want [0 1]", got)
	}
	if got, _, _ := runway.PriceAt(1, 20); !got.Equal(d("88e9")) {
		t.Errorf("PriceAt(1, 20) = %v; want 88e9", got)
	}

	fuel, _ := db.Elem("Fuel")
	if fuel.LastLevel == nil || *fuel.LastLevel != 3 || !fuel.IsComplete(3) {
		t.Errorf("Fuel last level = %v; want 3", fuel.LastLevel)
	}
}

func TestDecodeMalformed(t *testing.T) {
	testCases := []struct {
		name string
		data string
	}{
		{"Not JSON", `{`},
		{"Missing last_level", `{"A": {"increase_type": "double", "increase_percent": 0}}`},
		{"Missing increase_type", `{"A": {"increase_percent": 0, "last_level": null}}`},
		{"Unknown kind", `{"A": {"increase_type": "quadruple", "increase_percent": 0, "last_level": null}}`},
		{"Negative percent", `{"A": {"increase_type": "fixed-percent", "increase_percent": -1, "last_level": null}}`},
		{"Level not an int", `{"A": {"increase_type": "double", "increase_percent": 0, "last_level": null,
			"prices": {"one": {"0": {"price": "1", "unit": "B"}}}}}`},
		{"Discount not an int", `{"A": {"increase_type": "double", "increase_percent": 0, "last_level": null,
			"prices": {"1": {"x": {"price": "1", "unit": "B"}}}}}`},
		{"Discount out of range", `{"A": {"increase_type": "double", "increase_percent": 0, "last_level": null,
			"prices": {"1": {"100": {"price": "1", "unit": "B"}}}}}`},
		{"Unknown unit", `{"A": {"increase_type": "double", "increase_percent": 0, "last_level": null,
			"prices": {"1": {"0": {"price": "1", "unit": "K"}}}}}`},
		{"Missing unit", `{"A": {"increase_type": "double", "increase_percent": 0, "last_level": null,
			"prices": {"1": {"0": {"price": "1"}}}}}`},
		{"Bad price", `{"A": {"increase_type": "double", "increase_percent": 0, "last_level": null,
			"prices": {"1": {"0": {"price": "cheap", "unit": "B"}}}}}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.data))
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("Decode() error = %v; want ErrMalformed", err)
			}
		})
	}
}

func TestEncodeRescales(t *testing.T) {
	db := New()
	elem := NewElem(KindTriple, d("0"), nil)
	mustRecord(t, elem, 2, 5, "4250", "M")
	if err := db.Add("Hangar", elem); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	b, err := db.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	var out map[string]elemFile
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	pf := out["Hangar"].Prices["2"]["5"]
	if pf.Price.String() != "4.250" || pf.Unit == nil || *pf.Unit != "B" {
		t.Errorf("encoded price = %v %v; want 4.250 B", pf.Price, pf.Unit)
	}

	again, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode(Encode()) error = %v", err)
	}
	e, _ := again.Elem("Hangar")
	if got, _, _ := e.PriceAt(2, 5); !got.Equal(d("4.25e9")) {
		t.Errorf("PriceAt(2, 5) after round trip = %v; want 4.25e9", got)
	}
}

func TestAdd(t *testing.T) {
	db := New()
	for _, name := range []string{"b", "c", "a"} {
		if err := db.Add(name, NewElem(KindDouble, d("0"), nil)); err != nil {
			t.Fatalf("Add(%q) error = %v", name, err)
		}
	}
	if got := db.Names(); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("Names() = %v; want [a b c]", got)
	}
	if err := db.Add("a", NewElem(KindDouble, d("0"), nil)); err == nil {
		t.Errorf("Add() of a duplicate name should fail")
	}
	if err := db.Add("", NewElem(KindDouble, d("0"), nil)); err == nil {
		t.Errorf("Add() of an empty name should fail")
	}
}

func TestLoadSave(t *testing.T) {
	s := store.New(t.TempDir(), false)

	if _, err := Load(s); err == nil {
		t.Errorf("Load() without a database file should fail")
	}

	db, err := Decode([]byte(sampleDatabase))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	runway, _ := db.Elem("Runway")
	mustRecord(t, runway, 2, 0, "121", "B")
	if err := db.Save(s); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(s)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	runway, _ = loaded.Elem("Runway")
	if got := runway.Levels(); !slices.Equal(got, []int{0, 1, 2}) {
		t.Errorf("Levels() after reload = %v; want [0 1 2]", got)
	}
}
