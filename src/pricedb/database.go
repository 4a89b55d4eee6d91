package pricedb

import (
	"encoding/json"
	"slices"
	"strconv"

	"github.com/mkmccarty/IdleResearchPlanner/src/store"
	"github.com/mkmccarty/IdleResearchPlanner/src/units"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// StorageKey is the key the database is stored under.
const StorageKey = "database"

// ErrMalformed is returned for database files that cannot be fully validated.
var ErrMalformed = errors.New("malformed database")

// Database owns every research track, keyed by research name.
type Database struct {
	elems map[string]*Elem
	names []string
}

// New creates an empty database.
func New() *Database {
	return &Database{elems: make(map[string]*Elem)}
}

// Add registers a new research track.
func (db *Database) Add(name string, elem *Elem) error {
	if name == "" {
		return errors.New("research name is empty")
	}
	if _, ok := db.elems[name]; ok {
		return errors.Errorf("research %q already exists", name)
	}
	db.elems[name] = elem
	i, _ := slices.BinarySearch(db.names, name)
	db.names = slices.Insert(db.names, i, name)
	return nil
}

// Elem returns the track of a research.
func (db *Database) Elem(name string) (*Elem, bool) {
	e, ok := db.elems[name]
	return e, ok
}

// Names returns the research names in sorted order.
func (db *Database) Names() []string {
	return slices.Clone(db.names)
}

type priceFile struct {
	Price json.Number `json:"price"`
	Unit  *string     `json:"unit"`
}

type elemFile struct {
	IncreaseType    string                          `json:"increase_type"`
	IncreasePercent json.Number                     `json:"increase_percent"`
	LastLevel       *int                            `json:"last_level"`
	Prices          map[string]map[string]priceFile `json:"prices"`
}

var requiredElemKeys = []string{"increase_type", "increase_percent", "last_level"}

// Decode parses and validates a database file. Any problem fails the whole load.
func Decode(data []byte) (*Database, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(ErrMalformed, err.Error())
	}

	db := New()
	for name, entry := range raw {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(entry, &fields); err != nil {
			return nil, errors.Wrapf(ErrMalformed, "%s: %v", name, err)
		}
		for _, key := range requiredElemKeys {
			if _, ok := fields[key]; !ok {
				return nil, errors.Wrapf(ErrMalformed, "%s: missing %s", name, key)
			}
		}

		var ef elemFile
		if err := json.Unmarshal(entry, &ef); err != nil {
			return nil, errors.Wrapf(ErrMalformed, "%s: %v", name, err)
		}
		elem, err := ef.toElem()
		if err != nil {
			return nil, errors.Wrapf(ErrMalformed, "%s: %v", name, err)
		}
		if err := db.Add(name, elem); err != nil {
			return nil, errors.Wrap(ErrMalformed, err.Error())
		}
	}
	return db, nil
}

func (ef elemFile) toElem() (*Elem, error) {
	kind, err := ParseKind(ef.IncreaseType)
	if err != nil {
		return nil, err
	}
	percent, err := decimal.NewFromString(ef.IncreasePercent.String())
	if err != nil || percent.IsNegative() {
		return nil, errors.Errorf("invalid increase_percent %q", ef.IncreasePercent)
	}
	if ef.LastLevel != nil && *ef.LastLevel < 0 {
		return nil, errors.Errorf("negative last_level %d", *ef.LastLevel)
	}

	elem := NewElem(kind, percent, ef.LastLevel)
	for levelKey, discounts := range ef.Prices {
		level, err := strconv.Atoi(levelKey)
		if err != nil || level < 0 {
			return nil, errors.Errorf("invalid level %q", levelKey)
		}
		for discountKey, pf := range discounts {
			discount, err := strconv.Atoi(discountKey)
			if err != nil || !validDiscount(discount) {
				return nil, errors.Errorf("level %d: invalid discount level %q", level, discountKey)
			}
			if pf.Unit == nil || pf.Price == "" {
				return nil, errors.Errorf("level %d discount %d: missing price or unit", level, discount)
			}
			amount, err := decimal.NewFromString(pf.Price.String())
			if err != nil || amount.IsNegative() {
				return nil, errors.Errorf("level %d discount %d: invalid price %q", level, discount, pf.Price)
			}
			unit, err := units.ParseUnitShort(*pf.Unit)
			if err != nil {
				return nil, errors.Wrapf(err, "level %d discount %d", level, discount)
			}
			elem.insert(Price{Level: level, DiscountLevel: discount, Amount: amount, Unit: unit})
		}
	}
	return elem, nil
}

// Encode renders the database file. Every price is written in display units.
func (db *Database) Encode() ([]byte, error) {
	out := make(map[string]elemFile, len(db.names))
	for _, name := range db.names {
		elem := db.elems[name]
		prices := make(map[string]map[string]priceFile)
		for _, level := range elem.Levels() {
			discounts := make(map[string]priceFile)
			for _, p := range elem.Prices(level) {
				scaled := units.ScaleForDisplay(p.Value())
				short := scaled.Unit.Short
				discounts[strconv.Itoa(p.DiscountLevel)] = priceFile{
					Price: json.Number(scaled.Mantissa.StringFixed(scaled.Places)),
					Unit:  &short,
				}
			}
			prices[strconv.Itoa(level)] = discounts
		}
		out[name] = elemFile{
			IncreaseType:    string(elem.Kind),
			IncreasePercent: json.Number(elem.Percent.String()),
			LastLevel:       elem.LastLevel,
			Prices:          prices,
		}
	}
	return json.MarshalIndent(out, "", "    ")
}

// Load reads the database from storage.
func Load(s store.Storage) (*Database, error) {
	b, err := s.Read(StorageKey)
	if err != nil {
		return nil, errors.Wrap(err, "error reading database")
	}
	db, err := Decode(b)
	if err != nil {
		return nil, err
	}
	log.Info().Int("researches", len(db.names)).Msg("database loaded")
	return db, nil
}

// Save writes the database to storage.
func (db *Database) Save(s store.Storage) error {
	b, err := db.Encode()
	if err != nil {
		return errors.Wrap(err, "error encoding database")
	}
	return s.Write(StorageKey, b)
}
