package state

import (
	"encoding/json"

	"github.com/mkmccarty/IdleResearchPlanner/src/pricedb"
	"github.com/mkmccarty/IdleResearchPlanner/src/research"
	"github.com/mkmccarty/IdleResearchPlanner/src/store"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sahilm/fuzzy"
)

// StorageKey is the key the state is stored under.
const StorageKey = "state"

// ErrMalformed is returned for state files that cannot be decoded.
var ErrMalformed = errors.New("malformed state")

// ErrUnknownResearch is returned when a name is not in the database.
var ErrUnknownResearch = errors.New("unknown research")

// State is the player's discount level and per-research progress.
type State struct {
	DiscountLevel int
	researches    []*research.Research
	byName        map[string]*research.Research
}

type stateFile struct {
	DiscountLevel *int            `json:"discount_level"`
	Researches    map[string]*int `json:"researches"`
}

// New creates a fresh state with every research at its start level.
func New(db *pricedb.Database) *State {
	s, _ := reconcile(0, nil, db)
	return s
}

// reconcile builds the research list in database order. Saved levels for names the
// database no longer has are dropped.
func reconcile(discount int, levels map[string]*int, db *pricedb.Database) (*State, error) {
	s := &State{
		DiscountLevel: discount,
		byName:        make(map[string]*research.Research),
	}
	for _, name := range db.Names() {
		elem, _ := db.Elem(name)
		level := elem.Kind.StartLevel()
		if saved, ok := levels[name]; ok {
			if saved == nil {
				return nil, errors.Wrapf(ErrMalformed, "%s: level is not an integer", name)
			}
			if *saved < 0 {
				return nil, errors.Wrapf(ErrMalformed, "%s: negative level %d", name, *saved)
			}
			level = *saved
			if last := elem.LastLevel; last != nil && level > *last {
				log.Warn().Str("research", name).Int("level", level).Int("last_level", *last).
					Msg("saved level past the last level, clamping")
				level = *last
			}
		}
		r := research.New(name, level, elem)
		s.researches = append(s.researches, r)
		s.byName[name] = r
	}
	for name := range levels {
		if _, ok := s.byName[name]; !ok {
			log.Warn().Str("research", name).Msg("dropping research missing from the database")
		}
	}
	return s, nil
}

// Decode parses a state file and reconciles it against db.
func Decode(data []byte, db *pricedb.Database) (*State, error) {
	var sf stateFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, errors.Wrap(ErrMalformed, err.Error())
	}
	if sf.DiscountLevel == nil || sf.Researches == nil {
		return nil, errors.Wrap(ErrMalformed, "missing discount_level or researches")
	}
	if *sf.DiscountLevel < 0 || *sf.DiscountLevel >= 100 {
		return nil, errors.Wrapf(ErrMalformed, "invalid discount_level %d", *sf.DiscountLevel)
	}
	return reconcile(*sf.DiscountLevel, sf.Researches, db)
}

// Encode renders the state file.
func (s *State) Encode() ([]byte, error) {
	discount := s.DiscountLevel
	sf := stateFile{
		DiscountLevel: &discount,
		Researches:    make(map[string]*int, len(s.researches)),
	}
	for _, r := range s.researches {
		level := r.Level
		sf.Researches[r.Name] = &level
	}
	return json.MarshalIndent(sf, "", "    ")
}

// Load reads the state from storage. A state that was never saved starts fresh.
func Load(s store.Storage, db *pricedb.Database) (*State, error) {
	if !s.Has(StorageKey) {
		log.Info().Msg("no saved state, starting fresh")
		return New(db), nil
	}
	b, err := s.Read(StorageKey)
	if err != nil {
		return nil, errors.Wrap(err, "error reading state")
	}
	return Decode(b, db)
}

// Save writes the state to storage.
func (s *State) Save(storage store.Storage) error {
	b, err := s.Encode()
	if err != nil {
		return errors.Wrap(err, "error encoding state")
	}
	return storage.Write(StorageKey, b)
}

// Researches returns every research in database order.
func (s *State) Researches() []*research.Research {
	return s.researches
}

// Research returns the research called name.
func (s *State) Research(name string) (*research.Research, bool) {
	r, ok := s.byName[name]
	return r, ok
}

// Suggest returns the research names that fuzzily match name, best match first.
func (s *State) Suggest(name string) []string {
	names := make([]string, len(s.researches))
	for i, r := range s.researches {
		names[i] = r.Name
	}
	var suggestions []string
	for _, m := range fuzzy.Find(name, names) {
		suggestions = append(suggestions, m.Str)
	}
	return suggestions
}

// SetDiscountLevel changes the player's discount level.
func (s *State) SetDiscountLevel(discount int) error {
	if discount < 0 || discount >= 100 {
		return errors.Errorf("discount level must be in [0, 100), got %d", discount)
	}
	s.DiscountLevel = discount
	return nil
}

// SetLevel changes the level of one research.
func (s *State) SetLevel(name string, level int) error {
	return s.SetLevels(map[string]int{name: level})
}

// SetLevels changes several levels at once. Nothing changes unless every level is
// valid: not negative and not past the research's last level.
func (s *State) SetLevels(levels map[string]int) error {
	for name, level := range levels {
		r, ok := s.byName[name]
		if !ok {
			return errors.Wrapf(ErrUnknownResearch, "%q", name)
		}
		if level < 0 {
			return errors.Errorf("positive level needed for %s", name)
		}
		if last := r.Elem.LastLevel; last != nil && level > *last {
			return errors.Errorf("max level (%d) exceeded for %s", *last, name)
		}
	}
	for name, level := range levels {
		s.byName[name].Level = level
	}
	return nil
}

// Sync starts tracking researches that were added to db after the state was loaded.
func (s *State) Sync(db *pricedb.Database) {
	levels := make(map[string]*int, len(s.researches))
	for _, r := range s.researches {
		level := r.Level
		levels[r.Name] = &level
	}
	synced, _ := reconcile(s.DiscountLevel, levels, db)
	s.researches, s.byName = synced.researches, synced.byName
}

// Reset puts every research back at its start level.
func (s *State) Reset() {
	for _, r := range s.researches {
		r.Level = r.Elem.Kind.StartLevel()
	}
}
