package ranking

import (
	"iter"
	"slices"
	"sort"

	"github.com/mkmccarty/IdleResearchPlanner/src/research"
	"github.com/shopspring/decimal"
)

// Stream merges the forward payback sequences of every research into one sequence
// ordered by payback. It holds at most one pending entry per research.
//
// A Stream is a snapshot: rebuild it after any level, discount or database change.
type Stream struct {
	discount int
	pending  []research.PaybackEntry
}

// New seeds a stream with the next entry of every research at its current level.
func New(researches []*research.Research, discount int) *Stream {
	s := &Stream{discount: discount}
	for _, r := range researches {
		for entry := range r.Paybacks(discount) {
			s.pending = append(s.pending, entry)
			break
		}
	}
	slices.SortStableFunc(s.pending, func(a, b research.PaybackEntry) int {
		return sortKey(a).Cmp(sortKey(b))
	})
	return s
}

// sortKey is the payback, with unknown paybacks ranked as 0 so they surface first.
func sortKey(e research.PaybackEntry) decimal.Decimal {
	if !e.Payback.Valid {
		return decimal.Zero
	}
	return e.Payback.Decimal
}

// Len is the number of researches that still have an entry pending.
func (s *Stream) Len() int {
	return len(s.pending)
}

// Peek returns the next entry without consuming it.
func (s *Stream) Peek() (research.PaybackEntry, bool) {
	if len(s.pending) == 0 {
		return research.PaybackEntry{}, false
	}
	return s.pending[0], true
}

// Next pops the entry with the lowest payback and queues the following level of the
// same research.
func (s *Stream) Next() (research.PaybackEntry, bool) {
	if len(s.pending) == 0 {
		return research.PaybackEntry{}, false
	}
	entry := s.pending[0]
	s.pending = s.pending[1:]

	if following, ok := entry.Research.NextPayback(s.discount, entry.Level+1); ok {
		s.insert(following)
	}
	return entry, true
}

// insert places e after every pending entry whose key is not greater.
func (s *Stream) insert(e research.PaybackEntry) {
	key := sortKey(e)
	i := sort.Search(len(s.pending), func(i int) bool {
		return sortKey(s.pending[i]).GreaterThan(key)
	})
	s.pending = slices.Insert(s.pending, i, e)
}

// Take consumes up to n entries.
func (s *Stream) Take(n int) []research.PaybackEntry {
	entries := make([]research.PaybackEntry, 0, n)
	for len(entries) < n {
		entry, ok := s.Next()
		if !ok {
			break
		}
		entries = append(entries, entry)
	}
	return entries
}

// All consumes the stream lazily.
func (s *Stream) All() iter.Seq[research.PaybackEntry] {
	return func(yield func(research.PaybackEntry) bool) {
		for {
			entry, ok := s.Next()
			if !ok || !yield(entry) {
				return
			}
		}
	}
}
