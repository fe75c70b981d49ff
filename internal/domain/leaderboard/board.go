// Package leaderboard keeps per-username review counters and their ranking.
package leaderboard

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

// Entry is the stored counter set for one username.
type Entry struct {
	Username   string    `json:"username"`
	Reviews    int       `json:"review_count"`
	Liked      int       `json:"liked_count"`
	Disliked   int       `json:"disliked_count"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

// Row is one line of a ranked snapshot.
type Row struct {
	Rank       int       `json:"rank"`
	Username   string    `json:"username"`
	Reviews    int       `json:"reviews"`
	Liked      int       `json:"liked"`
	Disliked   int       `json:"disliked"`
	Accuracy   float64   `json:"accuracy"`
	LastActive time.Time `json:"last_active"`
}

// Board is not safe for concurrent use.
type Board struct {
	root   *node
	byName map[string]*Entry
}

// New returns an empty board.
func New() *Board {
	return &Board{byName: make(map[string]*Entry)}
}

// NormalizeUsername trims surrounding space and cuts the name to max runes.
// ok is false when nothing is left.
func NormalizeUsername(raw string, max int) (string, bool) {
	name := strings.TrimSpace(raw)
	if max > 0 && utf8.RuneCountInString(name) > max {
		name = strings.TrimSpace(string([]rune(name)[:max]))
	}
	return name, name != ""
}

// Register creates an entry with zero counters, or only refreshes the
// activity time of an existing one.
func (b *Board) Register(name string, now time.Time) bool {
	if e, ok := b.byName[name]; ok {
		e.LastActive = now
		return false
	}
	b.byName[name] = &Entry{Username: name, CreatedAt: now, LastActive: now}
	b.root = insert(b.root, name, 0)
	return true
}

// Record counts one verdict for name, creating the entry if it is missing.
func (b *Board) Record(name string, liked bool, now time.Time) Entry {
	e, ok := b.byName[name]
	if !ok {
		b.Register(name, now)
		e = b.byName[name]
	}
	b.root = remove(b.root, name, e.Reviews)
	e.Reviews++
	if liked {
		e.Liked++
	} else {
		e.Disliked++
	}
	e.LastActive = now
	b.root = insert(b.root, name, e.Reviews)
	return *e
}

// Get returns a copy of the entry for name.
func (b *Board) Get(name string) (Entry, bool) {
	e, ok := b.byName[name]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Len returns the number of usernames.
func (b *Board) Len() int { return len(b.byName) }

// Accuracy is liked / reviews as a percentage with one decimal.
func Accuracy(liked, reviews int) float64 {
	if reviews == 0 {
		return 0
	}
	return math.Round(float64(liked)/float64(reviews)*1000) / 10
}

// Snapshot returns the board ranked by review count. Users with equal counts
// share a rank and the next count gets the following rank.
func (b *Board) Snapshot() []Row {
	out := make([]Row, 0, len(b.byName))
	rank, prev := 0, -1
	walk(b.root, func(n *node) bool {
		e := b.byName[n.name]
		if e.Reviews != prev {
			rank++
			prev = e.Reviews
		}
		out = append(out, Row{
			Rank:       rank,
			Username:   e.Username,
			Reviews:    e.Reviews,
			Liked:      e.Liked,
			Disliked:   e.Disliked,
			Accuracy:   Accuracy(e.Liked, e.Reviews),
			LastActive: e.LastActive,
		})
		return true
	})
	return out
}

// Entries returns copies of all entries in rank order.
func (b *Board) Entries() []Entry {
	out := make([]Entry, 0, len(b.byName))
	walk(b.root, func(n *node) bool {
		out = append(out, *b.byName[n.name])
		return true
	})
	return out
}

// Restore replaces the board contents. Counters are repaired so that
// reviews always equals liked plus disliked.
func (b *Board) Restore(entries []Entry) {
	b.root = nil
	b.byName = make(map[string]*Entry, len(entries))
	for _, e := range entries {
		if e.Username == "" {
			continue
		}
		if _, dup := b.byName[e.Username]; dup {
			continue
		}
		cp := e
		cp.Reviews = cp.Liked + cp.Disliked
		b.byName[cp.Username] = &cp
		b.root = insert(b.root, cp.Username, cp.Reviews)
	}
}

// Reset drops every entry.
func (b *Board) Reset() {
	b.root = nil
	b.byName = make(map[string]*Entry)
}
