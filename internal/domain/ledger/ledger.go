// Package ledger records which holder currently owns each catalog position.
//
// The ledger is a dense slice of slots sized to the catalog, so positions are
// plain integers end to end. It is not safe for concurrent use; the review
// coordinator owns it and serialises every call behind its own lock.
package ledger

import (
	"errors"
	"sort"
	"time"
)

// Sentinel errors.
var (
	ErrAlreadyAssigned = errors.New("position already assigned to another holder")
	ErrCompleted       = errors.New("position already reviewed")
	ErrOutOfRange      = errors.New("position out of range")
)

type slotState uint8

const (
	slotFree slotState = iota
	slotHeld
	slotCompleted
)

type slot struct {
	state      slotState
	holder     string
	assignedAt time.Time
}

// Assignment is a live claim on a position.
type Assignment struct {
	Position   int
	Holder     string
	AssignedAt time.Time
}

// Ledger maps position -> owner.
type Ledger struct {
	slots     []slot
	assigned  int
	completed int
}

// New returns a ledger with size free slots.
func New(size int) *Ledger {
	if size < 0 {
		size = 0
	}
	return &Ledger{slots: make([]slot, size)}
}

// Len returns the number of slots.
func (l *Ledger) Len() int { return len(l.slots) }

func (l *Ledger) inRange(pos int) bool { return pos >= 0 && pos < len(l.slots) }

// Assign gives pos to holder. Re-assigning to the same holder refreshes nothing
// and succeeds.
func (l *Ledger) Assign(pos int, holder string, at time.Time) error {
	if !l.inRange(pos) {
		return ErrOutOfRange
	}
	s := &l.slots[pos]
	switch s.state {
	case slotCompleted:
		return ErrCompleted
	case slotHeld:
		if s.holder == holder {
			return nil
		}
		return ErrAlreadyAssigned
	}
	s.state = slotHeld
	s.holder = holder
	s.assignedAt = at
	l.assigned++
	return nil
}

// Release frees pos. It is a no-op when pos is not held.
func (l *Ledger) Release(pos int) {
	if !l.inRange(pos) || l.slots[pos].state != slotHeld {
		return
	}
	l.slots[pos] = slot{}
	l.assigned--
}

// Complete marks pos as reviewed, dropping any assignment on it.
func (l *Ledger) Complete(pos int) error {
	if !l.inRange(pos) {
		return ErrOutOfRange
	}
	s := &l.slots[pos]
	switch s.state {
	case slotCompleted:
		return ErrCompleted
	case slotHeld:
		l.assigned--
	}
	l.slots[pos] = slot{state: slotCompleted}
	l.completed++
	return nil
}

// OwnerOf returns the holder of pos, if any.
func (l *Ledger) OwnerOf(pos int) (string, bool) {
	if !l.inRange(pos) || l.slots[pos].state != slotHeld {
		return "", false
	}
	return l.slots[pos].holder, true
}

// IsAssigned reports whether pos has a live assignment.
func (l *Ledger) IsAssigned(pos int) bool {
	return l.inRange(pos) && l.slots[pos].state == slotHeld
}

// IsCompleted reports whether pos has been reviewed.
func (l *Ledger) IsCompleted(pos int) bool {
	return l.inRange(pos) && l.slots[pos].state == slotCompleted
}

// Taken reports whether pos is unavailable for a new assignment.
func (l *Ledger) Taken(pos int) bool {
	return !l.inRange(pos) || l.slots[pos].state != slotFree
}

// HeldBy returns the positions held by holder in ascending order.
func (l *Ledger) HeldBy(holder string) []int {
	var out []int
	for pos := range l.slots {
		if l.slots[pos].state == slotHeld && l.slots[pos].holder == holder {
			out = append(out, pos)
		}
	}
	return out
}

// ReleaseHolder frees every position held by holder and returns them.
func (l *Ledger) ReleaseHolder(holder string) []int {
	released := l.HeldBy(holder)
	for _, pos := range released {
		l.Release(pos)
	}
	return released
}

// AssignedCount returns the number of live assignments.
func (l *Ledger) AssignedCount() int { return l.assigned }

// CompletedCount returns the number of reviewed positions.
func (l *Ledger) CompletedCount() int { return l.completed }

// Assignments returns every live assignment ordered by position.
func (l *Ledger) Assignments() []Assignment {
	out := make([]Assignment, 0, l.assigned)
	for pos, s := range l.slots {
		if s.state == slotHeld {
			out = append(out, Assignment{Position: pos, Holder: s.holder, AssignedAt: s.assignedAt})
		}
	}
	return out
}

// Holders returns the distinct holders with at least one assignment, sorted.
func (l *Ledger) Holders() []string {
	seen := map[string]struct{}{}
	for _, s := range l.slots {
		if s.state == slotHeld {
			seen[s.holder] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for h := range seen {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

// Reset frees every slot.
func (l *Ledger) Reset() {
	l.slots = make([]slot, len(l.slots))
	l.assigned = 0
	l.completed = 0
}
