// Package cursor keeps the low-water mark used to start the search for free
// catalog positions.
package cursor

import "sort"

// TakenFunc reports whether a position is unavailable.
type TakenFunc func(pos int) bool

// Cursor is a monotonic hint, clamped to [0, size].
//
// Positions below the cursor that become free again (their holder expired)
// are kept in a reclaimed list and offered before the forward scan, so the
// cursor never has to move backwards.
type Cursor struct {
	size      int
	value     int
	reclaimed []int
}

// New returns a cursor at zero for a catalog of size positions.
func New(size int) *Cursor {
	if size < 0 {
		size = 0
	}
	return &Cursor{size: size}
}

// Value returns the current cursor position.
func (c *Cursor) Value() int { return c.value }

// Size returns the catalog length the cursor is clamped to.
func (c *Cursor) Size() int { return c.size }

// AdvanceIf moves the cursor past pos only when pos is exactly the cursor.
func (c *Cursor) AdvanceIf(pos int) bool {
	if pos != c.value {
		return false
	}
	return c.Advance()
}

// Advance moves the cursor forward by one.
func (c *Cursor) Advance() bool {
	if c.value >= c.size {
		return false
	}
	c.value++
	return true
}

// Reclaim remembers a released position that sits below the cursor.
func (c *Cursor) Reclaim(pos int) {
	if pos < 0 || pos >= c.value {
		return
	}
	i := sort.SearchInts(c.reclaimed, pos)
	if i < len(c.reclaimed) && c.reclaimed[i] == pos {
		return
	}
	c.reclaimed = append(c.reclaimed, 0)
	copy(c.reclaimed[i+1:], c.reclaimed[i:])
	c.reclaimed[i] = pos
}

// Reclaimed returns a copy of the reclaimed positions, lowest first.
func (c *Cursor) Reclaimed() []int {
	return append([]int(nil), c.reclaimed...)
}

// Next returns the next free position: reclaimed positions first, then a
// bounded forward scan of limit positions from the cursor. Reclaimed entries
// that have since been taken are dropped.
func (c *Cursor) Next(limit int, taken TakenFunc) (int, bool) {
	kept := c.reclaimed[:0]
	found := -1
	for _, pos := range c.reclaimed {
		if taken(pos) {
			continue
		}
		if found < 0 {
			found = pos
		}
		kept = append(kept, pos)
	}
	c.reclaimed = kept
	if found >= 0 {
		return found, true
	}
	return c.FindNextUnassigned(c.value, limit, taken)
}

// FindNextUnassigned scans at most limit positions starting at start and
// returns the first one that is not taken.
func (c *Cursor) FindNextUnassigned(start, limit int, taken TakenFunc) (int, bool) {
	if start < 0 {
		start = 0
	}
	end := start + limit
	if end > c.size || end < start {
		end = c.size
	}
	for pos := start; pos < end; pos++ {
		if !taken(pos) {
			return pos, true
		}
	}
	return -1, false
}

// Restore sets the cursor and reclaimed list from persisted values.
func (c *Cursor) Restore(value int, reclaimed []int) {
	if value < 0 {
		value = 0
	}
	if value > c.size {
		value = c.size
	}
	c.value = value
	c.reclaimed = nil
	for _, pos := range reclaimed {
		c.Reclaim(pos)
	}
}

// Reset moves the cursor back to zero and forgets reclaimed positions.
func (c *Cursor) Reset() {
	c.value = 0
	c.reclaimed = nil
}
