// Package session tracks holder activity and the username bound to each holder.
package session

import (
	"sort"
	"time"
)

// Session is the per-holder record.
type Session struct {
	Holder     string
	LastActive time.Time
	Username   string
	// Current is the position the holder is working on, -1 when unset.
	Current int
}

// NoItem marks an unset current position.
const NoItem = -1

// Tracker maps holder -> session. Like the ledger it carries no lock.
type Tracker struct {
	sessions map[string]*Session
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{sessions: make(map[string]*Session)}
}

// Touch creates the session if needed and bumps its activity time.
func (t *Tracker) Touch(holder string, now time.Time) *Session {
	s, ok := t.sessions[holder]
	if !ok {
		s = &Session{Holder: holder, Current: NoItem}
		t.sessions[holder] = s
	}
	s.LastActive = now
	return s
}

// Get returns a copy of the holder's session.
func (t *Tracker) Get(holder string) (Session, bool) {
	s, ok := t.sessions[holder]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// ExpireOlderThan removes every session idle for longer than timeout and
// returns their holders sorted. Releasing their assignments is up to the caller.
func (t *Tracker) ExpireOlderThan(now time.Time, timeout time.Duration) []string {
	var expired []string
	for holder, s := range t.sessions {
		if now.Sub(s.LastActive) > timeout {
			expired = append(expired, holder)
		}
	}
	sort.Strings(expired)
	for _, holder := range expired {
		delete(t.sessions, holder)
	}
	return expired
}

// SetUsername binds name to holder, creating the session if needed.
func (t *Tracker) SetUsername(holder, name string, now time.Time) {
	t.Touch(holder, now).Username = name
}

// Username returns the name bound to holder, if any.
func (t *Tracker) Username(holder string) (string, bool) {
	s, ok := t.sessions[holder]
	if !ok || s.Username == "" {
		return "", false
	}
	return s.Username, true
}

// SetCurrent records pos as the holder's current item.
func (t *Tracker) SetCurrent(holder string, pos int) {
	if s, ok := t.sessions[holder]; ok {
		s.Current = pos
	}
}

// Current returns the holder's current item.
func (t *Tracker) Current(holder string) (int, bool) {
	s, ok := t.sessions[holder]
	if !ok || s.Current == NoItem {
		return NoItem, false
	}
	return s.Current, true
}

// ClearCurrentIf unsets the holder's current item when it equals pos.
func (t *Tracker) ClearCurrentIf(holder string, pos int) {
	if s, ok := t.sessions[holder]; ok && s.Current == pos {
		s.Current = NoItem
	}
}

// ActiveCount counts sessions that have been seen within timeout.
func (t *Tracker) ActiveCount(now time.Time, timeout time.Duration) int {
	n := 0
	for _, s := range t.sessions {
		if now.Sub(s.LastActive) <= timeout {
			n++
		}
	}
	return n
}

// Len returns the number of tracked sessions.
func (t *Tracker) Len() int { return len(t.sessions) }

// Has reports whether holder has a session.
func (t *Tracker) Has(holder string) bool {
	_, ok := t.sessions[holder]
	return ok
}

// Sessions returns copies of all sessions ordered by holder.
func (t *Tracker) Sessions() []Session {
	out := make([]Session, 0, len(t.sessions))
	for _, s := range t.sessions {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Holder < out[j].Holder })
	return out
}

// Restore replaces the tracker contents.
func (t *Tracker) Restore(sessions []Session) {
	t.sessions = make(map[string]*Session, len(sessions))
	for _, s := range sessions {
		if s.Holder == "" {
			continue
		}
		cp := s
		t.sessions[s.Holder] = &cp
	}
}

// Reset drops every session.
func (t *Tracker) Reset() {
	t.sessions = make(map[string]*Session)
}
