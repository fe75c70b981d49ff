package service

import (
	"context"
	"math"
	"time"

	"github.com/okian/reviewdesk/internal/domain/leaderboard"
	"github.com/okian/reviewdesk/internal/domain/model"
	"github.com/okian/reviewdesk/pkg/logger"
	"github.com/okian/reviewdesk/pkg/metrics"
)

// Progress aggregates review counts.
type Progress struct {
	Total       int     `json:"total"`
	Completed   int     `json:"completed"`
	Assigned    int     `json:"assigned"`
	Remaining   int     `json:"remaining"`
	Liked       int     `json:"liked_count"`
	Disliked    int     `json:"disliked_count"`
	ActiveUsers int     `json:"active_users"`
	Percent     float64 `json:"progress_percent"`
}

// AdminStats is Progress plus internals for operators.
type AdminStats struct {
	Progress
	Cursor         int       `json:"cursor"`
	Reclaimed      int       `json:"reclaimed"`
	Sessions       int       `json:"sessions"`
	Holders        []string  `json:"holders"`
	Users          int       `json:"users"`
	CatalogSource  string    `json:"catalog_source"`
	Store          string    `json:"store"`
	SessionTimeout float64   `json:"session_timeout_seconds"`
	LastUpdated    time.Time `json:"last_updated"`
	PersistError   string    `json:"persist_error,omitempty"`
}

// AssignmentView describes one live assignment for debugging.
type AssignmentView struct {
	Position    int       `json:"position"`
	Holder      string    `json:"holder"`
	Username    string    `json:"username,omitempty"`
	CompanyName string    `json:"company_name"`
	AssignedAt  time.Time `json:"assigned_at"`
	AgeSeconds  float64   `json:"age_seconds"`
	IdleSeconds float64   `json:"idle_seconds"`
}

// Export is one category of completed reviews with the catalog columns.
type Export struct {
	Category model.Category
	Columns  []string
	Reviews  []model.CompletedReview
}

// Progress returns aggregate counts. Remaining excludes items that are
// currently assigned.
func (s *Service) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progressLocked(s.now())
}

func (s *Service) progressLocked(now time.Time) Progress {
	total := s.catalog.Len()
	liked, disliked := len(s.liked), len(s.disliked)
	completed := liked + disliked
	assigned := s.ledger.AssignedCount()
	p := Progress{
		Total:       total,
		Completed:   completed,
		Assigned:    assigned,
		Remaining:   max(total-completed-assigned, 0),
		Liked:       liked,
		Disliked:    disliked,
		ActiveUsers: s.sessions.ActiveCount(now, s.sessionTimeout),
	}
	if total > 0 {
		p.Percent = math.Round(float64(completed)/float64(total)*1000) / 10
	}
	return p
}

// Leaderboard returns the ranked board.
func (s *Service) Leaderboard() []leaderboard.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Snapshot()
}

// Export returns a copy of the review log for category.
func (s *Service) Export(category string) (Export, error) {
	cat, err := model.ParseCategory(category)
	if err != nil {
		return Export{}, ErrInvalidCategory
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.liked
	if cat == model.CategoryDisliked {
		log = s.disliked
	}
	if len(log) == 0 {
		return Export{}, ErrNothingToExport
	}
	return Export{
		Category: cat,
		Columns:  s.catalog.Columns(),
		Reviews:  append([]model.CompletedReview(nil), log...),
	}, nil
}

// Reset clears assignments, sessions, cursor, leaderboard and review logs,
// then saves immediately.
func (s *Service) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ledger.Reset()
	s.sessions.Reset()
	s.cursor.Reset()
	s.board.Reset()
	s.liked = nil
	s.disliked = nil
	s.deduper.Reset(ctx)
	s.lastUpdated = s.now()
	s.persistLocked(ctx)

	metrics.RecordReset()
	s.logger.Info(ctx, "all progress and leaderboard reset")
}

// AdminStats returns progress plus coordinator internals.
func (s *Service) AdminStats() AdminStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var persistErr string
	if s.persistErr != nil {
		persistErr = s.persistErr.Error()
	}
	holders := make([]string, 0, s.sessions.Len())
	for _, sess := range s.sessions.Sessions() {
		holders = append(holders, logger.ShortHolder(sess.Holder))
	}
	return AdminStats{
		Progress:       s.progressLocked(now),
		Cursor:         s.cursor.Value(),
		Reclaimed:      len(s.cursor.Reclaimed()),
		Sessions:       s.sessions.Len(),
		Holders:        holders,
		Users:          s.board.Len(),
		CatalogSource:  s.catalog.Source(),
		Store:          s.store.Name(),
		SessionTimeout: s.sessionTimeout.Seconds(),
		LastUpdated:    s.lastUpdated,
		PersistError:   persistErr,
	}
}

// Assignments lists live assignments ordered by position.
func (s *Service) Assignments() []AssignmentView {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	live := s.ledger.Assignments()
	out := make([]AssignmentView, 0, len(live))
	for _, a := range live {
		view := AssignmentView{
			Position:    a.Position,
			Holder:      logger.ShortHolder(a.Holder),
			CompanyName: s.itemLocked(a.Position).Name(),
			AssignedAt:  a.AssignedAt,
			AgeSeconds:  now.Sub(a.AssignedAt).Seconds(),
		}
		if sess, ok := s.sessions.Get(a.Holder); ok {
			view.Username = sess.Username
			view.IdleSeconds = now.Sub(sess.LastActive).Seconds()
		}
		out = append(out, view)
	}
	return out
}

// HeldBy returns the positions holder currently owns.
func (s *Service) HeldBy(holder string) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.HeldBy(holder)
}

// CatalogSize returns the number of items.
func (s *Service) CatalogSize() int { return s.catalog.Len() }
