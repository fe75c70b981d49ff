package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/reviewdesk/internal/domain/leaderboard"
	"github.com/okian/reviewdesk/internal/domain/model"
	"github.com/okian/reviewdesk/internal/domain/session"
	"github.com/okian/reviewdesk/internal/domain/state"
	"github.com/okian/reviewdesk/pkg/logger"
	"github.com/okian/reviewdesk/pkg/metrics"
)

// persistLocked saves a snapshot. Failures are logged and counted but never
// returned: in-memory state stays authoritative.
func (s *Service) persistLocked(ctx context.Context) {
	doc := s.snapshotLocked()
	doc.SavedAt = s.now()

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.persistTimeout)
	defer cancel()

	start := time.Now()
	err := s.store.Save(saveCtx, doc)
	metrics.RecordPersistLatency(s.store.Name(), "save", float64(time.Since(start).Milliseconds()))
	if err != nil {
		s.persistErr = fmt.Errorf("%w: save to %s: %w", ErrPersistence, s.store.Name(), err)
		metrics.RecordPersistFailure(s.store.Name(), "save")
		metrics.RecordErrorByComponent("coordinator", "persistence")
		s.logger.Warn(ctx, "failed to save state",
			logger.String("store", s.store.Name()),
			logger.Error(s.persistErr),
		)
		return
	}
	s.persistErr = nil
}

func (s *Service) snapshotLocked() *state.Document {
	doc := state.New()
	doc.LastUpdated = s.lastUpdated
	doc.Cursor = s.cursor.Value()
	doc.Reclaimed = s.cursor.Reclaimed()

	for _, a := range s.ledger.Assignments() {
		doc.Assignments = append(doc.Assignments, state.Assignment{
			Position:   a.Position,
			Holder:     a.Holder,
			AssignedAt: a.AssignedAt,
		})
	}
	for _, sess := range s.sessions.Sessions() {
		ps := state.Session{
			Holder:     sess.Holder,
			LastActive: sess.LastActive,
			Username:   sess.Username,
		}
		if sess.Current != session.NoItem {
			cur := sess.Current
			ps.Current = &cur
		}
		doc.Sessions = append(doc.Sessions, ps)
	}
	doc.Completed.Liked = append(doc.Completed.Liked, s.liked...)
	doc.Completed.Disliked = append(doc.Completed.Disliked, s.disliked...)
	for _, e := range s.board.Entries() {
		doc.Leaderboard = append(doc.Leaderboard, state.LeaderboardEntry{
			Username:   e.Username,
			Reviews:    e.Reviews,
			Liked:      e.Liked,
			Disliked:   e.Disliked,
			CreatedAt:  e.CreatedAt,
			LastActive: e.LastActive,
		})
	}
	return doc
}

// restoreLocked rebuilds in-memory state from doc. Assignments pointing at
// unknown sessions or positions outside the catalog are dropped.
func (s *Service) restoreLocked(ctx context.Context, doc *state.Document) {
	size := s.catalog.Len()

	sessions := make([]session.Session, 0, len(doc.Sessions))
	for _, ps := range doc.Sessions {
		sess := session.Session{
			Holder:     ps.Holder,
			LastActive: ps.LastActive,
			Username:   ps.Username,
			Current:    session.NoItem,
		}
		if ps.Current != nil && *ps.Current >= 0 && *ps.Current < size {
			sess.Current = *ps.Current
		}
		sessions = append(sessions, sess)
	}
	s.sessions.Restore(sessions)

	s.liked = append([]model.CompletedReview(nil), doc.Completed.Liked...)
	s.disliked = append([]model.CompletedReview(nil), doc.Completed.Disliked...)
	for _, logs := range [][]model.CompletedReview{s.liked, s.disliked} {
		for _, r := range logs {
			if r.Position >= 0 && r.Position < size {
				_ = s.ledger.Complete(r.Position)
			}
		}
	}

	dropped := 0
	for _, a := range doc.Assignments {
		if !s.sessions.Has(a.Holder) {
			dropped++
			continue
		}
		if err := s.ledger.Assign(a.Position, a.Holder, a.AssignedAt); err != nil {
			dropped++
		}
	}
	for _, sess := range s.sessions.Sessions() {
		if sess.Current == session.NoItem {
			continue
		}
		if owner, ok := s.ledger.OwnerOf(sess.Current); !ok || owner != sess.Holder {
			s.sessions.SetCurrent(sess.Holder, session.NoItem)
		}
	}

	s.cursor.Restore(doc.Cursor, doc.Reclaimed)
	for pos := 0; pos < s.cursor.Value(); pos++ {
		if !s.ledger.Taken(pos) {
			s.cursor.Reclaim(pos)
		}
	}

	entries := make([]leaderboard.Entry, 0, len(doc.Leaderboard))
	for _, e := range doc.Leaderboard {
		entries = append(entries, leaderboard.Entry{
			Username:   e.Username,
			Reviews:    e.Reviews,
			Liked:      e.Liked,
			Disliked:   e.Disliked,
			CreatedAt:  e.CreatedAt,
			LastActive: e.LastActive,
		})
	}
	s.board.Restore(entries)
	s.lastUpdated = doc.LastUpdated

	s.logger.Info(ctx, "state restored",
		logger.Int("assignments", s.ledger.AssignedCount()),
		logger.Int("dropped", dropped),
		logger.Int("sessions", s.sessions.Len()),
		logger.Int("liked", len(s.liked)),
		logger.Int("disliked", len(s.disliked)),
		logger.Int("users", s.board.Len()),
	)
}
