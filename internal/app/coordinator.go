package service

import (
	"context"

	"github.com/okian/reviewdesk/internal/domain/leaderboard"
	"github.com/okian/reviewdesk/internal/domain/model"
	"github.com/okian/reviewdesk/pkg/logger"
	"github.com/okian/reviewdesk/pkg/metrics"
)

// Assignment is what a holder should review now, plus preloaded items.
type Assignment struct {
	Current   model.Item
	Preloaded []model.Item
}

// Items returns the current item followed by the preloaded ones.
func (a Assignment) Items() []model.Item {
	return append([]model.Item{a.Current}, a.Preloaded...)
}

// Verdict is the outcome of a recorded review.
type Verdict struct {
	Review model.CompletedReview
	// Stats is the reviewer's leaderboard entry; zero when no username is set.
	Stats leaderboard.Entry
}

// GetAssignment returns the holder's current item, claiming a free one if it
// holds none, and tops up to lookahead additional items. Repeated calls
// return the same current item until a verdict is recorded for it.
func (s *Service) GetAssignment(ctx context.Context, holder string, lookahead int) (Assignment, error) {
	if holder == "" {
		return Assignment{}, ErrEmptyHolder
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	changed := s.expireLocked(ctx, now) > 0
	s.sessions.Touch(holder, now)

	current, ok := s.currentLocked(holder)
	if !ok {
		current, ok = s.claimLocked(ctx, holder)
		if !ok {
			if changed {
				s.persistLocked(ctx)
			}
			metrics.RecordCatalogExhausted()
			return Assignment{}, ErrCatalogExhausted
		}
		changed = true
		metrics.RecordAssignment("current")
	}
	s.sessions.SetCurrent(holder, current)

	if lookahead > s.maxPreload {
		lookahead = s.maxPreload
	}
	var preloaded []int
	for _, pos := range s.ledger.HeldBy(holder) {
		if pos != current && len(preloaded) < lookahead {
			preloaded = append(preloaded, pos)
		}
	}
	for len(preloaded) < lookahead {
		pos, ok := s.claimLocked(ctx, holder)
		if !ok {
			break
		}
		preloaded = append(preloaded, pos)
		changed = true
		metrics.RecordAssignment("preload")
	}

	if changed {
		s.lastUpdated = now
		s.persistLocked(ctx)
	}

	out := Assignment{Current: s.itemLocked(current)}
	for _, pos := range preloaded {
		out.Preloaded = append(out.Preloaded, s.itemLocked(pos))
	}
	return out, nil
}

// RecordVerdict completes position for holder. The holder must own a live
// assignment on it.
func (s *Service) RecordVerdict(ctx context.Context, holder string, pos int, liked bool) (Verdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordVerdictLocked(ctx, holder, pos, liked)
}

// RecordVerdictOnce is RecordVerdict keyed by a client request id. A request
// id already accepted yields ErrDuplicateRequest; a rejected verdict leaves
// the id free for a retry. An empty id disables the check.
func (s *Service) RecordVerdictOnce(ctx context.Context, holder, requestID string, pos int, liked bool) (Verdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if requestID == "" {
		return s.recordVerdictLocked(ctx, holder, pos, liked)
	}
	if s.deduper.SeenAndRecord(ctx, requestID) {
		metrics.RecordDuplicateRequest()
		s.logger.Debug(ctx, "duplicate verdict request",
			logger.Holder(holder), logger.String("request_id", requestID))
		return Verdict{}, ErrDuplicateRequest
	}
	v, err := s.recordVerdictLocked(ctx, holder, pos, liked)
	if err != nil {
		s.deduper.Unrecord(ctx, requestID)
	}
	return v, err
}

func (s *Service) recordVerdictLocked(ctx context.Context, holder string, pos int, liked bool) (Verdict, error) {
	if pos < 0 || pos >= s.catalog.Len() {
		metrics.RecordVerdictRejected("out_of_range")
		return Verdict{}, ErrOutOfRange
	}

	now := s.now()
	if s.expireLocked(ctx, now) > 0 {
		s.persistLocked(ctx)
	}

	owner, ok := s.ledger.OwnerOf(pos)
	if !ok {
		metrics.RecordVerdictRejected("not_assigned")
		s.logger.Debug(ctx, "verdict for unassigned item",
			logger.Holder(holder), logger.Int("position", pos))
		return Verdict{}, ErrNotAssigned
	}
	if owner != holder {
		metrics.RecordVerdictRejected("wrong_owner")
		s.logger.Debug(ctx, "verdict from wrong owner",
			logger.Holder(holder), logger.Int("position", pos))
		return Verdict{}, ErrWrongOwner
	}

	s.sessions.Touch(holder, now)
	username, _ := s.sessions.Username(holder)
	review := model.NewCompletedReview(s.itemLocked(pos), liked, username, now)
	if liked {
		s.liked = append(s.liked, review)
	} else {
		s.disliked = append(s.disliked, review)
	}

	var stats leaderboard.Entry
	if username != "" {
		stats = s.board.Record(username, liked, now)
	}
	_ = s.ledger.Complete(pos)
	s.sessions.ClearCurrentIf(holder, pos)
	s.cursor.AdvanceIf(pos)
	s.lastUpdated = now
	s.persistLocked(ctx)

	metrics.RecordVerdict(liked)
	s.logger.Debug(ctx, "verdict recorded",
		logger.Holder(holder),
		logger.Int("position", pos),
		logger.String("category", string(model.CategoryOf(liked))),
	)
	return Verdict{Review: review, Stats: stats}, nil
}

// RegisterUsername binds a display name to holder. Registering an existing
// name keeps its counters.
func (s *Service) RegisterUsername(ctx context.Context, holder, raw string) (leaderboard.Entry, error) {
	if holder == "" {
		return leaderboard.Entry{}, ErrEmptyHolder
	}
	name, ok := leaderboard.NormalizeUsername(raw, s.usernameMaxLength)
	if !ok {
		return leaderboard.Entry{}, ErrEmptyUsername
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sessions.SetUsername(holder, name, now)
	created := s.board.Register(name, now)
	s.lastUpdated = now
	s.persistLocked(ctx)

	metrics.RecordRegistration()
	s.logger.Debug(ctx, "username registered",
		logger.Holder(holder),
		logger.String("username", name),
		logger.Bool("created", created),
	)
	entry, _ := s.board.Get(name)
	return entry, nil
}

// Username returns the name bound to holder.
func (s *Service) Username(holder string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.Username(holder)
}

// UserStats returns the leaderboard entry for username.
func (s *Service) UserStats(username string) (leaderboard.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Get(username)
}

// currentLocked picks the holder's current item: the recorded one while it
// is still held, otherwise the lowest held position.
func (s *Service) currentLocked(holder string) (int, bool) {
	if pos, ok := s.sessions.Current(holder); ok {
		if owner, held := s.ledger.OwnerOf(pos); held && owner == holder {
			return pos, true
		}
	}
	held := s.ledger.HeldBy(holder)
	if len(held) == 0 {
		return 0, false
	}
	return held[0], true
}

// claimLocked assigns the next free position to holder. When the bounded
// window has nothing free the cursor moves by one and the search runs once
// more.
func (s *Service) claimLocked(ctx context.Context, holder string) (int, bool) {
	pos, ok := s.cursor.Next(s.searchWindow, s.ledger.Taken)
	if !ok {
		if !s.cursor.Advance() {
			return 0, false
		}
		pos, ok = s.cursor.Next(s.searchWindow, s.ledger.Taken)
		if !ok {
			return 0, false
		}
	}
	if err := s.ledger.Assign(pos, holder, s.now()); err != nil {
		s.logger.Error(ctx, "ledger refused a free position",
			logger.Int("position", pos), logger.Error(err))
		return 0, false
	}
	s.cursor.AdvanceIf(pos)
	s.logger.Debug(ctx, "item assigned", logger.Holder(holder), logger.Int("position", pos))
	return pos, true
}

func (s *Service) itemLocked(pos int) model.Item {
	item, _ := s.catalog.At(pos)
	return item
}
