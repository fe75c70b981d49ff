// Package state defines the persisted form of the shared review state.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/okian/reviewdesk/internal/domain/model"
)

// Version is written into every document.
const Version = "1.0"

// ErrUnsupportedVersion is returned by Decode for documents from another format.
var ErrUnsupportedVersion = errors.New("unsupported state version")

// Assignment is a persisted ledger claim.
type Assignment struct {
	Position   int       `json:"position"`
	Holder     string    `json:"holder"`
	AssignedAt time.Time `json:"assigned_at"`
}

// Session is a persisted holder session.
type Session struct {
	Holder     string    `json:"holder"`
	LastActive time.Time `json:"last_active"`
	Username   string    `json:"username,omitempty"`
	Current    *int      `json:"current_item,omitempty"`
}

// Completed holds the two review logs.
type Completed struct {
	Liked    []model.CompletedReview `json:"liked"`
	Disliked []model.CompletedReview `json:"disliked"`
}

// LeaderboardEntry is a persisted per-username counter set.
type LeaderboardEntry struct {
	Username   string    `json:"username"`
	Reviews    int       `json:"review_count"`
	Liked      int       `json:"liked_count"`
	Disliked   int       `json:"disliked_count"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

// Document is everything needed to rebuild the coordinator after a restart.
type Document struct {
	Version     string             `json:"version"`
	SavedAt     time.Time          `json:"saved_at"`
	LastUpdated time.Time          `json:"last_updated"`
	Cursor      int                `json:"cursor"`
	Reclaimed   []int              `json:"reclaimed,omitempty"`
	Assignments []Assignment       `json:"assignments"`
	Sessions    []Session          `json:"sessions"`
	Completed   Completed          `json:"completed"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

// New returns an empty document stamped with the current version.
func New() *Document {
	return &Document{
		Version:     Version,
		Assignments: []Assignment{},
		Sessions:    []Session{},
		Completed:   Completed{Liked: []model.CompletedReview{}, Disliked: []model.CompletedReview{}},
		Leaderboard: []LeaderboardEntry{},
	}
}

// Encode marshals the document.
func Encode(doc *Document) ([]byte, error) {
	if doc == nil {
		return nil, errors.New("nil state document")
	}
	return json.Marshal(doc)
}

// Decode unmarshals and checks the version. A missing version is read as the
// current one.
func Decode(data []byte) (*Document, error) {
	doc := New()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	switch doc.Version {
	case "":
		doc.Version = Version
	case Version:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, doc.Version)
	}
	return doc, nil
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.Reclaimed = append([]int(nil), d.Reclaimed...)
	out.Assignments = append([]Assignment{}, d.Assignments...)
	out.Sessions = make([]Session, len(d.Sessions))
	for i, s := range d.Sessions {
		if s.Current != nil {
			cur := *s.Current
			s.Current = &cur
		}
		out.Sessions[i] = s
	}
	out.Completed = Completed{
		Liked:    cloneReviews(d.Completed.Liked),
		Disliked: cloneReviews(d.Completed.Disliked),
	}
	out.Leaderboard = append([]LeaderboardEntry{}, d.Leaderboard...)
	return &out
}

func cloneReviews(in []model.CompletedReview) []model.CompletedReview {
	out := make([]model.CompletedReview, len(in))
	for i, r := range in {
		fields := make(map[string]string, len(r.Fields))
		for k, v := range r.Fields {
			fields[k] = v
		}
		r.Fields = fields
		out[i] = r
	}
	return out
}
