// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"strings"
	"time"
)

// Well-known catalog columns.
const (
	FieldName    = "company_name"
	FieldWebsite = "website"
)

// ErrUnknownCategory is returned by ParseCategory.
var ErrUnknownCategory = errors.New("unknown category")

// Item is one catalog row. Position is its zero-based index in the catalog.
type Item struct {
	Position int
	Fields   map[string]string
}

// Get returns a field value, or "" when the column is absent.
func (i Item) Get(key string) string {
	return i.Fields[key]
}

// Name returns the company name.
func (i Item) Name() string { return i.Get(FieldName) }

// Website returns the company website.
func (i Item) Website() string { return i.Get(FieldWebsite) }

// Category partitions completed reviews by verdict.
type Category string

const (
	CategoryLiked    Category = "liked"
	CategoryDisliked Category = "disliked"
)

// ParseCategory accepts "liked" or "disliked" (case-insensitive).
func ParseCategory(s string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryLiked:
		return CategoryLiked, nil
	case CategoryDisliked:
		return CategoryDisliked, nil
	}
	return "", ErrUnknownCategory
}

// CategoryOf maps a verdict to its category.
func CategoryOf(liked bool) Category {
	if liked {
		return CategoryLiked
	}
	return CategoryDisliked
}

// CompletedReview is an item frozen together with its verdict. It is never
// mutated once appended to the review log.
type CompletedReview struct {
	Position   int               `json:"position"`
	Fields     map[string]string `json:"item"`
	Liked      bool              `json:"liked"`
	Username   string            `json:"username,omitempty"`
	ReviewedAt time.Time         `json:"reviewed_at"`
}

// NewCompletedReview copies the item's fields so later catalog reloads cannot
// alter the log.
func NewCompletedReview(item Item, liked bool, username string, at time.Time) CompletedReview {
	fields := make(map[string]string, len(item.Fields))
	for k, v := range item.Fields {
		fields[k] = v
	}
	return CompletedReview{
		Position:   item.Position,
		Fields:     fields,
		Liked:      liked,
		Username:   username,
		ReviewedAt: at,
	}
}
