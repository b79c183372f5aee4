package models

import (
	"time"
)

// Category identifies one scoring group (a house).
type Category string

const (
	CategoryGryffindor Category = "Gryff"
	CategorySlytherin  Category = "Slyth"
	CategoryRavenclaw  Category = "Raven"
	CategoryHufflepuff Category = "Huff"
)

// DefaultCategories is the closed set of houses reported by the points source.
func DefaultCategories() []Category {
	return []Category{CategoryGryffindor, CategorySlytherin, CategoryRavenclaw, CategoryHufflepuff}
}

// TimeWindow is the reporting scope a totals snapshot covers.
type TimeWindow string

const (
	TimeWindowRecent     TimeWindow = "5m"
	TimeWindowHourly     TimeWindow = "1h"
	TimeWindowCumulative TimeWindow = "all"
)

// DefaultTimeWindows is the enumerated set of windows the points source understands.
func DefaultTimeWindows() []TimeWindow {
	return []TimeWindow{TimeWindowRecent, TimeWindowHourly, TimeWindowCumulative}
}

// TotalsSnapshot maps each category to its point total for one time window.
type TotalsSnapshot map[Category]int

// Clone returns an independent copy of the snapshot.
func (s TotalsSnapshot) Clone() TotalsSnapshot {
	out := make(TotalsSnapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Complete returns a copy holding an entry for every category; missing ones are zero.
func (s TotalsSnapshot) Complete(categories []Category) TotalsSnapshot {
	out := make(TotalsSnapshot, len(categories))
	for _, c := range categories {
		out[c] = s[c]
	}
	return out
}

// ScoringEvent is a single point change pushed by the points source.
type ScoringEvent struct {
	ID        string    `json:"id,omitempty"`
	Category  Category  `json:"category"`
	Points    int       `json:"points"`
	Timestamp time.Time `json:"timestamp"`
}
