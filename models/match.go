package models

import (
	"encoding/json"
	"time"
)

const (
	MatchStatusPending   = "pending"
	MatchStatusConfirmed = "confirmed"
	MatchStatusRejected  = "rejected"
)

// PropertyMatch flags two listings judged to describe the same property.
// ListingA sorts before ListingB so a pair is stored once.
type PropertyMatch struct {
	ID           int64           `json:"id" db:"id"`
	ListingA     string          `json:"listing_a" db:"listing_a"`
	ListingB     string          `json:"listing_b" db:"listing_b"`
	Category     Category        `json:"property_type" db:"property_type"`
	MatchReasons json.RawMessage `json:"match_reasons" db:"match_reasons"`
	Status       string          `json:"status" db:"status"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// NewPropertyMatch orders the pair and encodes the reasons.
func NewPropertyMatch(idA, idB string, category Category, reasons []string) PropertyMatch {
	if idB < idA {
		idA, idB = idB, idA
	}
	if reasons == nil {
		reasons = []string{}
	}
	raw, _ := json.Marshal(reasons)
	return PropertyMatch{
		ListingA:     idA,
		ListingB:     idB,
		Category:     category,
		MatchReasons: raw,
		Status:       MatchStatusPending,
		CreatedAt:    time.Now(),
	}
}
