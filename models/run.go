package models

import (
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

type ScrapeRun struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	SiteID        string     `json:"site_id" db:"site_id"`
	StartedAt     time.Time  `json:"started_at" db:"started_at"`
	FinishedAt    *time.Time `json:"finished_at" db:"finished_at"`
	Status        RunStatus  `json:"status" db:"status"`
	PagesFetched  int        `json:"pages_fetched" db:"pages_fetched"`
	ListingsFound int        `json:"listings_found" db:"listings_found"`
	ListingsSaved int        `json:"listings_saved" db:"listings_saved"`
	ErrorsCount   int        `json:"errors_count" db:"errors_count"`
}

// NewScrapeRun starts a run record for a site.
func NewScrapeRun(siteID string) *ScrapeRun {
	return &ScrapeRun{
		ID:        uuid.New(),
		SiteID:    siteID,
		StartedAt: time.Now(),
		Status:    RunStatusRunning,
	}
}

// Finish stamps the run with its final status.
func (r *ScrapeRun) Finish(status RunStatus) {
	now := time.Now()
	r.FinishedAt = &now
	r.Status = status
}
