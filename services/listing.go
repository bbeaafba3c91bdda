package services

import (
	"context"

	"inmo_dedup/identity"
	"inmo_dedup/models"
	"inmo_dedup/normalize"
	"inmo_dedup/storage"
)

// ListingService turns scraped field maps into stored records.
type ListingService struct {
	store  storage.Store
	format normalize.NumberFormat
}

func NewListingService(store storage.Store, format normalize.NumberFormat) *ListingService {
	return &ListingService{store: store, format: format}
}

// IngestResult contains the outcome of one batch
type IngestResult struct {
	Saved    int
	Rejected []error
}

// Build constructs a record, fills the parsed areas and assigns its id.
// Unparsable areas, including the "disable" sentinel, stay nil.
func (s *ListingService) Build(fields models.Fields) (*models.PropertyRecord, error) {
	p, err := models.NewPropertyRecord(fields)
	if err != nil {
		return nil, err
	}
	p.TotalAreaFixed = normalize.NormalizeArea(p.TotalArea, s.format)
	if p.FloorArea != "" {
		p.FloorAreaFixed = normalize.NormalizeArea(p.FloorArea, s.format)
	}
	p.ID = identity.Fingerprint(p)
	return p, nil
}

// Ingest builds every listing of the batch and saves the valid ones.
// Construction failures are returned in Rejected and do not fail the batch.
func (s *ListingService) Ingest(ctx context.Context, batch []models.Fields) (*IngestResult, error) {
	result := &IngestResult{}
	records := make([]*models.PropertyRecord, 0, len(batch))
	seen := make(map[string]bool, len(batch))

	for _, fields := range batch {
		p, err := s.Build(fields)
		if err != nil {
			result.Rejected = append(result.Rejected, err)
			continue
		}
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		records = append(records, p)
	}

	saved, err := s.store.SaveListings(ctx, records)
	if err != nil {
		return result, err
	}
	result.Saved = saved
	return result, nil
}
