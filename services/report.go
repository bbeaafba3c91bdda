package services

import (
	"context"
	"math"

	"inmo_dedup/bucket"
	"inmo_dedup/models"
	"inmo_dedup/normalize"
	"inmo_dedup/storage"
)

// ReportService summarizes stored listings.
type ReportService struct {
	store  storage.Store
	format normalize.NumberFormat
}

func NewReportService(store storage.Store, format normalize.NumberFormat) *ReportService {
	return &ReportService{store: store, format: format}
}

// BandReport counts listings per range. Listings without a value are counted
// in Missing.
type BandReport struct {
	Labels     []string
	Counts     map[string]int
	ByCategory map[models.Category]map[string]int
	Missing    int
}

// PriceBands groups records by amount.
func (s *ReportService) PriceBands(records []*models.PropertyRecord, limits []float64) (*BandReport, error) {
	return bands(records, limits, func(p *models.PropertyRecord) *float64 { return p.Amount })
}

// AreaBands groups records by parsed total area.
func (s *ReportService) AreaBands(records []*models.PropertyRecord, limits []float64) (*BandReport, error) {
	return bands(normalize.CleanTotalArea(records, s.format), limits,
		func(p *models.PropertyRecord) *float64 { return p.TotalAreaFixed })
}

// Load reads the listings a report runs over.
func (s *ReportService) Load(ctx context.Context, filter storage.ListingFilter) ([]*models.PropertyRecord, error) {
	return s.store.ListListings(ctx, filter)
}

func bands(records []*models.PropertyRecord, limits []float64, value func(*models.PropertyRecord) *float64) (*BandReport, error) {
	values := make([]float64, len(records))
	for i, p := range records {
		if v := value(p); v != nil {
			values[i] = *v
		} else {
			values[i] = math.NaN()
		}
	}

	if err := bucket.ValidateLimits(limits); err != nil {
		return nil, err
	}
	labels := bucket.Labels(limits)

	report := &BandReport{
		Labels:     labels,
		Counts:     make(map[string]int, len(labels)),
		ByCategory: make(map[models.Category]map[string]int),
	}
	for i, v := range values {
		idx := bucket.Index(v, limits)
		if idx < 0 {
			report.Missing++
			continue
		}
		label := labels[idx]
		report.Counts[label]++

		cat := records[i].Category
		if report.ByCategory[cat] == nil {
			report.ByCategory[cat] = make(map[string]int)
		}
		report.ByCategory[cat][label]++
	}
	return report, nil
}
