package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"inmo_dedup/models"
)

// Store persists listings, scrape runs and detected matches.
type Store interface {
	SaveListings(ctx context.Context, listings []*models.PropertyRecord) (int, error)
	ListListings(ctx context.Context, filter ListingFilter) ([]*models.PropertyRecord, error)
	CreateRun(ctx context.Context, run *models.ScrapeRun) error
	FinishRun(ctx context.Context, run *models.ScrapeRun) error
	Log(ctx context.Context, entry *models.ScrapeLog) error
	InsertMatches(ctx context.Context, matches []models.PropertyMatch) (int, error)
	ListMatches(ctx context.Context, status string) ([]models.PropertyMatch, error)
	Close() error
}

// ListingFilter narrows ListListings. Zero fields match everything.
type ListingFilter struct {
	Category models.Category
	SiteID   string
	Since    time.Time
}

var listingColumns = []string{
	"id", "ref_id", "neighborhood", "district", "province", "currency", "amount", "price",
	"url", "description", "property_type", "agency", "source_web", "recent_id", "scraped_at",
	"total_area", "total_area_fixed", "floor_area", "floor_area_fixed",
	"bedrooms", "bathrooms", "garage", "has_gas", "has_water", "has_electricity",
}

func listingArgs(p *models.PropertyRecord) []any {
	return []any{
		p.ID, p.RefID, p.Neighborhood, p.District, p.Province, p.Currency, p.Amount, p.Price,
		p.URL, p.Description, string(p.Category), p.Agency, p.SourceWeb, p.RecentID, p.ScrapedAt,
		p.TotalArea, p.TotalAreaFixed, p.FloorArea, p.FloorAreaFixed,
		p.Bedrooms, p.Bathrooms, p.Garage, p.HasGas, p.HasWater, p.HasElectricity,
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanListing(row scanner) (*models.PropertyRecord, error) {
	var p models.PropertyRecord
	var category string
	err := row.Scan(
		&p.ID, &p.RefID, &p.Neighborhood, &p.District, &p.Province, &p.Currency, &p.Amount, &p.Price,
		&p.URL, &p.Description, &category, &p.Agency, &p.SourceWeb, &p.RecentID, &p.ScrapedAt,
		&p.TotalArea, &p.TotalAreaFixed, &p.FloorArea, &p.FloorAreaFixed,
		&p.Bedrooms, &p.Bathrooms, &p.Garage, &p.HasGas, &p.HasWater, &p.HasElectricity,
	)
	if err != nil {
		return nil, err
	}
	p.Category = models.Category(category)
	return &p, nil
}

// placeholder renders the n-th (1-based) bind parameter.
type placeholder func(n int) string

func questionMark(int) string { return "?" }
func dollar(n int) string { return fmt.Sprintf("$%d", n) }

func upsertListingSQL(ph placeholder) string {
	params := make([]string, len(listingColumns))
	var updates []string
	for i, col := range listingColumns {
		params[i] = ph(i + 1)
		if col != "id" {
			updates = append(updates, col+" = EXCLUDED."+col)
		}
	}
	return "INSERT INTO listings (" + strings.Join(listingColumns, ", ") + ") VALUES (" +
		strings.Join(params, ", ") + ") ON CONFLICT (id) DO UPDATE SET " + strings.Join(updates, ", ")
}

func selectListingsSQL(filter ListingFilter, ph placeholder) (string, []any) {
	query := "SELECT " + strings.Join(listingColumns, ", ") + " FROM listings"
	var where []string
	var args []any
	if filter.Category != "" {
		args = append(args, string(filter.Category))
		where = append(where, "property_type = "+ph(len(args)))
	}
	if filter.SiteID != "" {
		args = append(args, filter.SiteID)
		where = append(where, "source_web = "+ph(len(args)))
	}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since)
		where = append(where, "scraped_at >= "+ph(len(args)))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	return query + " ORDER BY id", args
}

const matchColumns = "id, listing_a, listing_b, property_type, match_reasons, status, created_at"

func scanMatch(row scanner) (models.PropertyMatch, error) {
	var m models.PropertyMatch
	var category string
	var reasons []byte
	if err := row.Scan(&m.ID, &m.ListingA, &m.ListingB, &category, &reasons, &m.Status, &m.CreatedAt); err != nil {
		return m, err
	}
	m.Category = models.Category(category)
	m.MatchReasons = reasons
	return m, nil
}
