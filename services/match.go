package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"inmo_dedup/dedup"
	"inmo_dedup/identity"
	"inmo_dedup/models"
	"inmo_dedup/normalize"
	"inmo_dedup/storage"
)

// MatchService finds duplicate listings and records them as matches.
type MatchService struct {
	store   storage.Store
	engine  *dedup.Engine
	format  normalize.NumberFormat
	workers int
}

func NewMatchService(store storage.Store, engine *dedup.Engine, format normalize.NumberFormat, workers int) *MatchService {
	if workers < 1 {
		workers = 1
	}
	return &MatchService{store: store, engine: engine, format: format, workers: workers}
}

// PairError is a comparison the engine refused.
type PairError struct {
	ListingA string
	ListingB string
	Err      error
}

func (e PairError) Error() string {
	return fmt.Sprintf("%s/%s: %v", e.ListingA, e.ListingB, e.Err)
}

func (e PairError) Unwrap() error {
	return e.Err
}

// MatchResult contains the outcome of a deduplication pass
type MatchResult struct {
	Matches  []models.PropertyMatch
	Compared int
	Errors   []PairError
	Inserted int
}

// FindDuplicates compares every pair that shares a block key. Two listings
// with equal districts always share a block, so blocking never hides a pair
// the engine would accept. Blocks run concurrently; a failing pair is
// recorded and the pass continues.
func (s *MatchService) FindDuplicates(ctx context.Context, records []*models.PropertyRecord) (*MatchResult, error) {
	blocks := make(map[string][]*models.PropertyRecord)
	for _, r := range records {
		key := identity.BlockKey(r)
		blocks[key] = append(blocks[key], r)
	}

	keys := make([]string, 0, len(blocks))
	for k, b := range blocks {
		if len(b) > 1 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var mu sync.Mutex
	result := &MatchResult{}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, key := range keys {
		block := blocks[key]
		g.Go(func() error {
			local := s.compareBlock(ctx, block)
			mu.Lock()
			result.Matches = append(result.Matches, local.Matches...)
			result.Errors = append(result.Errors, local.Errors...)
			result.Compared += local.Compared
			mu.Unlock()
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(result.Matches, func(i, j int) bool {
		a, b := result.Matches[i], result.Matches[j]
		if a.ListingA != b.ListingA {
			return a.ListingA < b.ListingA
		}
		return a.ListingB < b.ListingB
	})
	sort.Slice(result.Errors, func(i, j int) bool {
		a, b := result.Errors[i], result.Errors[j]
		if a.ListingA != b.ListingA {
			return a.ListingA < b.ListingA
		}
		return a.ListingB < b.ListingB
	})

	return result, nil
}

func (s *MatchService) compareBlock(ctx context.Context, block []*models.PropertyRecord) *MatchResult {
	local := &MatchResult{}
	for i := 0; i < len(block); i++ {
		if ctx.Err() != nil {
			return local
		}
		for j := i + 1; j < len(block); j++ {
			a, b := block[i], block[j]
			local.Compared++
			d, err := s.engine.Compare(a, b)
			if err != nil {
				local.Errors = append(local.Errors, PairError{ListingA: listingID(a), ListingB: listingID(b), Err: err})
				continue
			}
			if d.Duplicate {
				local.Matches = append(local.Matches, models.NewPropertyMatch(listingID(a), listingID(b), a.Category, d.Matched))
			}
		}
	}
	return local
}

func listingID(p *models.PropertyRecord) string {
	if p.ID != "" {
		return p.ID
	}
	return identity.Fingerprint(p)
}

// Run loads listings, cleans their areas, finds duplicates and stores the new
// matches.
func (s *MatchService) Run(ctx context.Context, filter storage.ListingFilter) (*MatchResult, error) {
	log := zap.L().With(zap.String("component", "services.match"))

	listings, err := s.store.ListListings(ctx, filter)
	if err != nil {
		return nil, err
	}
	cleaned := normalize.CleanAreas(listings, s.format)
	log.Info("comparing listings", zap.Int("loaded", len(listings)), zap.Int("comparable", len(cleaned)))

	result, err := s.FindDuplicates(ctx, cleaned)
	if err != nil {
		return nil, err
	}
	for _, pe := range result.Errors {
		log.Warn("pair skipped", zap.String("listing_a", pe.ListingA), zap.String("listing_b", pe.ListingB), zap.Error(pe.Err))
	}

	inserted, err := s.store.InsertMatches(ctx, result.Matches)
	if err != nil {
		return nil, err
	}
	result.Inserted = inserted

	log.Info("deduplication finished",
		zap.Int("compared", result.Compared),
		zap.Int("matches", len(result.Matches)),
		zap.Int("new_matches", inserted),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}
