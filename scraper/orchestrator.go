package scraper

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"inmo_dedup/config"
	"inmo_dedup/models"
	"inmo_dedup/services"
	"inmo_dedup/storage"
)

type Orchestrator struct {
	cfg      *config.Config
	store    storage.Store
	archive  storage.PageArchive
	fetcher  *Fetcher
	listings *services.ListingService
	handlers map[string]Handler
}

func NewOrchestrator(
	cfg *config.Config,
	store storage.Store,
	archive storage.PageArchive,
	fetcher *Fetcher,
	listings *services.ListingService,
) (*Orchestrator, error) {
	handlers := make(map[string]Handler)
	for id, siteCfg := range cfg.Sites {
		handler, err := NewHandler(siteCfg, cfg.Format)
		if err != nil {
			return nil, err
		}
		handlers[id] = handler
	}

	return &Orchestrator{
		cfg:      cfg,
		store:    store,
		archive:  archive,
		fetcher:  fetcher,
		listings: listings,
		handlers: handlers,
	}, nil
}

// RunAll scrapes every configured site. A failing site is logged and does not
// stop the others.
func (o *Orchestrator) RunAll(ctx context.Context) error {
	for _, siteID := range o.SiteIDs() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := o.RunSite(ctx, siteID); err != nil {
			zap.L().Error("site scrape failed", zap.String("site", siteID), zap.Error(err))
		}
	}
	return nil
}

func (o *Orchestrator) RunSite(ctx context.Context, siteID string) (*models.ScrapeRun, error) {
	siteCfg, ok := o.cfg.Sites[siteID]
	if !ok {
		return nil, eris.Errorf("scraper: unknown site: %s", siteID)
	}

	handler, ok := o.handlers[siteID]
	if !ok {
		return nil, eris.Errorf("scraper: no handler for site: %s", siteID)
	}

	run := models.NewScrapeRun(siteID)
	if err := o.store.CreateRun(ctx, run); err != nil {
		return nil, err
	}

	o.log(ctx, run, models.LogLevelInfo, fmt.Sprintf("Starting scrape for %s", siteCfg.Name))

	failedSearches := 0
	searches := o.searches(ctx, run, siteCfg)
	for _, s := range searches {
		if err := o.scrapeSearch(ctx, run, siteCfg, handler, s.category, s.path); err != nil {
			o.log(ctx, run, models.LogLevelError, fmt.Sprintf("Search %s failed: %v", s.category, err))
			run.ErrorsCount++
			failedSearches++
		}
	}

	status := models.RunStatusCompleted
	if ctx.Err() != nil || (len(searches) > 0 && failedSearches == len(searches)) {
		status = models.RunStatusFailed
	}
	run.Finish(status)

	// The run record is closed even when the caller's context is gone.
	finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := o.store.FinishRun(finishCtx, run); err != nil {
		zap.L().Warn("failed to finish run", zap.Stringer("run_id", run.ID), zap.Error(err))
	}

	o.log(finishCtx, run, models.LogLevelInfo,
		fmt.Sprintf("Completed: %d pages, %d found, %d saved, %d errors",
			run.PagesFetched, run.ListingsFound, run.ListingsSaved, run.ErrorsCount))

	if status == models.RunStatusFailed {
		return run, eris.Errorf("scraper: run %s for %s failed", run.ID, siteID)
	}
	return run, nil
}

type search struct {
	category models.Category
	path     string
}

// searches returns the configured searches in category order.
func (o *Orchestrator) searches(ctx context.Context, run *models.ScrapeRun, siteCfg *config.SiteConfig) []search {
	var out []search
	for key, path := range siteCfg.Searches {
		category, err := models.ParseCategory(key)
		if err != nil {
			o.log(ctx, run, models.LogLevelWarn, fmt.Sprintf("Skipping search %q: %v", key, err))
			continue
		}
		out = append(out, search{category: category, path: path})
	}
	order := make(map[models.Category]int)
	for i, c := range models.Categories() {
		order[c] = i
	}
	sort.Slice(out, func(i, j int) bool { return order[out[i].category] < order[out[j].category] })
	return out
}

// scrapeSearch walks pages 1..max of one category search.
func (o *Orchestrator) scrapeSearch(
	ctx context.Context,
	run *models.ScrapeRun,
	siteCfg *config.SiteConfig,
	handler Handler,
	category models.Category,
	path string,
) error {
	first, err := o.fetchPage(ctx, run, siteCfg, handler, category, path, 1)
	if err != nil {
		return err
	}

	maxPage, err := first.MaxPageNumber()
	if err != nil {
		o.log(ctx, run, models.LogLevelWarn, fmt.Sprintf("%s: %v, reading first page only", category, err))
		maxPage = 1
	}
	if siteCfg.MaxPages > 0 && maxPage > siteCfg.MaxPages {
		maxPage = siteCfg.MaxPages
	}
	o.log(ctx, run, models.LogLevelInfo, fmt.Sprintf("%s: %d pages", category, maxPage))

	o.ingest(ctx, run, first)

	for n := 2; n <= maxPage; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, err := o.fetchPage(ctx, run, siteCfg, handler, category, path, n)
		if err != nil {
			o.log(ctx, run, models.LogLevelError, fmt.Sprintf("%s page %d: %v", category, n, err))
			run.ErrorsCount++
			continue
		}
		o.ingest(ctx, run, page)
	}

	return nil
}

func (o *Orchestrator) fetchPage(
	ctx context.Context,
	run *models.ScrapeRun,
	siteCfg *config.SiteConfig,
	handler Handler,
	category models.Category,
	path string,
	n int,
) (Page, error) {
	pageURL, err := PageURL(siteCfg.BaseURL, path, siteCfg.PageParam, n)
	if err != nil {
		return nil, err
	}

	body, err := o.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	run.PagesFetched++

	if o.archive != nil {
		name := fmt.Sprintf("%s_%s_%s_p%d", siteCfg.ID, category, run.StartedAt.Format("20060102T150405"), n)
		if _, err := o.archive.Save(ctx, name, body); err != nil {
			zap.L().Warn("failed to archive page", zap.String("page", name), zap.Error(err))
		}
	}

	return handler.Parse(bytes.NewReader(body), category)
}

func (o *Orchestrator) ingest(ctx context.Context, run *models.ScrapeRun, page Page) {
	batch := page.Listings()
	run.ListingsFound += len(batch)

	result, err := o.listings.Ingest(ctx, batch)
	if err != nil {
		o.log(ctx, run, models.LogLevelError, fmt.Sprintf("Saving listings: %v", err))
		run.ErrorsCount++
		return
	}

	for _, rejected := range result.Rejected {
		o.log(ctx, run, models.LogLevelWarn, rejected.Error())
	}
	run.ErrorsCount += len(result.Rejected)
	run.ListingsSaved += result.Saved
}

func (o *Orchestrator) log(ctx context.Context, run *models.ScrapeRun, level models.LogLevel, message string) {
	fields := []zap.Field{zap.String("site", run.SiteID), zap.Stringer("run_id", run.ID)}
	switch level {
	case models.LogLevelError:
		zap.L().Error(message, fields...)
	case models.LogLevelWarn:
		zap.L().Warn(message, fields...)
	default:
		zap.L().Info(message, fields...)
	}

	runID := run.ID
	entry := &models.ScrapeLog{
		RunID:     &runID,
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
		SiteID:    run.SiteID,
	}
	if err := o.store.Log(ctx, entry); err != nil {
		zap.L().Debug("failed to persist log", zap.Error(err))
	}
}

func (o *Orchestrator) SiteIDs() []string {
	var ids []string
	for id := range o.cfg.Sites {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
