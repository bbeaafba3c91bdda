package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"inmo_dedup/config"
	"inmo_dedup/services"
	"inmo_dedup/storage"
)

// Scraper runs one scrape over every configured site.
type Scraper interface {
	RunAll(ctx context.Context) error
}

// Deduplicator runs one matching pass over stored listings.
type Deduplicator interface {
	Run(ctx context.Context, filter storage.ListingFilter) (*services.MatchResult, error)
}

// Scheduler runs scrape-then-dedup cycles on a cron expression or a fixed
// interval. Cycles never overlap; a tick that arrives while one is running
// is skipped.
type Scheduler struct {
	cfg     config.SchedulerConfig
	scraper Scraper
	dedup   Deduplicator
	cron    *cron.Cron
	ticker  *time.Ticker
	stopCh  chan struct{}
	stop    sync.Once
	running atomic.Bool
	cycles  atomic.Int64
}

func New(cfg config.SchedulerConfig, scraper Scraper, dedup Deduplicator) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		scraper: scraper,
		dedup:   dedup,
		cron:    cron.New(),
		stopCh:  make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	log := zap.L().With(zap.String("component", "scheduler"))

	if s.cfg.Cron != "" {
		log.Info("starting scheduler", zap.String("cron", s.cfg.Cron))
		_, err := s.cron.AddFunc(s.cfg.Cron, func() {
			s.tick(ctx)
		})
		if err != nil {
			return eris.Wrapf(err, "scheduler: invalid cron expression %q", s.cfg.Cron)
		}
		s.cron.Start()
	} else if s.cfg.Interval > 0 {
		log.Info("starting scheduler", zap.Duration("interval", s.cfg.Interval))
		s.ticker = time.NewTicker(s.cfg.Interval)
		go func() {
			for {
				select {
				case <-s.ticker.C:
					s.tick(ctx)
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	} else {
		return eris.New("scheduler: neither SCRAPE_CRON nor SCRAPE_INTERVAL is set")
	}

	return nil
}

func (s *Scheduler) Stop() {
	s.stop.Do(func() {
		<-s.cron.Stop().Done()
		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
	})
}

// Cycles reports how many cycles have completed.
func (s *Scheduler) Cycles() int64 {
	return s.cycles.Load()
}

func (s *Scheduler) tick(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		zap.L().Warn("previous cycle still running, skipping tick")
		return
	}
	defer s.running.Store(false)

	if err := s.RunCycle(ctx); err != nil {
		zap.L().Error("scheduled cycle failed", zap.Error(err))
	}
}

// RunCycle scrapes every site and then looks for duplicates across all
// stored listings.
func (s *Scheduler) RunCycle(ctx context.Context) error {
	defer s.cycles.Add(1)
	start := time.Now()

	if err := s.scraper.RunAll(ctx); err != nil {
		return eris.Wrap(err, "scheduler: scrape")
	}

	result, err := s.dedup.Run(ctx, storage.ListingFilter{})
	if err != nil {
		return eris.Wrap(err, "scheduler: dedup")
	}

	zap.L().Info("cycle complete",
		zap.Duration("took", time.Since(start)),
		zap.Int("matches", len(result.Matches)),
		zap.Int("new_matches", result.Inserted),
	)
	return nil
}
