package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"inmo_dedup/config"
	"inmo_dedup/services"
	"inmo_dedup/storage"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type recorder struct {
	mu        sync.Mutex
	calls     []string
	scrapeErr error
}

func (r *recorder) RunAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "scrape")
	return r.scrapeErr
}

func (r *recorder) Run(ctx context.Context, filter storage.ListingFilter) (*services.MatchResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "dedup")
	return &services.MatchResult{}, nil
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func TestRunCycle_ScrapeThenDedup(t *testing.T) {
	r := &recorder{}
	s := New(config.SchedulerConfig{}, r, r)

	require.NoError(t, s.RunCycle(context.Background()))
	assert.Equal(t, []string{"scrape", "dedup"}, r.snapshot())
	assert.Equal(t, int64(1), s.Cycles())
}

func TestRunCycle_ScrapeFailureSkipsDedup(t *testing.T) {
	r := &recorder{scrapeErr: errors.New("canceled")}
	s := New(config.SchedulerConfig{}, r, r)

	require.Error(t, s.RunCycle(context.Background()))
	assert.Equal(t, []string{"scrape"}, r.snapshot())
}

func TestStart_Interval(t *testing.T) {
	r := &recorder{}
	s := New(config.SchedulerConfig{Interval: 10 * time.Millisecond}, r, r)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))
	defer s.Stop()

	assert.Eventually(t, func() bool { return s.Cycles() >= 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestStart_InvalidCron(t *testing.T) {
	r := &recorder{}
	s := New(config.SchedulerConfig{Cron: "every tuesday"}, r, r)

	assert.Error(t, s.Start(context.Background()))
}

func TestStart_NoSchedule(t *testing.T) {
	r := &recorder{}
	s := New(config.SchedulerConfig{}, r, r)

	assert.Error(t, s.Start(context.Background()))
}

func TestStop_Idempotent(t *testing.T) {
	r := &recorder{}
	s := New(config.SchedulerConfig{Cron: "@every 1h"}, r, r)
	require.NoError(t, s.Start(context.Background()))

	s.Stop()
	s.Stop()
}
