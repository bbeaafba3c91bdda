package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"inmo_dedup/config"
	"inmo_dedup/models"
	"inmo_dedup/normalize"
	"inmo_dedup/services"
	"inmo_dedup/storage"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func portal(t *testing.T) *httptest.Server {
	t.Helper()
	land, err := os.ReadFile("testdata/search_land.html")
	require.NoError(t, err)
	house, err := os.ReadFile("testdata/search_house.html")
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/terrenos-en-venta", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "3" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write(land)
	})
	mux.HandleFunc("/casas-en-venta", func(w http.ResponseWriter, r *http.Request) {
		w.Write(house)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestOrchestrator(t *testing.T, baseURL string) (*Orchestrator, *storage.SQLiteStore, string) {
	t.Helper()
	dir := t.TempDir()

	store, err := storage.NewSQLiteStore(filepath.Join(dir, "scrape.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	archiveDir := filepath.Join(dir, "soups")
	archive, err := storage.NewFileArchive(archiveDir)
	require.NoError(t, err)

	cfg := &config.Config{
		Format: normalize.SpanishFormat,
		Sites: map[string]*config.SiteConfig{
			"inmoclick": {
				ID:        "inmoclick",
				Name:      "Inmoclick",
				Handler:   "inmoclick",
				BaseURL:   baseURL,
				PageParam: "page",
				Searches: map[string]string{
					"land":  "/terrenos-en-venta?provincias=1",
					"house": "/casas-en-venta?provincias=1",
					"barn":  "/galpones",
				},
			},
		},
	}

	listings := services.NewListingService(store, cfg.Format)
	o, err := NewOrchestrator(cfg, store, archive, NewFetcher(http.DefaultClient, "inmo-test"), listings)
	require.NoError(t, err)
	return o, store, archiveDir
}

func TestOrchestrator_RunSite(t *testing.T) {
	srv := portal(t)
	o, store, archiveDir := newTestOrchestrator(t, srv.URL)
	ctx := context.Background()

	run, err := o.RunSite(ctx, "inmoclick")
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.NotNil(t, run.FinishedAt)
	assert.Equal(t, 3, run.PagesFetched)
	assert.Equal(t, 7, run.ListingsFound)
	assert.Equal(t, 5, run.ListingsSaved)
	// one listing without district per land page, plus the failing third page
	assert.Equal(t, 3, run.ErrorsCount)

	stored, err := store.ListListings(ctx, storage.ListingFilter{})
	require.NoError(t, err)
	assert.Len(t, stored, 3)

	land, err := store.ListListings(ctx, storage.ListingFilter{Category: models.CategoryLand})
	require.NoError(t, err)
	require.Len(t, land, 2)
	for _, l := range land {
		require.NotNil(t, l.TotalAreaFixed, l.RefID)
	}

	archived, err := os.ReadDir(archiveDir)
	require.NoError(t, err)
	assert.Len(t, archived, 3)
}

func TestOrchestrator_MaxPages(t *testing.T) {
	srv := portal(t)
	o, _, _ := newTestOrchestrator(t, srv.URL)
	o.cfg.Sites["inmoclick"].MaxPages = 1

	run, err := o.RunSite(context.Background(), "inmoclick")
	require.NoError(t, err)
	assert.Equal(t, 2, run.PagesFetched)
}

func TestOrchestrator_AllSearchesFail(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	o, _, _ := newTestOrchestrator(t, srv.URL)

	run, err := o.RunSite(context.Background(), "inmoclick")
	require.Error(t, err)
	assert.Equal(t, models.RunStatusFailed, run.Status)
}

func TestOrchestrator_UnknownSite(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, "https://www.inmoclick.com.ar")
	_, err := o.RunSite(context.Background(), "zonaprop")
	assert.Error(t, err)
}
