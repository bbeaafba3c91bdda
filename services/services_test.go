package services

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"inmo_dedup/models"
	"inmo_dedup/storage"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "services.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func fp(v float64) *float64 { return &v }

func apartment(id, district string, total, floor, amount float64) *models.PropertyRecord {
	return &models.PropertyRecord{
		ID:             id,
		District:       district,
		Category:       models.CategoryApartment,
		SourceWeb:      "inmoclick",
		RecentID:       id,
		URL:            "https://www.inmoclick.com.ar/inmueble/" + id,
		Price:          "U$S",
		Amount:         fp(amount),
		TotalArea:      "x",
		TotalAreaFixed: fp(total),
		FloorArea:      "x",
		FloorAreaFixed: fp(floor),
		Bedrooms:       "2",
		Bathrooms:      "1",
	}
}
