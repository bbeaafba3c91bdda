package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"inmo_dedup/models"
)

func TestFingerprint_StableAcrossScrapes(t *testing.T) {
	a := &models.PropertyRecord{SourceWeb: "inmoclick", RecentID: "123", URL: "https://x/123", Price: "U$S 1"}
	b := &models.PropertyRecord{SourceWeb: "INMOCLICK", RecentID: "123", URL: "https://x/123", Price: "U$S 2"}

	assert.Equal(t, Fingerprint(a), Fingerprint(b))
	assert.Len(t, Fingerprint(a), 32)
}

func TestFingerprint_DiffersPerListing(t *testing.T) {
	a := &models.PropertyRecord{SourceWeb: "inmoclick", RecentID: "123", URL: "https://x/123"}
	b := &models.PropertyRecord{SourceWeb: "inmoclick", RecentID: "124", URL: "https://x/124"}
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
}

func TestNormalizeDistrict(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Godoy Cruz", "godoy cruz"},
		{"  GODOY   CRUZ. ", "godoy cruz"},
		{"Gral. San Martín", "general san martín"},
		{"Luján de Cuyo", "luján de cuyo"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeDistrict(tt.in), tt.in)
	}
}

func TestBlockKey(t *testing.T) {
	a := &models.PropertyRecord{Category: models.CategoryHouse, District: "Godoy Cruz"}
	b := &models.PropertyRecord{Category: models.CategoryHouse, District: "GODOY CRUZ"}
	c := &models.PropertyRecord{Category: models.CategoryLand, District: "Godoy Cruz"}

	assert.Equal(t, BlockKey(a), BlockKey(b))
	assert.NotEqual(t, BlockKey(a), BlockKey(c))
	assert.Equal(t, "house|godoy cruz", BlockKey(a))
}
