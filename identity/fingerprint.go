package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"inmo_dedup/models"
)

var (
	districtReplacements = map[string]string{
		"gral": "general",
		"pte":  "presidente",
		"sta":  "santa",
		"sto":  "santo",
		"ciud": "ciudad",
		"cdad": "ciudad",
		"dpto": "departamento",
	}
	multiSpaceRegex = regexp.MustCompile(`\s+`)
	nonAlnumRegex   = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
)

// Fingerprint is the stable id of a listing: one per source listing, whatever
// the scrape date.
func Fingerprint(p *models.PropertyRecord) string {
	input := fmt.Sprintf("%s|%s|%s",
		strings.ToLower(p.SourceWeb),
		p.RecentID,
		p.URL,
	)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:16])
}

// NormalizeDistrict lowercases, drops punctuation and expands the common
// abbreviations so spelling variants of a district share a block.
func NormalizeDistrict(district string) string {
	d := strings.ToLower(strings.TrimSpace(district))
	d = nonAlnumRegex.ReplaceAllString(d, " ")
	words := strings.Fields(d)
	for i, w := range words {
		if full, ok := districtReplacements[w]; ok {
			words[i] = full
		}
	}
	d = strings.Join(words, " ")
	return strings.TrimSpace(multiSpaceRegex.ReplaceAllString(d, " "))
}

// BlockKey groups listings that could possibly be duplicates: the decision
// rules require the same category and district, so pairs across blocks are
// never compared.
func BlockKey(p *models.PropertyRecord) string {
	return string(p.Category) + "|" + NormalizeDistrict(p.District)
}
