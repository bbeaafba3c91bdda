// Package textvec vectorizes short free-text fields (neighborhood names,
// districts) with TF-IDF and compares them by cosine similarity.
package textvec

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var ErrEmptyVocabulary = eris.New("textvec: empty vocabulary")

var (
	nonWordRegex = regexp.MustCompile(`[^\p{L}\p{N}_]`)
	tokenRegex   = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)
)

// Vectorizer fits TF-IDF vocabularies. The zero value uses no stop words.
type Vectorizer struct {
	// StopWords are removed from the fitting corpus by plain substring
	// replacement, after lower-casing.
	StopWords []string
	// FoldAccents strips combining marks so "Maipú" and "Maipu" share a term.
	FoldAccents bool
}

// Vectorize fits over texts with the given stop words and returns one row per
// input text.
func Vectorize(texts []string, stopWords []string) (*SparseMatrix, error) {
	v := &Vectorizer{StopWords: stopWords}
	model, err := v.Fit(texts)
	if err != nil {
		return nil, err
	}
	return model.Transform(texts), nil
}

// Clean lower-cases text and turns every non-word rune into a space.
func (v *Vectorizer) Clean(text string) string {
	text = cases.Lower(language.Spanish).String(text)
	if v.FoldAccents {
		folded, _, err := transform.String(
			transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), text)
		if err == nil {
			text = folded
		}
	}
	return nonWordRegex.ReplaceAllString(text, " ")
}

func (v *Vectorizer) stripStopWords(doc string) string {
	for _, sw := range v.StopWords {
		if sw == "" {
			continue
		}
		doc = strings.ReplaceAll(doc, sw, " ")
	}
	return doc
}

// Fit learns the vocabulary and inverse document frequencies from the
// stop-word-stripped texts.
func (v *Vectorizer) Fit(texts []string) (*Model, error) {
	df := make(map[string]int)
	for _, text := range texts {
		doc := v.stripStopWords(v.Clean(text))
		seen := make(map[string]bool)
		for _, tok := range tokenize(doc) {
			if !seen[tok] {
				seen[tok] = true
				df[tok]++
			}
		}
	}
	if len(df) == 0 {
		return nil, ErrEmptyVocabulary
	}

	vocab := make([]string, 0, len(df))
	for tok := range df {
		vocab = append(vocab, tok)
	}
	sort.Strings(vocab)

	n := float64(len(texts))
	m := &Model{
		vectorizer: v,
		vocabulary: vocab,
		index:      make(map[string]int, len(vocab)),
		idf:        make([]float64, len(vocab)),
	}
	for i, tok := range vocab {
		m.index[tok] = i
		// smoothed idf: ln((1+n)/(1+df)) + 1
		m.idf[i] = math.Log((1+n)/(1+float64(df[tok]))) + 1
	}
	return m, nil
}

// Model is a fitted vocabulary. It is read-only after Fit.
type Model struct {
	vectorizer *Vectorizer
	vocabulary []string
	index      map[string]int
	idf        []float64
}

func (m *Model) Vocabulary() []string {
	return append([]string(nil), m.vocabulary...)
}

// Transform weights each cleaned text against the fitted vocabulary and
// L2-normalizes the row. Stop words are not stripped here; terms outside the
// vocabulary are ignored.
func (m *Model) Transform(texts []string) *SparseMatrix {
	out := &SparseMatrix{
		Rows:       make([]SparseVector, len(texts)),
		Cols:       len(m.vocabulary),
		Vocabulary: m.Vocabulary(),
	}
	for i, text := range texts {
		weights := make(map[int]float64)
		for _, tok := range tokenize(m.vectorizer.Clean(text)) {
			if idx, ok := m.index[tok]; ok {
				weights[idx]++
			}
		}

		var sumSq float64
		for idx, count := range weights {
			w := count * m.idf[idx]
			weights[idx] = w
			sumSq += w * w
		}
		if sumSq > 0 {
			length := math.Sqrt(sumSq)
			for idx := range weights {
				weights[idx] /= length
			}
		}
		out.Rows[i] = newSparseVector(weights)
	}
	return out
}

func tokenize(doc string) []string {
	return tokenRegex.FindAllString(doc, -1)
}
