package services

import (
	"sort"

	"inmo_dedup/textvec"
)

// NeighborhoodService compares free-text locations across listings.
type NeighborhoodService struct {
	vectorizer *textvec.Vectorizer
}

func NewNeighborhoodService(stopWords []string, foldAccents bool) *NeighborhoodService {
	return &NeighborhoodService{
		vectorizer: &textvec.Vectorizer{StopWords: stopWords, FoldAccents: foldAccents},
	}
}

// SimilarPair links a[A] to b[B].
type SimilarPair struct {
	A     int
	B     int
	TextA string
	TextB string
	Score float64
}

// Similar fits one vocabulary over both sets and returns every cross pair
// scoring at least threshold, best first.
func (s *NeighborhoodService) Similar(a, b []string, threshold float64) ([]SimilarPair, error) {
	if len(a) == 0 || len(b) == 0 {
		return nil, nil
	}

	all := make([]string, 0, len(a)+len(b))
	all = append(all, a...)
	all = append(all, b...)

	model, err := s.vectorizer.Fit(all)
	if err != nil {
		return nil, err
	}
	m := model.Transform(all)
	left := &textvec.SparseMatrix{Rows: m.Rows[:len(a)], Cols: m.Cols, Vocabulary: m.Vocabulary}
	right := &textvec.SparseMatrix{Rows: m.Rows[len(a):], Cols: m.Cols, Vocabulary: m.Vocabulary}

	scores, err := textvec.PairwiseSimilarity(left, right)
	if err != nil {
		return nil, err
	}

	var pairs []SimilarPair
	for i, row := range scores {
		for j, score := range row {
			if score >= threshold {
				pairs = append(pairs, SimilarPair{A: i, B: j, TextA: a[i], TextB: b[j], Score: score})
			}
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].Score > pairs[j].Score })
	return pairs, nil
}
