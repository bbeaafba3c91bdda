package textvec

import (
	"github.com/rotisserie/eris"
)

// Cosine is the cosine similarity of two rows; zero vectors score 0.
func Cosine(a, b SparseVector) float64 {
	na, nb := a.Norm(), b.Norm()
	if na == 0 || nb == 0 {
		return 0
	}
	return a.Dot(b) / (na * nb)
}

// PairwiseSimilarity compares every row of a with every row of b. Cell
// [i][j] is the cosine similarity of a's row i and b's row j. Scores are
// returned raw; thresholding is up to the caller.
func PairwiseSimilarity(a, b *SparseMatrix) ([][]float64, error) {
	if a.Cols != b.Cols {
		return nil, eris.Errorf("textvec: column mismatch %d != %d", a.Cols, b.Cols)
	}

	normsB := make([]float64, len(b.Rows))
	for j, row := range b.Rows {
		normsB[j] = row.Norm()
	}

	out := make([][]float64, len(a.Rows))
	for i, ra := range a.Rows {
		out[i] = make([]float64, len(b.Rows))
		na := ra.Norm()
		if na == 0 {
			continue
		}
		for j, rb := range b.Rows {
			if normsB[j] == 0 {
				continue
			}
			out[i][j] = ra.Dot(rb) / (na * normsB[j])
		}
	}
	return out, nil
}
