package textvec

import (
	"math"
	"sort"
)

// SparseVector holds the non-zero entries of one row, indices ascending.
type SparseVector struct {
	Indices []int
	Values  []float64
}

func newSparseVector(weights map[int]float64) SparseVector {
	v := SparseVector{
		Indices: make([]int, 0, len(weights)),
		Values:  make([]float64, 0, len(weights)),
	}
	for idx := range weights {
		v.Indices = append(v.Indices, idx)
	}
	sort.Ints(v.Indices)
	for _, idx := range v.Indices {
		v.Values = append(v.Values, weights[idx])
	}
	return v
}

// Dot walks both index lists once.
func (v SparseVector) Dot(o SparseVector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.Indices) && j < len(o.Indices) {
		switch {
		case v.Indices[i] == o.Indices[j]:
			sum += v.Values[i] * o.Values[j]
			i++
			j++
		case v.Indices[i] < o.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

func (v SparseVector) Norm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// At returns the weight at column idx.
func (v SparseVector) At(idx int) float64 {
	i := sort.SearchInts(v.Indices, idx)
	if i < len(v.Indices) && v.Indices[i] == idx {
		return v.Values[i]
	}
	return 0
}

// SparseMatrix is a row-major sparse matrix; row i is the vector of input i.
type SparseMatrix struct {
	Rows []SparseVector
	Cols int
	// Vocabulary names each column.
	Vocabulary []string
}

func (m *SparseMatrix) Shape() (rows, cols int) {
	return len(m.Rows), m.Cols
}

func (m *SparseMatrix) At(i, j int) float64 {
	return m.Rows[i].At(j)
}

// Dense expands the matrix; meant for small inputs and tests.
func (m *SparseMatrix) Dense() [][]float64 {
	out := make([][]float64, len(m.Rows))
	for i, row := range m.Rows {
		out[i] = make([]float64, m.Cols)
		for k, idx := range row.Indices {
			out[i][idx] = row.Values[k]
		}
	}
	return out
}
