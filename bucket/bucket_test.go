package bucket

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketize(t *testing.T) {
	values := []float64{50, 100, 150, 200, 250}
	got, labels, err := Bucketize(values, []float64{100, 200})
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 0, 100, 100, 200}, got)
	assert.Equal(t, []string{"0..100", "100..200", "200.."}, labels)
	assert.Equal(t, []float64{50, 100, 150, 200, 250}, values)
}

func TestBucketize_SingleLimit(t *testing.T) {
	got, labels, err := Bucketize([]float64{10, 75, 76}, []float64{75})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 75}, got)
	assert.Equal(t, []string{"0..75", "75.."}, labels)
}

func TestBucketize_ManyLimits(t *testing.T) {
	got, labels, err := Bucketize([]float64{42, 151, 300, 301}, []float64{50, 150, 300})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 150, 150, 300}, got)
	assert.Equal(t, []string{"0..50", "50..150", "150..300", "300.."}, labels)
}

func TestBucketize_NaNUnassigned(t *testing.T) {
	got, _, err := Bucketize([]float64{math.NaN(), 5}, []float64{10})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got[0]))
	assert.Equal(t, 0.0, got[1])
}

func TestBucketize_InvalidLimits(t *testing.T) {
	_, _, err := Bucketize([]float64{1}, nil)
	assert.True(t, errors.Is(err, ErrInvalidLimits))

	_, _, err = Bucketize([]float64{1}, []float64{200, 100})
	assert.True(t, errors.Is(err, ErrInvalidLimits))
}

func TestLabel(t *testing.T) {
	limits := []float64{50000, 100000.5}
	assert.Equal(t, "0..50000", Label(0, limits))
	assert.Equal(t, "50000..100000.5", Label(50000, limits))
	assert.Equal(t, "100000.5..", Label(100000.5, limits))
	assert.Equal(t, "", Label(7, limits))
}

func TestIndex(t *testing.T) {
	limits := []float64{0, 100}
	assert.Equal(t, 0, Index(0, limits))
	assert.Equal(t, 1, Index(50, limits))
	assert.Equal(t, 1, Index(100, limits))
	assert.Equal(t, 2, Index(101, limits))
	assert.Equal(t, -1, Index(math.NaN(), limits))

	assert.Equal(t, "0..100", Labels(limits)[Index(50, limits)])
}
