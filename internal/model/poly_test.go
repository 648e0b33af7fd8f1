package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPolynomialFeatures_TermOrder(t *testing.T) {
	p := NewPolynomialFeatures(2, 2)

	assert.Equal(t, [][]int{{1, 0}, {0, 1}, {2, 0}, {1, 1}, {0, 2}}, p.Powers)
	assert.Equal(t, []string{"a", "b", "a^2", "a b", "b^2"}, p.TermNames([]string{"a", "b"}))
}

func TestNewPolynomialFeatures_SixInputs(t *testing.T) {
	p := NewPolynomialFeatures(6, 2)

	// 6 linear terms + 21 squares and pairwise products.
	assert.Equal(t, 27, p.OutputSize())
	require.NoError(t, p.validate())
}

func TestPolynomialFeatures_Transform(t *testing.T) {
	p := NewPolynomialFeatures(3, 2)

	out, err := p.Transform([]float64{2, 3, -1})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3, -1, 4, 6, -2, 9, -3, 1}, out)
}

func TestPolynomialFeatures_TransformWrongWidth(t *testing.T) {
	p := NewPolynomialFeatures(3, 2)

	_, err := p.Transform([]float64{1, 2})
	assert.Error(t, err)
}

func TestPolynomialFeatures_ValidateRejectsBadExponents(t *testing.T) {
	p := NewPolynomialFeatures(2, 2)
	p.Powers[4] = []int{2, 1}

	assert.Error(t, p.validate())
}
