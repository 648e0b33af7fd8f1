package model

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/couchcryptid/soil-temp-model/internal/domain"
)

// fitOLS fits y ≈ intercept + X·coef by ordinary least squares. Columns are
// centred and scaled to unit variance before a QR solve, and the solution is
// mapped back to the raw scale. Degenerate inputs wrap domain.ErrTraining.
func fitOLS(x [][]float64, y []float64) (float64, []float64, error) {
	n := len(x)
	if n == 0 {
		return 0, nil, fmt.Errorf("no training rows: %w", domain.ErrTraining)
	}
	p := len(x[0])
	if n < p+1 {
		return 0, nil, fmt.Errorf("%d training rows for %d terms plus intercept: %w", n, p, domain.ErrTraining)
	}

	means := make([]float64, p)
	for _, row := range x {
		for j, v := range row {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= float64(n)
	}
	scales := make([]float64, p)
	for _, row := range x {
		for j, v := range row {
			d := v - means[j]
			scales[j] += d * d
		}
	}
	for j := range scales {
		scales[j] = math.Sqrt(scales[j] / float64(n))
		if scales[j] == 0 || math.IsNaN(scales[j]) {
			return 0, nil, fmt.Errorf("term %d has zero variance: %w", j, domain.ErrTraining)
		}
	}

	yMean := 0.0
	for _, v := range y {
		yMean += v
	}
	yMean /= float64(n)
	yVar := 0.0
	for _, v := range y {
		yVar += (v - yMean) * (v - yMean)
	}
	if yVar == 0 {
		return 0, nil, fmt.Errorf("target has zero variance: %w", domain.ErrTraining)
	}

	a := mat.NewDense(n, p, nil)
	b := mat.NewVecDense(n, nil)
	for i, row := range x {
		for j, v := range row {
			a.Set(i, j, (v-means[j])/scales[j])
		}
		b.SetVec(i, y[i]-yMean)
	}

	var qr mat.QR
	qr.Factorize(a)
	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, b); err != nil {
		var cond mat.Condition
		if errors.As(err, &cond) {
			return 0, nil, fmt.Errorf("singular design matrix (condition %g): %w", float64(cond), domain.ErrTraining)
		}
		return 0, nil, fmt.Errorf("least squares solve: %w: %w", domain.ErrTraining, err)
	}

	coef := make([]float64, p)
	intercept := yMean
	for j := range coef {
		coef[j] = beta.AtVec(j) / scales[j]
		intercept -= coef[j] * means[j]
		if math.IsNaN(coef[j]) || math.IsInf(coef[j], 0) {
			return 0, nil, fmt.Errorf("non-finite coefficient for term %d: %w", j, domain.ErrTraining)
		}
	}
	if math.IsNaN(intercept) || math.IsInf(intercept, 0) {
		return 0, nil, fmt.Errorf("non-finite intercept: %w", domain.ErrTraining)
	}
	return intercept, coef, nil
}
