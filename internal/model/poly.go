package model

import (
	"fmt"
	"strings"
)

// PolynomialFeatures expands a feature vector with every monomial of total
// degree 1..Degree. There is no bias column; the regression fits its own
// intercept. Powers[k][i] is the exponent of input i in output term k.
type PolynomialFeatures struct {
	Degree int     `json:"degree"`
	Inputs int     `json:"inputs"`
	Powers [][]int `json:"powers"`
}

// NewPolynomialFeatures learns the term layout for nInputs inputs. Terms are
// ordered by degree, then lexicographically by input index: for degree 2 and
// inputs a, b that is a, b, a², a·b, b².
func NewPolynomialFeatures(nInputs, degree int) PolynomialFeatures {
	var powers [][]int
	for d := 1; d <= degree; d++ {
		combos(nInputs, d, 0, make([]int, 0, d), func(idx []int) {
			p := make([]int, nInputs)
			for _, i := range idx {
				p[i]++
			}
			powers = append(powers, p)
		})
	}
	return PolynomialFeatures{Degree: degree, Inputs: nInputs, Powers: powers}
}

// combos visits every non-decreasing index sequence of length k drawn from [start, n).
func combos(n, k, start int, cur []int, visit func([]int)) {
	if len(cur) == k {
		visit(cur)
		return
	}
	for i := start; i < n; i++ {
		combos(n, k, i, append(cur, i), visit)
	}
}

// OutputSize is the number of expanded terms.
func (p PolynomialFeatures) OutputSize() int {
	return len(p.Powers)
}

// Transform expands one input row. The row must have exactly Inputs values.
func (p PolynomialFeatures) Transform(x []float64) ([]float64, error) {
	if len(x) != p.Inputs {
		return nil, fmt.Errorf("polynomial expansion: got %d inputs, want %d", len(x), p.Inputs)
	}
	out := make([]float64, len(p.Powers))
	for k, powers := range p.Powers {
		v := 1.0
		for i, e := range powers {
			for ; e > 0; e-- {
				v *= x[i]
			}
		}
		out[k] = v
	}
	return out, nil
}

// TermNames renders each expanded term from the input names, e.g. "precip^2"
// or "avg_wind_dir Tlag_1".
func (p PolynomialFeatures) TermNames(inputs []string) []string {
	names := make([]string, len(p.Powers))
	for k, powers := range p.Powers {
		var parts []string
		for i, e := range powers {
			switch {
			case e == 1:
				parts = append(parts, inputs[i])
			case e > 1:
				parts = append(parts, fmt.Sprintf("%s^%d", inputs[i], e))
			}
		}
		names[k] = strings.Join(parts, " ")
	}
	return names
}

// validate checks that the stored layout is self-consistent.
func (p PolynomialFeatures) validate() error {
	if p.Degree < 1 || p.Inputs < 1 || len(p.Powers) == 0 {
		return fmt.Errorf("polynomial expansion: degree %d over %d inputs has no terms", p.Degree, p.Inputs)
	}
	for k, powers := range p.Powers {
		if len(powers) != p.Inputs {
			return fmt.Errorf("polynomial term %d: %d exponents, want %d", k, len(powers), p.Inputs)
		}
		total := 0
		for _, e := range powers {
			if e < 0 {
				return fmt.Errorf("polynomial term %d: negative exponent", k)
			}
			total += e
		}
		if total < 1 || total > p.Degree {
			return fmt.Errorf("polynomial term %d: degree %d outside 1..%d", k, total, p.Degree)
		}
	}
	return nil
}
