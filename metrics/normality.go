// Package metrics measures how well a Gaussian rank transform worked:
// how close transformed features are to N(0, 1) and how exactly the
// inverse transform reconstructs the original data.
package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/gaussrank/pkg/errors"
)

// Normality summarizes how far a sample is from a standard normal.
// Infinite scores (extrapolated beyond the fitted range) are counted in
// Infinite and excluded from the moments.
type Normality struct {
	N          int     `json:"n"`
	Infinite   int     `json:"infinite"`
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"std_dev"`
	Skew       float64 `json:"skew"`
	ExKurtosis float64 `json:"ex_kurtosis"`
	// KS is the Kolmogorov-Smirnov distance to the N(0, 1) CDF.
	KS float64 `json:"ks"`
}

// NormalityOf computes the Normality of z. z is not modified.
func NormalityOf(z []float64) (Normality, error) {
	finite := make([]float64, 0, len(z))
	for _, v := range z {
		switch {
		case math.IsNaN(v):
			return Normality{}, errors.NewValidationError("z", "sample contains NaN", v)
		case math.IsInf(v, 0):
			continue
		}
		finite = append(finite, v)
	}
	if len(finite) == 0 {
		return Normality{}, errors.NewValueError("NormalityOf", "no finite values")
	}

	res := Normality{N: len(finite), Infinite: len(z) - len(finite)}
	res.Mean, res.StdDev = stat.MeanStdDev(finite, nil)
	if len(finite) > 2 && res.StdDev > 0 {
		res.Skew = stat.Skew(finite, nil)
		res.ExKurtosis = stat.ExKurtosis(finite, nil)
	}
	res.KS = ksDistance(finite, distuv.UnitNormal)
	return res, nil
}

// NormalityMatrix computes the Normality of every column of Z.
func NormalityMatrix(Z mat.Matrix) ([]Normality, error) {
	r, c := Z.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewValueError("NormalityMatrix", "empty matrix")
	}
	out := make([]Normality, c)
	for j := 0; j < c; j++ {
		n, err := NormalityOf(mat.Col(nil, j, Z))
		if err != nil {
			return nil, errors.Wrapf(err, "feature %d", j)
		}
		out[j] = n
	}
	return out, nil
}

// ksDistance is sup |F_n(x) - F(x)| for the empirical CDF F_n of x.
func ksDistance(x []float64, dist distuv.Normal) float64 {
	sorted := make([]float64, len(x))
	copy(sorted, x)
	sort.Float64s(sorted)

	n := float64(len(sorted))
	var d float64
	for i, v := range sorted {
		cdf := dist.CDF(v)
		d = math.Max(d, math.Max(float64(i+1)/n-cdf, cdf-float64(i)/n))
	}
	return d
}
