package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gaussrank/pkg/errors"
)

// MSE returns the mean squared error between yTrue and yPred.
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

// RMSE returns the root mean squared error.
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE returns the mean absolute error.
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// MaxAbsError returns the largest absolute difference.
func MaxAbsError(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MaxAbsError", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var worst float64
	for i := 0; i < n; i++ {
		worst = math.Max(worst, math.Abs(yTrue.AtVec(i)-yPred.AtVec(i)))
	}
	return worst, nil
}

func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil || yTrue.IsEmpty() {
		return 0, errors.NewValueError(op, "empty vector")
	}
	n := yTrue.Len()
	if yPred.IsEmpty() || yPred.Len() != n {
		got := 0
		if !yPred.IsEmpty() {
			got = yPred.Len()
		}
		return 0, errors.NewDimensionError(op, n, got, 0)
	}
	return n, nil
}

// FeatureReconstruction is the round-trip error of one feature.
type FeatureReconstruction struct {
	Feature     int     `json:"feature"`
	MAE         float64 `json:"mae"`
	RMSE        float64 `json:"rmse"`
	MaxAbsError float64 `json:"max_abs_error"`
}

// ReconstructionError compares original data X with its round trip Xhat
// (InverseTransform of Transform) column by column.
func ReconstructionError(X, Xhat mat.Matrix) ([]FeatureReconstruction, error) {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewValueError("ReconstructionError", "empty matrix")
	}
	rh, ch := Xhat.Dims()
	if rh != r {
		return nil, errors.NewDimensionError("ReconstructionError", r, rh, 0)
	}
	if ch != c {
		return nil, errors.NewDimensionError("ReconstructionError", c, ch, 1)
	}

	out := make([]FeatureReconstruction, c)
	for j := 0; j < c; j++ {
		yTrue := mat.NewVecDense(r, mat.Col(nil, j, X))
		yPred := mat.NewVecDense(r, mat.Col(nil, j, Xhat))

		out[j].Feature = j
		out[j].MAE, _ = MAE(yTrue, yPred)
		out[j].RMSE, _ = RMSE(yTrue, yPred)
		out[j].MaxAbsError, _ = MaxAbsError(yTrue, yPred)
	}
	return out, nil
}
