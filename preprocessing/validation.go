package preprocessing

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gaussrank/pkg/errors"
)

// CheckArray validates X and returns it as a *mat.Dense.
//
// X must be non-empty and contain only finite values; the first NaN or
// ±Inf is reported as a ValidationError carrying its row and column.
// When copy is false and X is already a *mat.Dense, X itself is returned
// so callers can write results in place. Otherwise a copy is returned.
func CheckArray(op string, X mat.Matrix, copy bool) (*mat.Dense, error) {
	if X == nil {
		return nil, errors.NewValidationError("X", "input must not be nil", nil)
	}
	r, c := dims(X)
	if r == 0 || c == 0 {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if err := errors.CheckFinite("X", X, r, c); err != nil {
		return nil, err
	}

	if d, ok := X.(*mat.Dense); ok && !copy {
		return d, nil
	}
	return mat.DenseCopyOf(X), nil
}

// dims is X.Dims that tolerates the empty *mat.Dense.
func dims(X mat.Matrix) (r, c int) {
	if d, ok := X.(*mat.Dense); ok && (d == nil || d.IsEmpty()) {
		return 0, 0
	}
	return X.Dims()
}

// FromRows builds a matrix from row slices. All rows must have the same
// non-zero length; a ragged row is a ValidationError that also matches
// errors.ErrRaggedRows.
func FromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.NewModelError("FromRows", "empty data", errors.ErrEmptyData)
	}
	c := len(rows[0])
	data := make([]float64, 0, len(rows)*c)
	for i, row := range rows {
		if len(row) != c {
			return nil, errors.Mark(
				errors.NewElementValidationError("rows", fmt.Sprintf("expected %d columns", c), len(row), i, min(len(row), c)),
				errors.ErrRaggedRows)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), c, data), nil
}
