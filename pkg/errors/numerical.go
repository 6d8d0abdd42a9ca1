package errors

import (
	"math"
)

// CheckFinite returns a ValidationError for the first NaN or ±Inf element
// of a matrix, scanning row by row. param names the input in the error.
func CheckFinite(param string, matrix interface{ At(int, int) float64 }, rows, cols int) error {
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := matrix.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return NewElementValidationError(param, "input contains NaN or infinity", v, i, j)
			}
		}
	}
	return nil
}

// CheckFiniteRow is CheckFinite for a single row. row is the index
// reported in the error.
func CheckFiniteRow(param string, values []float64, row int) error {
	for j, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewElementValidationError(param, "input contains NaN or infinity", v, row, j)
		}
	}
	return nil
}

// CheckScalar returns a ValidationError when value is NaN or ±Inf.
func CheckScalar(param string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return NewValidationError(param, "value must be finite", value)
	}
	return nil
}

// ClipValue clips a value to the range [min, max].
func ClipValue(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
