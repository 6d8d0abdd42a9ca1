package model

import "gonum.org/v1/gonum/mat"

// Transformer learns parameters from data and applies them.
type Transformer interface {
	// Fit learns the parameters needed by Transform.
	Fit(X mat.Matrix) error

	// Transform applies the learned parameters to X.
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform is Fit followed by Transform on the same data.
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// InverseTransformer is a Transformer whose mapping can be undone.
type InverseTransformer interface {
	Transformer

	// InverseTransform maps transformed data back to the original space.
	InverseTransform(X mat.Matrix) (mat.Matrix, error)
}
