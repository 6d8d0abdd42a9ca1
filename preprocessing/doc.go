// Package preprocessing implements GaussRankScaler, a rank-based feature
// normalizer that maps every column of a dataset onto a standard normal
// distribution regardless of its original shape.
//
// For each feature the scaler keeps a FeatureMapping: the sorted unique
// values seen in Fit and their evenly spaced quantiles in
// [-(1-eps), 1-eps]. A GaussianBijector composes that mapping with
// erfinv (forward) and erf (inverse).
//
// Example:
//
//	X := mat.NewDense(5, 1, []float64{1, 10, 100, 1000, 10000})
//
//	scaler := preprocessing.NewGaussRankScaler(
//	    preprocessing.WithEpsilon(1e-4),
//	    preprocessing.WithInterpKind(preprocessing.InterpLinear),
//	)
//	Z, err := scaler.FitTransform(X)
//	if err != nil {
//	    return err
//	}
//	back, err := scaler.InverseTransform(Z) // ≈ X
//
// Hyperparameters can also be loaded from YAML with LoadConfig, and a
// fitted scaler can be persisted with model.SaveModel or encoding/json.
package preprocessing
