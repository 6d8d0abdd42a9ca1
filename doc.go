// Package gaussrank provides rank-based Gaussian feature normalization for
// Go, with a scikit-learn-like API over gonum matrices.
//
// GaussRankScaler maps each feature onto a normal distribution through its
// empirical rank order, so skewed, heavy-tailed or discrete features all
// come out bell-shaped, and maps scores back to raw values exactly at the
// fitted points.
//
// # Features
//
//   - Fit / Transform / InverseTransform over any mat.Matrix
//   - Linear, Akima, monotone cubic and spline interpolation between ranks,
//     with linear extrapolation beyond the fitted range
//   - Per-feature parallelism with joblib-style n_jobs
//   - YAML configuration, gob / zstd / JSON persistence
//   - Prometheus metrics, zerolog logging, structured errors
//   - Streaming of large CSV files and drift monitoring
//
// # Installation
//
//	go get github.com/YuminosukeSato/gaussrank
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/gaussrank/preprocessing"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    X := mat.NewDense(5, 1, []float64{1, 10, 100, 1000, 10000})
//
//	    scaler := preprocessing.NewGaussRankScaler()
//	    Z, err := scaler.FitTransform(X)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println("Scores:", mat.Formatted(Z))
//
//	    back, err := scaler.InverseTransform(Z)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println("Restored:", mat.Formatted(back))
//	}
//
// # Packages
//
//   - preprocessing: GaussRankScaler, feature mappings, config, persistence
//   - core/model: state management, transformer interfaces, model files
//   - core/parallel: bounded per-feature fan-out
//   - metrics: normality and round-trip diagnostics
//   - diagnostics: gonum/plot renderings of mappings and scores
//   - drift: out-of-range and distribution shift detection on streams
//   - performance: chunked streaming through a fitted scaler
//   - pkg/dataio: CSV input and output
//   - pkg/errors, pkg/log: structured errors, warnings and logging
//   - cmd/gaussrank: command-line interface
//
// # License
//
// gaussrank is released under the MIT License.
package gaussrank
