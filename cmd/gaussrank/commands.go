package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gaussrank/diagnostics"
	"github.com/YuminosukeSato/gaussrank/drift"
	"github.com/YuminosukeSato/gaussrank/metrics"
	"github.com/YuminosukeSato/gaussrank/performance"
	"github.com/YuminosukeSato/gaussrank/pkg/dataio"
	"github.com/YuminosukeSato/gaussrank/pkg/errors"
	"github.com/YuminosukeSato/gaussrank/pkg/log"
	"github.com/YuminosukeSato/gaussrank/preprocessing"
)

func required(name, value string) error {
	if value == "" {
		return errors.Mark(errors.Newf("--%s is required", name), errUsage)
	}
	return nil
}

func runFit(_ context.Context, a *app, args []string) error {
	fs := a.flagSet()
	var (
		input      = fs.StringP("input", "i", "", "training data CSV (.zst for compressed)")
		modelPath  = fs.StringP("model", "m", "", "where to save the fitted scaler (.gob, .gob.zst or .json)")
		configPath = fs.StringP("config", "c", "", "YAML file with scaler hyperparameters")
		noHeader   = fs.Bool("no-header", false, "the first CSV line is data, not column names")
		epsilon    = fs.Float64("epsilon", preprocessing.DefaultEpsilon, "bound margin; quantiles stay within ±(1 - epsilon)")
		interpKind = fs.String("interp-kind", string(preprocessing.DefaultInterpKind), "interpolation: linear, akima, fritsch-butland, natural-cubic, not-a-knot")
		nJobs      = fs.IntP("n-jobs", "j", preprocessing.DefaultNJobs, "features fitted in parallel (-1 for all CPUs)")
		interpCopy = fs.Bool("interp-copy", false, "return copies of the fitted control points")
	)
	if err := a.parse(fs, args); err != nil {
		return err
	}
	if err := required("input", *input); err != nil {
		return err
	}
	if err := required("model", *modelPath); err != nil {
		return err
	}

	cfg := preprocessing.DefaultConfig()
	if *configPath != "" {
		loaded, err := preprocessing.LoadConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = *loaded
	}
	if fs.Changed("epsilon") {
		cfg.Epsilon = *epsilon
	}
	if fs.Changed("interp-kind") {
		cfg.InterpKind = *interpKind
	}
	if fs.Changed("n-jobs") {
		cfg.NJobs = *nJobs
	}
	if fs.Changed("interp-copy") {
		cfg.InterpCopy = *interpCopy
	}

	scaler, err := preprocessing.NewGaussRankScalerFromConfig(cfg, preprocessing.WithMetrics(a.metrics))
	if err != nil {
		return err
	}

	X, _, err := dataio.ReadCSVFile(*input, !*noHeader)
	if err != nil {
		return err
	}
	start := time.Now()
	if err := scaler.Fit(X); err != nil {
		return err
	}
	if err := saveScaler(scaler, *modelPath); err != nil {
		return err
	}

	rows, cols := X.Dims()
	a.logger().Info("scaler fitted",
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.DurationMsKey, time.Since(start).Milliseconds(),
		"model_path", *modelPath,
	)
	fmt.Fprintln(a.stdout, scaler)
	return nil
}

func runTransform(ctx context.Context, a *app, args []string) error {
	return runStream(ctx, a, args, false)
}

func runInverse(ctx context.Context, a *app, args []string) error {
	return runStream(ctx, a, args, true)
}

// runStream pipes a CSV file through a saved scaler chunk by chunk, so
// the input never has to fit in memory.
func runStream(ctx context.Context, a *app, args []string, inverse bool) (err error) {
	fs := a.flagSet()
	var (
		modelPath = fs.StringP("model", "m", "", "saved scaler")
		input     = fs.StringP("input", "i", "", "input CSV (.zst for compressed)")
		output    = fs.StringP("output", "o", "-", "output CSV (.zst for compressed, '-' for stdout)")
		noHeader  = fs.Bool("no-header", false, "the first CSV line is data, not column names")
		chunkSize = fs.Int("chunk-size", performance.DefaultChunkSize, "rows per chunk")
		nJobs     = fs.IntP("n-jobs", "j", 1, "chunks processed in parallel (-1 for all CPUs)")
		monitor   *bool
	)
	if !inverse {
		monitor = fs.Bool("monitor", false, "watch input rows for drift away from the fitted data")
	}
	if err := a.parse(fs, args); err != nil {
		return err
	}
	if err := required("model", *modelPath); err != nil {
		return err
	}
	if err := required("input", *input); err != nil {
		return err
	}

	scaler, err := loadScaler(*modelPath, preprocessing.WithMetrics(a.metrics))
	if err != nil {
		return err
	}

	src, err := dataio.OpenCSV(*input, !*noHeader)
	if err != nil {
		return err
	}
	defer src.Close()

	var rows performance.RowSource = src
	var mon *drift.Monitor
	if monitor != nil && *monitor {
		dm := drift.NewMetrics(metricsNamespace)
		dm.MustRegister(a.registry)
		dm.Init()
		if mon, err = drift.NewMonitor(scaler, drift.WithMetrics(dm)); err != nil {
			return err
		}
		rows = &monitoredSource{src: src, monitor: mon, log: a.logger()}
	}

	var dst *dataio.CSVWriter
	if *output == "-" {
		dst, err = dataio.NewCSVWriter(a.stdout, src.Header())
	} else {
		dst, err = dataio.CreateCSV(*output, src.Header())
	}
	if err != nil {
		return err
	}
	defer func() {
		if cerr := dst.Close(); err == nil {
			err = cerr
		}
	}()

	proc := performance.NewChunkedProcessor(*chunkSize, *nJobs)
	var stats performance.ProcessStats
	if inverse {
		stats, err = proc.InverseTransformChunks(ctx, scaler, rows, dst)
	} else {
		stats, err = proc.TransformChunks(ctx, scaler, rows, dst)
	}
	if err != nil {
		return err
	}

	a.logger().Info("file processed",
		log.SamplesKey, stats.Rows,
		"chunks", stats.Chunks,
		log.DurationMsKey, stats.Duration.Milliseconds(),
		"output", *output,
	)
	if mon != nil {
		sum := mon.Summary()
		a.logger().Info("drift summary",
			"rows", sum.Rows,
			"out_of_range_rows", sum.OutOfRangeRows,
			"range_drifts", sum.RangeDrifts,
			"shift_drifts", sum.ShiftDrifts,
		)
	}
	return nil
}

// featureReport is one row of the report command.
type featureReport struct {
	Name           string                        `json:"name"`
	Kind           string                        `json:"kind"`
	Knots          int                           `json:"knots"`
	Normality      metrics.Normality             `json:"normality"`
	Reconstruction metrics.FeatureReconstruction `json:"reconstruction"`
}

func runReport(_ context.Context, a *app, args []string) error {
	fs := a.flagSet()
	var (
		modelPath = fs.StringP("model", "m", "", "saved scaler")
		input     = fs.StringP("input", "i", "", "data CSV (.zst for compressed)")
		noHeader  = fs.Bool("no-header", false, "the first CSV line is data, not column names")
		asJSON    = fs.Bool("json", false, "print the report as JSON")
		plotDir   = fs.String("plot-dir", "", "write mapping and score histogram PNGs to this directory")
		bins      = fs.Int("bins", 50, "histogram bins")
	)
	if err := a.parse(fs, args); err != nil {
		return err
	}
	if err := required("model", *modelPath); err != nil {
		return err
	}
	if err := required("input", *input); err != nil {
		return err
	}

	scaler, err := loadScaler(*modelPath, preprocessing.WithMetrics(a.metrics))
	if err != nil {
		return err
	}
	X, header, err := dataio.ReadCSVFile(*input, !*noHeader)
	if err != nil {
		return err
	}

	// Copy=false scalers overwrite their input.
	Z, err := scaler.Transform(mat.DenseCopyOf(X))
	if err != nil {
		return err
	}
	norms, err := metrics.NormalityMatrix(Z)
	if err != nil {
		return err
	}
	Xhat, err := scaler.InverseTransform(mat.DenseCopyOf(Z))
	if err != nil {
		return err
	}
	recon, err := metrics.ReconstructionError(X, Xhat)
	if err != nil {
		return err
	}

	reports := make([]featureReport, len(norms))
	for j := range reports {
		m, err := scaler.Mapping(j)
		if err != nil {
			return err
		}
		reports[j] = featureReport{
			Name:           featureName(header, j),
			Kind:           string(m.Kind()),
			Knots:          m.NumKnots(),
			Normality:      norms[j],
			Reconstruction: recon[j],
		}
		if *plotDir != "" {
			if err := writePlots(*plotDir, j, reports[j].Name, m, mat.Col(nil, j, Z), *bins); err != nil {
				return err
			}
		}
	}

	if *asJSON {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(reports), "failed to encode report")
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "feature\tkind\tknots\tn\tinf\tmean\tstd\tskew\tex_kurt\tks\tmae\tmax_abs_err")
	for _, r := range reports {
		n := r.Normality
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t%.3g\t%.3g\n",
			r.Name, r.Kind, r.Knots, n.N, n.Infinite, n.Mean, n.StdDev, n.Skew, n.ExKurtosis, n.KS,
			r.Reconstruction.MAE, r.Reconstruction.MaxAbsError)
	}
	return errors.Wrap(tw.Flush(), "failed to write report")
}

func featureName(header []string, j int) string {
	if j < len(header) && header[j] != "" {
		return header[j]
	}
	return fmt.Sprintf("x%d", j)
}

// writePlots saves the mapping curve and, unless the feature is constant,
// the score histogram of feature j. Files are named by index since column
// names may not be valid paths.
func writePlots(dir string, j int, name string, m *preprocessing.FeatureMapping, z []float64, bins int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", dir)
	}
	p, err := diagnostics.MappingPlot(m, name+" mapping")
	if err != nil {
		return err
	}
	if err := diagnostics.Save(p, filepath.Join(dir, fmt.Sprintf("feature_%d_mapping.png", j))); err != nil {
		return err
	}
	if m.Degenerate() {
		return nil
	}
	h, err := diagnostics.ScoreHistogram(z, bins, name+" scores")
	if err != nil {
		return err
	}
	return diagnostics.Save(h, filepath.Join(dir, fmt.Sprintf("feature_%d_scores.png", j)))
}
