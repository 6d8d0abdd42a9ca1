package log

// Standard attribute keys. Keys are hierarchical ("model.name",
// "data.samples") so records can be filtered by prefix.

// Model and operation context.
const (
	// ModelNameKey identifies the estimator type, e.g. "GaussRankScaler".
	ModelNameKey = "model.name"

	// OperationKey is one of the Operation* values below.
	OperationKey = "ml.operation"

	// ComponentKey names the package doing the work.
	ComponentKey = "ml.component"
)

// Data shape.
const (
	SamplesKey   = "data.samples"
	FeaturesKey  = "data.features"
	FeatureKey   = "data.feature"
	UniqueKey    = "data.unique_values"
	BatchSizeKey = "data.batch_size"
)

// Performance.
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// WorkersKey records the resolved worker count of a parallel fan-out.
	WorkersKey = "perf.workers"
)

// Hyperparameters.
const (
	EpsilonKey    = "hyperparams.epsilon"
	InterpKindKey = "hyperparams.interp_kind"
	NJobsKey      = "hyperparams.n_jobs"
)

// Error context.
const (
	ErrorCodeKey = "error.code"
)

// Standard attribute values.
const (
	OperationFit              = "fit"
	OperationTransform        = "transform"
	OperationInverseTransform = "inverse_transform"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidInput      = "INVALID_INPUT"
)
