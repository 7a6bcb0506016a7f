package log

// Estimator and operation context.
const (
	// ModelNameKey identifies the estimator type, e.g. "EmpiricalCovariance".
	ModelNameKey = "model.name"

	// OperationKey names the operation: see the Operation* constants.
	OperationKey = "ml.operation"

	// ComponentKey identifies the package emitting the record.
	ComponentKey = "ml.component"
)

// Data shape.
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
)

// Numeric results.
const (
	// RankKey records an (effective) matrix rank or a selected dimensionality.
	RankKey = "linalg.rank"

	// NormKey records the error norm kind ("frobenius", "spectral").
	NormKey = "linalg.norm"

	// ScoreKey records a log-likelihood or log-evidence value.
	ScoreKey = "metrics.score"

	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// InputKey records the input file a CLI record refers to.
	InputKey = "io.input"
)

// Standard operation values.
const (
	OperationFit         = "fit"
	OperationScore       = "score"
	OperationErrorNorm   = "error_norm"
	OperationMahalanobis = "mahalanobis"
	OperationInferDim    = "infer_dimension"
	OperationSVD         = "svd"
)
