package model

// ParameterGetter is implemented by models that expose their hyperparameters.
type ParameterGetter interface {
	// GetParams returns the model's hyperparameters keyed by their
	// scikit-learn names.
	GetParams() map[string]interface{}
}

// ParameterSetter is implemented by models whose hyperparameters can be
// changed after construction.
type ParameterSetter interface {
	// SetParams sets the model's hyperparameters. Unknown keys are an error.
	SetParams(params map[string]interface{}) error
}

// Estimator is the full parameter surface of a transformer.
type Estimator interface {
	InverseTransformer
	ParameterGetter
	ParameterSetter

	// IsFitted reports whether Fit has completed successfully.
	IsFitted() bool
}
