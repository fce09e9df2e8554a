package loggers

import "errors"

var (
	// ErrClosed is returned when logging through an adapter after Close.
	ErrClosed = errors.New("logger is closed")

	// ErrInvalidStep is returned when an explicit step is negative.
	ErrInvalidStep = errors.New("step must be non-negative")
)

// Logger is the uniform scalar-logging interface implemented by every
// backend adapter.
type Logger interface {
	// LogScalar persists one (step, value) pair under the given metric name
	// in the backend's native format, creating backend-specific storage on
	// first use. When no WithStep option is supplied, the adapter assigns a
	// per-metric auto-incrementing step starting at 0.
	LogScalar(name string, value float64, opts ...Option) error

	// Name returns the experiment name the adapter was constructed with.
	Name() string

	// Close tears down the backend session: files are flushed and closed,
	// runs are marked finished.
	Close() error
}

// VideoLogger is the optional video-logging capability. Only backends that
// can store artifacts implement it.
type VideoLogger interface {
	// LogVideo encodes the frames into a playable video artifact associated
	// with the resolved step, stored under the backend's videos namespace.
	LogVideo(name string, video *Video, fps int, opts ...Option) error
}

// ConfigLogger is the optional run-configuration capability, for backends
// that track hyperparameters alongside metrics.
type ConfigLogger interface {
	LogConfig(cfg map[string]string) error
}

// CallOptions carries the resolved per-call options.
type CallOptions struct {
	// Step is the explicit step index, or nil when the adapter should assign
	// one from its counter.
	Step *int64
}

// Option configures a single logging call.
type Option func(*CallOptions)

// WithStep sets an explicit step index for one logging call.
func WithStep(step int64) Option {
	return func(o *CallOptions) {
		o.Step = &step
	}
}

// ApplyOptions folds a list of options into CallOptions.
func ApplyOptions(opts ...Option) CallOptions {
	var co CallOptions
	for _, opt := range opts {
		opt(&co)
	}

	return co
}

// ResolveStep returns the explicit step when one was supplied, validating it,
// and otherwise draws the next auto-increment step for the metric name. This
// keeps the step-defaulting rule identical across backends.
func (co CallOptions) ResolveStep(counter *StepCounter, name string) (int64, error) {
	if co.Step == nil {
		return counter.Next(name), nil
	}

	if *co.Step < 0 {
		return 0, ErrInvalidStep
	}

	return *co.Step, nil
}
