// Package loggers defines the uniform experiment-tracking facade: a scalar
// and video logging interface with swappable backends.
//
// Backend adapters (subpackages csv, tensorboard, offline, and mlflow)
// implement Logger so training code can keep logging calls consistent across
// tracking systems. Each adapter is scoped to one (log directory, experiment
// name) pair and owns a per-metric auto-incrementing step counter used
// whenever a call omits an explicit step.
package loggers
