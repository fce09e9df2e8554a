package offline

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rayanht/rl/log"
	"github.com/rayanht/rl/loggers"
)

// shortIDLen matches the 8-character run id suffix used in run directory names.
const shortIDLen = 8

// Logger records metrics into an offline run directory under
// <log_dir>/wandb/offline-run-<timestamp>-<id>.
type Logger struct {
	expName string

	diag log.Logger

	mu     sync.Mutex
	run    *Run
	steps  *loggers.StepCounter
	closed bool
}

var (
	_ loggers.Logger       = (*Logger)(nil)
	_ loggers.ConfigLogger = (*Logger)(nil)
)

// Option configures the adapter at construction time.
type Option func(*Logger)

// WithLogger sets the diagnostic logger. Defaults to a no-op logger.
func WithLogger(diag log.Logger) Option {
	return func(l *Logger) {
		l.diag = diag
	}
}

// New creates an offline run scoped to the experiment name.
func New(logDir, expName string, opts ...Option) (*Logger, error) {
	if expName == "" {
		return nil, fmt.Errorf("experiment name is required")
	}

	l := &Logger{
		expName: expName,
		diag:    log.NewNop(),
		steps:   loggers.NewStepCounter(),
	}

	for _, opt := range opts {
		opt(l)
	}

	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:shortIDLen]
	dir := filepath.Join(logDir, "wandb",
		fmt.Sprintf("offline-run-%s-%s", time.Now().Format("20060102_150405"), id))

	run, err := newRun(dir, id, expName)
	if err != nil {
		return nil, err
	}

	l.run = run
	l.diag.Log(log.LevelDebug, "offline run started",
		log.String("exp_name", expName), log.String("run_id", id), log.String("dir", dir))

	return l, nil
}

// LogScalar appends one history row holding the metric and updates the
// summary snapshot.
func (l *Logger) LogScalar(name string, value float64, opts ...loggers.Option) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return loggers.ErrClosed
	}

	step, err := loggers.ApplyOptions(opts...).ResolveStep(l.steps, name)
	if err != nil {
		return err
	}

	return l.run.LogRow(map[string]float64{name: value}, step)
}

// LogConfig records run configuration (hyperparameters).
func (l *Logger) LogConfig(cfg map[string]string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return loggers.ErrClosed
	}

	return l.run.LogConfig(cfg)
}

// Run exposes the underlying run, mirroring how tracking clients expose their
// active session.
func (l *Logger) Run() *Run {
	return l.run
}

// Name returns the experiment name.
func (l *Logger) Name() string {
	return l.expName
}

// Close finishes the run. Further logging returns ErrClosed.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}

	l.closed = true

	return l.run.Finish()
}
