package csv

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/rayanht/rl/log"
	"github.com/rayanht/rl/loggers"
)

// Logger writes scalars to per-metric CSV files. The experiment directory and
// each metric file are created lazily on first use; Close flushes and closes
// every open file.
type Logger struct {
	expName string
	dir     string

	diag log.Logger

	mu     sync.Mutex
	files  map[string]*os.File
	steps  *loggers.StepCounter
	closed bool
}

var _ loggers.Logger = (*Logger)(nil)

// Option configures the adapter at construction time.
type Option func(*Logger)

// WithLogger sets the diagnostic logger. Defaults to a no-op logger.
func WithLogger(diag log.Logger) Option {
	return func(l *Logger) {
		l.diag = diag
	}
}

// New creates a CSV backend scoped to <logDir>/<expName>.
func New(logDir, expName string, opts ...Option) (*Logger, error) {
	if expName == "" {
		return nil, fmt.Errorf("experiment name is required")
	}

	l := &Logger{
		expName: expName,
		dir:     filepath.Join(logDir, expName),
		diag:    log.NewNop(),
		files:   make(map[string]*os.File),
		steps:   loggers.NewStepCounter(),
	}

	for _, opt := range opts {
		opt(l)
	}

	if err := os.MkdirAll(filepath.Join(l.dir, "scalars"), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create experiment directory: %w", err)
	}

	l.diag.Log(log.LevelDebug, "csv experiment directory ready",
		log.String("exp_name", expName), log.String("dir", l.dir))

	return l, nil
}

// LogScalar appends "<step>,<value>\n" to the metric's CSV file.
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

	file, err := l.file(name)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(file, "%d,%s\n", step, FormatValue(value)); err != nil {
		return fmt.Errorf("failed to append scalar %q: %w", name, err)
	}

	return nil
}

// Name returns the experiment name.
func (l *Logger) Name() string {
	return l.expName
}

// Dir returns the experiment directory.
func (l *Logger) Dir() string {
	return l.dir
}

// ScalarPath returns the CSV file path for a metric name.
func (l *Logger) ScalarPath(name string) string {
	return filepath.Join(l.dir, "scalars", name+".csv")
}

// Close closes every open metric file. Further logging returns ErrClosed.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}

	l.closed = true

	var firstErr error

	for name, file := range l.files {
		if err := file.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close scalar file %q: %w", name, err)
		}
	}

	l.files = nil

	return firstErr
}

// file returns the open handle for a metric, creating the file on first use.
// Callers must hold l.mu.
func (l *Logger) file(name string) (*os.File, error) {
	if file, ok := l.files[name]; ok {
		return file, nil
	}

	path := l.ScalarPath(name)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create scalar file %q: %w", name, err)
	}

	l.files[name] = file
	l.diag.Log(log.LevelDebug, "scalar file created",
		log.String("metric", name), log.String("path", path))

	return file, nil
}

// FormatValue renders a float the way records are written: the shortest
// representation that round-trips through strconv.ParseFloat.
func FormatValue(value float64) string {
	return strconv.FormatFloat(value, 'g', -1, 64)
}
