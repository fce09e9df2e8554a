package tensorboard

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/rayanht/rl/log"
	"github.com/rayanht/rl/loggers"
)

// Logger writes scalars as tfevents records under <log_dir>/<exp_name>.
// Every write is flushed so readers see events immediately.
type Logger struct {
	expName string
	dir     string

	diag log.Logger

	mu     sync.Mutex
	writer *EventWriter
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

// New creates a TensorBoard backend scoped to <logDir>/<expName>.
func New(logDir, expName string, opts ...Option) (*Logger, error) {
	if expName == "" {
		return nil, fmt.Errorf("experiment name is required")
	}

	l := &Logger{
		expName: expName,
		dir:     filepath.Join(logDir, expName),
		diag:    log.NewNop(),
		steps:   loggers.NewStepCounter(),
	}

	for _, opt := range opts {
		opt(l)
	}

	writer, err := NewEventWriter(l.dir)
	if err != nil {
		return nil, err
	}

	l.writer = writer
	l.diag.Log(log.LevelDebug, "event file created",
		log.String("exp_name", expName), log.String("path", writer.Path()))

	return l, nil
}

// LogScalar appends one scalar summary event and flushes it to disk.
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

	event := Event{
		WallTime: float64(time.Now().UnixNano()) / float64(time.Second),
		Step:     step,
		Summary:  []SummaryValue{{Tag: name, Value: float32(value)}},
	}

	if err := l.writer.WriteEvent(event); err != nil {
		return fmt.Errorf("failed to write scalar %q: %w", name, err)
	}

	return l.writer.Flush()
}

// Name returns the experiment name.
func (l *Logger) Name() string {
	return l.expName
}

// Dir returns the directory holding the experiment's event files.
func (l *Logger) Dir() string {
	return l.dir
}

// Close flushes and closes the event file. Further logging returns ErrClosed.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}

	l.closed = true

	return l.writer.Close()
}
