package mlflow

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rayanht/rl/log"
	"github.com/rayanht/rl/loggers"
)

// videoArtifactDir is the artifacts namespace video artifacts live under.
const videoArtifactDir = "videos"

// Logger tracks one run in an MLflow-compatible file store.
type Logger struct {
	expName string

	diag  log.Logger
	store *Store

	mu     sync.Mutex
	run    RunInfo
	steps  *loggers.StepCounter
	closed bool
}

var (
	_ loggers.Logger       = (*Logger)(nil)
	_ loggers.VideoLogger  = (*Logger)(nil)
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

// runName is the run name the adapter registers; one adapter instance is one run.
const runName = "run"

// New opens the store at trackingURI, gets or creates the named experiment,
// and starts a fresh run in it.
func New(trackingURI, expName string, opts ...Option) (*Logger, error) {
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

	store, err := NewStore(trackingURI)
	if err != nil {
		return nil, err
	}

	experiment, err := store.GetOrCreateExperiment(expName)
	if err != nil {
		return nil, err
	}

	run, err := store.CreateRun(experiment.ID, runName)
	if err != nil {
		return nil, err
	}

	l.store = store
	l.run = run
	l.diag.Log(log.LevelDebug, "tracking run started",
		log.String("exp_name", expName),
		log.String("experiment_id", experiment.ID),
		log.String("run_id", run.ID))

	return l, nil
}

// LogScalar appends one point to the run's metric history.
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

	return l.store.LogMetric(l.run.ID, name, value, step)
}

// LogVideo encodes the frames as an animated GIF artifact under the videos
// namespace. An explicit step becomes part of the artifact name; unstepped
// logs share one name, so the last write wins.
func (l *Logger) LogVideo(name string, video *loggers.Video, fps int, opts ...loggers.Option) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return loggers.ErrClosed
	}

	co := loggers.ApplyOptions(opts...)

	step, err := co.ResolveStep(l.steps, videoArtifactDir+"/"+name)
	if err != nil {
		return err
	}

	fileName := name + ".gif"
	if co.Step != nil {
		fileName = fmt.Sprintf("%s_step_%d.gif", name, step)
	}

	tmpDir, err := os.MkdirTemp("", "rl-video-*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	tmpPath := filepath.Join(tmpDir, fileName)

	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp video file: %w", err)
	}

	if err := EncodeGIF(file, video, fps); err != nil {
		file.Close()
		return err
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close temp video file: %w", err)
	}

	if err := l.store.LogArtifact(l.run.ID, tmpPath, videoArtifactDir); err != nil {
		return err
	}

	l.diag.Log(log.LevelDebug, "video artifact written",
		log.String("name", name), log.Int64("step", step), log.String("artifact", fileName))

	return nil
}

// LogConfig records run configuration as MLflow params.
func (l *Logger) LogConfig(cfg map[string]string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return loggers.ErrClosed
	}

	for key, value := range cfg {
		if err := l.store.LogParam(l.run.ID, key, value); err != nil {
			return err
		}
	}

	return nil
}

// Run returns the active run's info.
func (l *Logger) Run() RunInfo {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.run
}

// Store exposes the underlying tracking store for read-back queries.
func (l *Logger) Store() *Store {
	return l.store
}

// Name returns the experiment name.
func (l *Logger) Name() string {
	return l.expName
}

// Close terminates the run. Further logging returns ErrClosed.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}

	l.closed = true

	if err := l.store.SetTerminated(l.run.ID); err != nil {
		return err
	}

	l.run.Status = StatusFinished

	return nil
}
