package mlflow

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

var (
	// ErrRunNotFound is returned when no experiment contains the run id.
	ErrRunNotFound = errors.New("run not found")

	// ErrUnsupportedURI is returned for tracking URIs with a non-file scheme.
	ErrUnsupportedURI = errors.New("unsupported tracking URI scheme")
)

// Run statuses, matching MLflow's RunStatus names.
const (
	StatusRunning  = "RUNNING"
	StatusFinished = "FINISHED"
)

const lifecycleActive = "active"

// Experiment identifies one experiment in the store.
type Experiment struct {
	ID   string
	Name string
}

// RunInfo identifies one tracked run.
type RunInfo struct {
	ID           string
	Name         string
	ExperimentID string
	Status       string
}

// Metric is one point of a run's metric history.
type Metric struct {
	Key       string
	Value     float64
	Timestamp int64 // milliseconds since epoch
	Step      int64
}

// experimentMeta mirrors the meta.yaml MLflow writes per experiment.
type experimentMeta struct {
	ArtifactLocation string `yaml:"artifact_location"`
	CreationTime     int64  `yaml:"creation_time"`
	ExperimentID     string `yaml:"experiment_id"`
	LastUpdateTime   int64  `yaml:"last_update_time"`
	LifecycleStage   string `yaml:"lifecycle_stage"`
	Name             string `yaml:"name"`
}

// runMeta mirrors the meta.yaml MLflow writes per run.
type runMeta struct {
	ArtifactURI    string `yaml:"artifact_uri"`
	EndTime        int64  `yaml:"end_time"`
	ExperimentID   string `yaml:"experiment_id"`
	LifecycleStage string `yaml:"lifecycle_stage"`
	RunID          string `yaml:"run_id"`
	RunName        string `yaml:"run_name"`
	RunUUID        string `yaml:"run_uuid"`
	StartTime      int64  `yaml:"start_time"`
	Status         string `yaml:"status"`
}

// Store is an MLflow-file-store-compatible tracking store rooted at the path
// of a file:// URI.
type Store struct {
	root string
}

// NewStore opens (creating if needed) a store at the given tracking URI.
// Plain filesystem paths are accepted as well as file:// URIs.
func NewStore(trackingURI string) (*Store, error) {
	root, err := rootFromURI(trackingURI)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store root: %w", err)
	}

	return &Store{root: root}, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string { return s.root }

func rootFromURI(trackingURI string) (string, error) {
	if !strings.Contains(trackingURI, "://") {
		return trackingURI, nil
	}

	parsed, err := url.Parse(trackingURI)
	if err != nil {
		return "", fmt.Errorf("invalid tracking URI %q: %w", trackingURI, err)
	}

	if parsed.Scheme != "file" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedURI, parsed.Scheme)
	}

	return filepath.FromSlash(parsed.Path), nil
}

// GetOrCreateExperiment returns the experiment with the given name, creating
// it with the next free numeric id when absent.
func (s *Store) GetOrCreateExperiment(name string) (Experiment, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return Experiment{}, fmt.Errorf("failed to list experiments: %w", err)
	}

	maxID := int64(-1)

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		id, err := strconv.ParseInt(entry.Name(), 10, 64)
		if err != nil {
			continue
		}

		if id > maxID {
			maxID = id
		}

		meta, err := s.readExperimentMeta(entry.Name())
		if err != nil {
			continue
		}

		if meta.Name == name {
			return Experiment{ID: meta.ExperimentID, Name: meta.Name}, nil
		}
	}

	return s.createExperiment(name, strconv.FormatInt(maxID+1, 10))
}

func (s *Store) createExperiment(name, id string) (Experiment, error) {
	dir := filepath.Join(s.root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Experiment{}, fmt.Errorf("failed to create experiment directory: %w", err)
	}

	now := time.Now().UnixMilli()
	meta := experimentMeta{
		ArtifactLocation: fileURI(dir),
		CreationTime:     now,
		ExperimentID:     id,
		LastUpdateTime:   now,
		LifecycleStage:   lifecycleActive,
		Name:             name,
	}

	if err := writeYAML(filepath.Join(dir, "meta.yaml"), meta); err != nil {
		return Experiment{}, err
	}

	return Experiment{ID: id, Name: name}, nil
}

func (s *Store) readExperimentMeta(id string) (experimentMeta, error) {
	var meta experimentMeta

	raw, err := os.ReadFile(filepath.Join(s.root, id, "meta.yaml"))
	if err != nil {
		return meta, err
	}

	if err := yaml.Unmarshal(raw, &meta); err != nil {
		return meta, fmt.Errorf("failed to decode experiment meta: %w", err)
	}

	return meta, nil
}

// CreateRun starts a new run in the experiment. Run ids are 32 hex
// characters, the format MLflow uses.
func (s *Store) CreateRun(experimentID, runName string) (RunInfo, error) {
	runID := strings.ReplaceAll(uuid.NewString(), "-", "")
	dir := filepath.Join(s.root, experimentID, runID)

	for _, sub := range []string{"metrics", "params", "tags", "artifacts"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return RunInfo{}, fmt.Errorf("failed to create run directory: %w", err)
		}
	}

	meta := runMeta{
		ArtifactURI:    fileURI(filepath.Join(dir, "artifacts")),
		ExperimentID:   experimentID,
		LifecycleStage: lifecycleActive,
		RunID:          runID,
		RunName:        runName,
		RunUUID:        runID,
		StartTime:      time.Now().UnixMilli(),
		Status:         StatusRunning,
	}

	if err := writeYAML(filepath.Join(dir, "meta.yaml"), meta); err != nil {
		return RunInfo{}, err
	}

	return RunInfo{ID: runID, Name: runName, ExperimentID: experimentID, Status: StatusRunning}, nil
}

// GetRun looks a run up by id across every experiment.
func (s *Store) GetRun(runID string) (RunInfo, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return RunInfo{}, err
	}

	raw, err := os.ReadFile(filepath.Join(dir, "meta.yaml"))
	if err != nil {
		return RunInfo{}, fmt.Errorf("failed to read run meta: %w", err)
	}

	var meta runMeta
	if err := yaml.Unmarshal(raw, &meta); err != nil {
		return RunInfo{}, fmt.Errorf("failed to decode run meta: %w", err)
	}

	return RunInfo{ID: meta.RunID, Name: meta.RunName, ExperimentID: meta.ExperimentID, Status: meta.Status}, nil
}

// SetTerminated marks the run finished and stamps its end time.
func (s *Store) SetTerminated(runID string) error {
	dir, err := s.runDir(runID)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, "meta.yaml")

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read run meta: %w", err)
	}

	var meta runMeta
	if err := yaml.Unmarshal(raw, &meta); err != nil {
		return fmt.Errorf("failed to decode run meta: %w", err)
	}

	meta.Status = StatusFinished
	meta.EndTime = time.Now().UnixMilli()

	return writeYAML(path, meta)
}

// LogMetric appends one "<timestamp> <value> <step>" line to the metric's
// history file.
func (s *Store) LogMetric(runID, key string, value float64, step int64) error {
	dir, err := s.runDir(runID)
	if err != nil {
		return err
	}

	file, err := os.OpenFile(filepath.Join(dir, "metrics", key), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open metric file %q: %w", key, err)
	}
	defer file.Close()

	line := fmt.Sprintf("%d %s %d\n",
		time.Now().UnixMilli(), strconv.FormatFloat(value, 'g', -1, 64), step)

	if _, err := file.WriteString(line); err != nil {
		return fmt.Errorf("failed to append metric %q: %w", key, err)
	}

	return nil
}

// GetMetricHistory returns every logged point for the metric, in write order.
func (s *Store) GetMetricHistory(runID, key string) ([]Metric, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(dir, "metrics", key))
	if err != nil {
		return nil, fmt.Errorf("failed to open metric file %q: %w", key, err)
	}
	defer file.Close()

	var history []Metric

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 3 {
			return nil, fmt.Errorf("malformed metric line %q", scanner.Text())
		}

		timestamp, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed metric timestamp: %w", err)
		}

		value, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("malformed metric value: %w", err)
		}

		step, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed metric step: %w", err)
		}

		history = append(history, Metric{Key: key, Value: value, Timestamp: timestamp, Step: step})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan metric file: %w", err)
	}

	return history, nil
}

// LogParam records one immutable run parameter.
func (s *Store) LogParam(runID, key, value string) error {
	dir, err := s.runDir(runID)
	if err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(dir, "params", key), []byte(value), 0o644); err != nil {
		return fmt.Errorf("failed to write param %q: %w", key, err)
	}

	return nil
}

// GetParam reads one run parameter back.
func (s *Store) GetParam(runID, key string) (string, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return "", err
	}

	raw, err := os.ReadFile(filepath.Join(dir, "params", key))
	if err != nil {
		return "", fmt.Errorf("failed to read param %q: %w", key, err)
	}

	return string(raw), nil
}

// LogArtifact copies a local file into the run's artifacts tree under
// artifactPath (which may be empty for the root).
func (s *Store) LogArtifact(runID, localPath, artifactPath string) error {
	dir, err := s.runDir(runID)
	if err != nil {
		return err
	}

	dstDir := filepath.Join(dir, "artifacts", filepath.FromSlash(artifactPath))
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	return copyFile(localPath, filepath.Join(dstDir, filepath.Base(localPath)))
}

// ListArtifacts returns the sorted artifact names directly under artifactPath.
func (s *Store) ListArtifacts(runID, artifactPath string) ([]string, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(filepath.Join(dir, "artifacts", filepath.FromSlash(artifactPath)))
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}

	sort.Strings(names)

	return names, nil
}

// DownloadArtifacts copies the artifacts under artifactPath into dstDir and
// returns the local directory holding them.
func (s *Store) DownloadArtifacts(runID, artifactPath, dstDir string) (string, error) {
	names, err := s.ListArtifacts(runID, artifactPath)
	if err != nil {
		return "", err
	}

	runDir, err := s.runDir(runID)
	if err != nil {
		return "", err
	}

	srcDir := filepath.Join(runDir, "artifacts", filepath.FromSlash(artifactPath))

	localDir := filepath.Join(dstDir, filepath.FromSlash(artifactPath))
	if err := os.MkdirAll(localDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	for _, name := range names {
		if err := copyFile(filepath.Join(srcDir, name), filepath.Join(localDir, name)); err != nil {
			return "", err
		}
	}

	return localDir, nil
}

// runDir locates the run's directory by scanning experiment directories, the
// same lookup MLflow's file store performs.
func (s *Store) runDir(runID string) (string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return "", fmt.Errorf("failed to list experiments: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		dir := filepath.Join(s.root, entry.Name(), runID)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrRunNotFound, runID)
}

func writeYAML(path string, v any) error {
	raw, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", filepath.Base(path), err)
	}

	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write %q: %w", filepath.Base(path), err)
	}

	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %q: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %q: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %q: %w", src, err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close %q: %w", dst, err)
	}

	return nil
}

func fileURI(path string) string {
	return "file://" + filepath.ToSlash(path)
}
