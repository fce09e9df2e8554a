package offline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	historyFile = "history.jsonl"
	summaryFile = "summary.json"
	configFile  = "config.json"
	metaFile    = "run.json"
)

// runMeta is the metadata snapshot written when a run starts.
type runMeta struct {
	ID        string `json:"id"`
	ExpName   string `json:"exp_name"`
	CreatedAt string `json:"created_at"`
}

// Run owns one offline run directory: an append-only history, a summary
// snapshot rewritten after every row, and the run configuration.
type Run struct {
	id      string
	dir     string
	history *os.File
	writer  *bufio.Writer

	summary  map[string]any
	finished bool
}

// newRun creates the run directory and its metadata and history files.
func newRun(dir, id, expName string) (*Run, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	meta := runMeta{
		ID:        id,
		ExpName:   expName,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	if err := writeJSON(filepath.Join(dir, metaFile), meta); err != nil {
		return nil, err
	}

	history, err := os.OpenFile(filepath.Join(dir, historyFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create history file: %w", err)
	}

	return &Run{
		id:      id,
		dir:     dir,
		history: history,
		writer:  bufio.NewWriter(history),
		summary: make(map[string]any),
	}, nil
}

// ID returns the run identifier.
func (r *Run) ID() string { return r.id }

// Dir returns the run directory.
func (r *Run) Dir() string { return r.dir }

// LogRow appends one history row and folds it into the summary. Every row
// carries the resolved step as _step and a wall-clock _timestamp.
func (r *Run) LogRow(row map[string]float64, step int64) error {
	record := make(map[string]any, len(row)+2)
	for key, value := range row {
		record[key] = value
	}

	record["_step"] = step
	record["_timestamp"] = float64(time.Now().UnixNano()) / float64(time.Second)

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode history row: %w", err)
	}

	if _, err := r.writer.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append history row: %w", err)
	}

	if err := r.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush history: %w", err)
	}

	for key, value := range row {
		r.summary[key] = value
	}

	r.summary["_step"] = step

	return r.flushSummary()
}

// LogConfig merges the given configuration into config.json.
func (r *Run) LogConfig(cfg map[string]string) error {
	path := filepath.Join(r.dir, configFile)

	merged := make(map[string]string)
	if raw, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(raw, &merged); err != nil {
			return fmt.Errorf("failed to decode existing config: %w", err)
		}
	}

	for key, value := range cfg {
		merged[key] = value
	}

	return writeJSON(path, merged)
}

// Summary returns a copy of the latest value per key plus the implicit _step.
func (r *Run) Summary() map[string]any {
	out := make(map[string]any, len(r.summary))
	for key, value := range r.summary {
		out[key] = value
	}

	return out
}

// Finish writes the final summary and closes the history file.
func (r *Run) Finish() error {
	if r.finished {
		return nil
	}

	r.finished = true

	if err := r.flushSummary(); err != nil {
		r.history.Close()
		return err
	}

	if err := r.history.Close(); err != nil {
		return fmt.Errorf("failed to close history file: %w", err)
	}

	return nil
}

func (r *Run) flushSummary() error {
	return writeJSON(filepath.Join(r.dir, summaryFile), r.summary)
}

func writeJSON(path string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", filepath.Base(path), err)
	}

	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write %q: %w", filepath.Base(path), err)
	}

	return nil
}

// ReadSummary loads the summary snapshot of a finished or in-flight run.
func ReadSummary(dir string) (map[string]any, error) {
	raw, err := os.ReadFile(filepath.Join(dir, summaryFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read summary: %w", err)
	}

	var summary map[string]any
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, fmt.Errorf("failed to decode summary: %w", err)
	}

	return summary, nil
}

// ReadHistory loads every history row of a run, in write order.
func ReadHistory(dir string) ([]map[string]any, error) {
	file, err := os.Open(filepath.Join(dir, historyFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	defer file.Close()

	var rows []map[string]any

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var row map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &row); err != nil {
			return nil, fmt.Errorf("failed to decode history row: %w", err)
		}

		rows = append(rows, row)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan history: %w", err)
	}

	return rows, nil
}
