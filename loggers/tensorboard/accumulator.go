package tensorboard

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScalarEvent is one scalar point recovered from an event file.
type ScalarEvent struct {
	WallTime float64
	Step     int64
	Value    float32
}

// ScalarAccumulator indexes the scalar summaries of every tfevents file in a
// directory, keyed by tag, in file order.
type ScalarAccumulator struct {
	scalars map[string][]ScalarEvent
}

// LoadScalars reads every tfevents file under dir (sorted by name, which
// orders them by creation time) and accumulates their scalar summaries.
func LoadScalars(dir string) (*ScalarAccumulator, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read event directory: %w", err)
	}

	var files []string

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), eventFilePrefix) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}

	sort.Strings(files)

	acc := &ScalarAccumulator{scalars: make(map[string][]ScalarEvent)}

	for _, path := range files {
		if err := acc.loadFile(path); err != nil {
			return nil, fmt.Errorf("failed to load %q: %w", path, err)
		}
	}

	return acc, nil
}

func (a *ScalarAccumulator) loadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	for {
		payload, err := readRecord(file)
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return err
		}

		event, err := parseEvent(payload)
		if err != nil {
			return err
		}

		for _, value := range event.Summary {
			a.scalars[value.Tag] = append(a.scalars[value.Tag], ScalarEvent{
				WallTime: event.WallTime,
				Step:     event.Step,
				Value:    value.Value,
			})
		}
	}
}

// Scalars returns the accumulated points for a tag, in write order.
func (a *ScalarAccumulator) Scalars(tag string) []ScalarEvent {
	return a.scalars[tag]
}

// Tags returns the sorted set of scalar tags seen.
func (a *ScalarAccumulator) Tags() []string {
	tags := make([]string, 0, len(a.scalars))
	for tag := range a.scalars {
		tags = append(tags, tag)
	}

	sort.Strings(tags)

	return tags
}
