package tensorboard

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// eventFilePrefix is the file-name prefix TensorBoard globs for.
const eventFilePrefix = "events.out.tfevents."

// EventWriter appends framed events to a single tfevents file. The first
// record is always the file-version event.
type EventWriter struct {
	path string
	file *os.File
	buf  *bufio.Writer
}

// NewEventWriter creates the directory and a fresh tfevents file inside it.
func NewEventWriter(dir string) (*EventWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create event directory: %w", err)
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	now := time.Now()
	path := filepath.Join(dir, fmt.Sprintf("%s%d.%s", eventFilePrefix, now.Unix(), hostname))

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create event file: %w", err)
	}

	w := &EventWriter{
		path: path,
		file: file,
		buf:  bufio.NewWriter(file),
	}

	versionEvent := Event{
		WallTime:    float64(now.UnixNano()) / float64(time.Second),
		FileVersion: fileVersion,
	}

	if err := w.WriteEvent(versionEvent); err != nil {
		file.Close()
		return nil, err
	}

	return w, nil
}

// Path returns the tfevents file path.
func (w *EventWriter) Path() string {
	return w.path
}

// WriteEvent frames and buffers one event.
func (w *EventWriter) WriteEvent(event Event) error {
	return writeRecord(w.buf, event.marshal())
}

// Flush pushes buffered records to disk.
func (w *EventWriter) Flush() error {
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush event file: %w", err)
	}

	return nil
}

// Close flushes and closes the underlying file.
func (w *EventWriter) Close() error {
	if err := w.Flush(); err != nil {
		w.file.Close()
		return err
	}

	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close event file: %w", err)
	}

	return nil
}
