// Package offline is the offline-run backend: metrics are appended to a
// JSONL history inside a run directory, with a summary snapshot exposing the
// latest value per key plus the implicit _step field.
package offline
