// Package config builds experiment loggers from declarative YAML
// configuration, so training entrypoints can swap tracking backends without
// code changes.
package config
