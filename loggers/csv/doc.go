// Package csv is the local file backend: one CSV file per metric under
// <log_dir>/<exp_name>/scalars, one "<step>,<value>" line per record.
package csv
