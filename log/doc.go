// Package log defines the diagnostic logging interface and typed logging fields
// used inside the tracking library.
//
// Adapters (such as the zap package) implement Logger so the experiment loggers
// can emit diagnostics through whatever backend the host application uses.
package log
