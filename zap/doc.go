// Package zap adapts go.uber.org/zap to the library's log.Logger interface.
package zap
