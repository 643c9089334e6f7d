// Package internal contains internal implementation details.
package internal

import "github.com/apex/log"

// ApexLogger adapts an [log.Interface] to the netem.Logger contract,
// giving cmd/shaperd structured, leveled logging instead of the
// package's zero-config null logger.
type ApexLogger struct {
	Logger log.Interface
}

func (al *ApexLogger) Debug(message string) {
	al.Logger.Debug(message)
}

func (al *ApexLogger) Debugf(format string, v ...any) {
	al.Logger.Debugf(format, v...)
}

func (al *ApexLogger) Info(message string) {
	al.Logger.Info(message)
}

func (al *ApexLogger) Infof(format string, v ...any) {
	al.Logger.Infof(format, v...)
}

func (al *ApexLogger) Warn(message string) {
	al.Logger.Warn(message)
}

func (al *ApexLogger) Warnf(format string, v ...any) {
	al.Logger.Warnf(format, v...)
}
