package logger

import "go.uber.org/zap"

// BadgerLogger adapts zap to badger's Logger interface
type BadgerLogger struct {
	sugar *zap.SugaredLogger
}

// NewBadgerLogger creates a badger logger named "badger"
func NewBadgerLogger(zapLogger *zap.Logger) *BadgerLogger {
	return &BadgerLogger{sugar: zapLogger.Named("badger").Sugar()}
}

func (l *BadgerLogger) Errorf(format string, args ...any)   { l.sugar.Errorf(format, args...) }
func (l *BadgerLogger) Warningf(format string, args ...any) { l.sugar.Warnf(format, args...) }
func (l *BadgerLogger) Infof(format string, args ...any)    { l.sugar.Debugf(format, args...) }
func (l *BadgerLogger) Debugf(format string, args ...any)   { l.sugar.Debugf(format, args...) }
