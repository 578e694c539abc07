package task

import (
	"fmt"

	"go.uber.org/zap"
)

// Logger adapts zap to asynq.Logger.
type Logger struct {
	log *zap.Logger
}

func NewLogger(l *zap.Logger) *Logger {
	return &Logger{log: l.Named("asynq")}
}

func (l *Logger) Debug(args ...interface{}) { l.log.Debug(fmt.Sprint(args...)) }
func (l *Logger) Info(args ...interface{})  { l.log.Info(fmt.Sprint(args...)) }
func (l *Logger) Warn(args ...interface{})  { l.log.Warn(fmt.Sprint(args...)) }
func (l *Logger) Error(args ...interface{}) { l.log.Error(fmt.Sprint(args...)) }
func (l *Logger) Fatal(args ...interface{}) { l.log.Fatal(fmt.Sprint(args...)) }
