package main

import (
	"fmt"
	"log"

	"vtu-service/vtu"
)

// LeveledLogger filters a standard logger by log level and adds a level tag
// to each line. It satisfies vtu.Logger.
type LeveledLogger struct {
	logger *log.Logger
	level  LogLevel
}

func NewLeveledLogger(logger *log.Logger, level LogLevel) *LeveledLogger {
	return &LeveledLogger{logger: logger, level: level}
}

func (l *LeveledLogger) logf(level LogLevel, tag, format string, v ...interface{}) {
	if l.level >= level {
		l.logger.Printf(tag+" "+format, v...)
	}
}

func (l *LeveledLogger) Debug(format string, v ...interface{}) {
	l.logf(LogLevelDebug, "[DEBUG]", format, v...)
}

func (l *LeveledLogger) Info(format string, v ...interface{}) {
	l.logf(LogLevelInfo, "[INFO]", format, v...)
}

func (l *LeveledLogger) Warn(format string, v ...interface{}) {
	l.logf(LogLevelWarn, "[WARN]", format, v...)
}

func (l *LeveledLogger) Error(format string, v ...interface{}) {
	l.logf(LogLevelError, "[ERROR]", format, v...)
}

// Printf provides compatibility with the standard logger - logs at INFO level
func (l *LeveledLogger) Printf(format string, v ...interface{}) {
	l.Info(format, v...)
}

// Fatalf logs a fatal error and exits
func (l *LeveledLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Fatalf("[FATAL] "+format, v...)
}

func (l *LeveledLogger) SetLevel(level LogLevel) {
	l.level = level
}

// DebugCAN logs CAN frame details at DEBUG level with formatting
func (l *LeveledLogger) DebugCAN(direction string, id uint32, data []byte, length uint8) {
	if l.level < LogLevelDebug {
		return
	}
	dataStr := ""
	for i := uint8(0); i < length && i < 8; i++ {
		dataStr += fmt.Sprintf("%02X ", data[i])
	}
	l.logger.Printf("[DEBUG] CAN %s: ID=0x%03X Len=%d Data=[%s]", direction, id, length, dataStr)
}

var _ vtu.Logger = (*LeveledLogger)(nil)
