package logging

import (
	"log"
	"sync/atomic"
)

const (
	// TraceLevel indicates a log message's level of criticality
	TraceLevel = iota
	// DebugLevel indicates a log message's level of criticality
	DebugLevel
	// InfoLevel indicates a log message's level of criticality
	InfoLevel
	// WarnLevel indicates a log message's level of criticality
	WarnLevel
	// ErrorLevel indicates a log message's level of criticality
	ErrorLevel
	// FatalLevel indicates a log message's level of criticality
	FatalLevel
)

var currentLevel int32 = WarnLevel

// LogLevelToString translates a log level enum to a string representation
func LogLevelToString(level int) string {
	switch level {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case FatalLevel:
		return "FATAL"
	default:
		return "TRACE"
	}
}

// SetLogLevel adjusts the minimum level which Logf will emit
func SetLogLevel(level int) {
	atomic.StoreInt32(&currentLevel, int32(level))
}

// Logf writes a message to the standard logger if level meets the configured minimum
func Logf(level int, format string, args ...interface{}) {
	if level < int(atomic.LoadInt32(&currentLevel)) {
		return
	}
	log.Printf("["+LogLevelToString(level)+"] "+format, args...)
}
