package logger

import "log"

type StdLogger struct {
	prefix string
}

func NewStdLogger() Logger {
	return &StdLogger{}
}

// NewStdLoggerWithPrefix tags every line, handy when several crawls share stderr.
func NewStdLoggerWithPrefix(prefix string) Logger {
	return &StdLogger{prefix: prefix + " "}
}

func (l *StdLogger) Debug(msg string, args ...any) {
	log.Printf("[DEBUG] "+l.prefix+msg, args...)
}

func (l *StdLogger) Info(msg string, args ...any) {
	log.Printf("[INFO] "+l.prefix+msg, args...)
}

func (l *StdLogger) Warn(msg string, args ...any) {
	log.Printf("[WARN] "+l.prefix+msg, args...)
}

func (l *StdLogger) Error(msg string, args ...any) {
	log.Printf("[ERROR] "+l.prefix+msg, args...)
}
