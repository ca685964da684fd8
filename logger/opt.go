package logger

import "log"

// A LoggerOptFn is a functional option configuring a CanopyLogger when constructing a new one.
type LoggerOptFn func(*CanopyLogger)

// WithEnv sets the environment CanopyLogger is operating in.
func WithEnv(env string) LoggerOptFn {
	return func(l *CanopyLogger) {
		l.env = env
	}
}

// WithLevel sets the log level CanopyLogger uses.
func WithLevel(level LogLevel) LoggerOptFn {
	return func(l *CanopyLogger) {
		l.ll = level
	}
}

// WithLogger sets the log.Logger CanopyLogger uses.
func WithLogger(log *log.Logger) LoggerOptFn {
	return func(l *CanopyLogger) {
		l.l = log
	}
}

// WithSkip sets the number of frames in the call stack
// to skip in order to log the desired file and line number
// of the calling code.
func WithSkip(skip int) LoggerOptFn {
	return func(l *CanopyLogger) {
		l.skip = skip
	}
}
