// Package log is the structured logger used across sciv. It keeps a small
// package-level API (Info, Debugf, LogWithFields, ...) on top of logrus so
// call sites never import logrus directly.
package log

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	"sciv/internal/errors"

	"github.com/sirupsen/logrus"
)

var (
	isDebug = false
	logger  = NewLogger()
)

// Field is a single key/value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// F builds a Field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Logger wraps a logrus logger together with a set of fields that are
// attached to every entry it emits.
type Logger struct {
	base   *logrus.Logger
	fields logrus.Fields
	level  logrus.Level
	file   *os.File
}

// Option configures a Logger.
type Option func(*Logger)

// WithOutput sends log output to w.
func WithOutput(w io.Writer) Option {
	return func(l *Logger) {
		l.base.SetOutput(w)
	}
}

// WithJSON switches to JSON output.
func WithJSON() Option {
	return func(l *Logger) {
		l.base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyMsg:  "message",
				logrus.FieldKeyTime: "timestamp",
			},
		})
	}
}

// WithFileOnly writes log output to path and nowhere else. The terminal UI
// uses it so log lines never land on the screen.
func WithFileOnly(path string) Option {
	return func(l *Logger) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			l.base.SetOutput(io.Discard)
			return
		}
		l.file = f
		l.base.SetOutput(f)
	}
}

// WithLevel sets the minimum level by name (debug, info, warn, error).
// Unknown names leave the level unchanged.
func WithLevel(name string) Option {
	return func(l *Logger) {
		lvl, err := logrus.ParseLevel(strings.ToLower(name))
		if err != nil {
			return
		}
		l.level = lvl
	}
}

// NewLogger creates a Logger writing text lines to stdout at info level.
func NewLogger(opts ...Option) *Logger {
	base := logrus.New()
	base.SetOutput(os.Stdout)
	base.SetLevel(logrus.TraceLevel)
	base.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	l := &Logger{
		base:   base,
		fields: logrus.Fields{},
		level:  logrus.InfoLevel,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Configure replaces the package-level logger.
func Configure(opts ...Option) {
	logger = NewLogger(opts...)
}

// Close releases the log file of the package-level logger, if any.
func Close() {
	if logger.file != nil {
		logger.file.Close()
		logger.file = nil
	}
}

// SetDebug enables or disables debug output for every logger.
func SetDebug(debug bool) {
	isDebug = debug
}

// With returns a child logger carrying the given fields.
func (l *Logger) With(fields ...Field) *Logger {
	merged := make(logrus.Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for _, f := range fields {
		merged[f.Key] = f.Value
	}
	return &Logger{
		base:   l.base,
		fields: merged,
		level:  l.level,
		file:   l.file,
	}
}

// WithError returns a child logger carrying the fields describing err.
func (l *Logger) WithError(err error) *Logger {
	return l.With(errorFields(err)...)
}

func (l *Logger) enabled(lvl logrus.Level) bool {
	if lvl == logrus.DebugLevel {
		return isDebug || l.level >= logrus.DebugLevel
	}
	return lvl <= l.level
}

func (l *Logger) log(lvl logrus.Level, msg string) {
	if !l.enabled(lvl) {
		return
	}
	l.base.WithFields(l.fields).Log(lvl, msg)
}

func (l *Logger) Debug(msg string) { l.log(logrus.DebugLevel, msg) }
func (l *Logger) Info(msg string)  { l.log(logrus.InfoLevel, msg) }
func (l *Logger) Warn(msg string)  { l.log(logrus.WarnLevel, msg) }
func (l *Logger) Error(msg string) { l.log(logrus.ErrorLevel, msg) }

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(logrus.DebugLevel, fmt.Sprintf(format, args...))
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(logrus.InfoLevel, fmt.Sprintf(format, args...))
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log(logrus.WarnLevel, fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log(logrus.ErrorLevel, fmt.Sprintf(format, args...))
}

// ErrorWithStack logs err at error level. The goroutine stack is attached
// when debug output is enabled.
func (l *Logger) ErrorWithStack(err error, msg string) {
	child := l.WithError(err)
	if isDebug {
		child = child.With(F("stack", string(debug.Stack())))
	}
	child.Error(msg)
}

// errorFields expands the kinded application errors into log fields.
func errorFields(err error) []Field {
	if err == nil {
		return []Field{F("error", "<nil>")}
	}
	fields := []Field{F("error", err.Error())}
	if kind := errors.KindOf(err); kind != errors.Unknown {
		fields = append(fields, F("error_kind", kind.String()))
	}

	var fileErr *errors.FileError
	var configErr *errors.ConfigError
	var bindErr *errors.BindingError
	if errors.As(err, &configErr) && configErr.Param() != "" {
		fields = append(fields, F("param", configErr.Param()))
	}
	if errors.As(err, &bindErr) && bindErr.Pattern() != "" {
		fields = append(fields, F("pattern", bindErr.Pattern()))
	}
	if errors.As(err, &fileErr) && fileErr.Path() != "" {
		fields = append(fields, F("path", fileErr.Path()))
	}
	return fields
}

// LogWithFields returns the package logger with the given fields attached.
func LogWithFields(fields ...Field) *Logger {
	return logger.With(fields...)
}

// LogWithError returns the package logger with err's fields attached.
func LogWithError(err error) *Logger {
	return logger.WithError(err)
}

// LogError logs err with msg at error level.
func LogError(err error, msg string) {
	logger.WithError(err).Error(msg)
}

func Info(msg string)  { logger.Info(msg) }
func Debug(msg string) { logger.Debug(msg) }
func Warn(msg string)  { logger.Warn(msg) }
func Error(msg string) { logger.Error(msg) }

func Infof(format string, args ...interface{})  { logger.Infof(format, args...) }
func Debugf(format string, args ...interface{}) { logger.Debugf(format, args...) }
func Warnf(format string, args ...interface{})  { logger.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { logger.Errorf(format, args...) }
