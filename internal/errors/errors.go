// Package errors defines the error kinds sciv reports: file errors from
// the collection and the watchers, config errors from loading and
// validating settings, and binding errors from the key dispatcher.
package errors

import (
	"errors"
	"fmt"
	"io/fs"
)

// Re-exported from the standard library so callers need one import.
var (
	Unwrap = errors.Unwrap
	Is     = errors.Is
	As     = errors.As
)

// Sentinels for comparisons that do not care about the path or parameter.
var (
	ErrFileNotFound   = NewFileError("file not found", "", FileNotFound, nil)
	ErrInvalidConfig  = NewConfigError("invalid configuration", "", InvalidConfig, nil)
	ErrInvalidBinding = NewBindingError("invalid binding", "", InvalidBinding, nil)
)

// ErrorKind classifies an ApplicationError.
type ErrorKind int

const (
	Unknown ErrorKind = iota

	FileNotFound
	FileAccessDenied
	InvalidPath
	FileOperationFailed
	WatchFailed

	InvalidConfig
	ConfigNotFound

	InvalidBinding
	UnknownAction
)

var kindNames = map[ErrorKind]string{
	Unknown:             "unknown",
	FileNotFound:        "file not found",
	FileAccessDenied:    "access denied",
	InvalidPath:         "invalid path",
	FileOperationFailed: "file operation failed",
	WatchFailed:         "watch failed",
	InvalidConfig:       "invalid config",
	ConfigNotFound:      "config unreadable",
	InvalidBinding:      "invalid binding",
	UnknownAction:       "unknown action",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ApplicationError carries a message, a kind and an optional cause.
type ApplicationError struct {
	msg  string
	err  error
	kind ErrorKind
}

func (e *ApplicationError) Error() string {
	return join(e.msg, "", e.err)
}

func (e *ApplicationError) Unwrap() error {
	return e.err
}

// Kind returns the classification of e.
func (e *ApplicationError) Kind() ErrorKind {
	return e.kind
}

// join renders "msg: subject: cause", leaving out empty parts.
func join(msg, subject string, cause error) string {
	out := msg
	if subject != "" {
		out += ": " + subject
	}
	if cause != nil {
		out += ": " + cause.Error()
	}
	return out
}

// FileError is an ApplicationError about one path.
type FileError struct {
	ApplicationError
	path string
}

func NewFileError(msg string, path string, kind ErrorKind, err error) *FileError {
	return &FileError{ApplicationError{msg, err, kind}, path}
}

// FromOS wraps an error returned by the os package, classifying missing
// paths as FileNotFound and everything else as FileAccessDenied.
func FromOS(msg, path string, err error) *FileError {
	kind := FileAccessDenied
	if errors.Is(err, fs.ErrNotExist) {
		kind = FileNotFound
	}
	return NewFileError(msg, path, kind, err)
}

func (e *FileError) Error() string {
	return join(e.msg, e.path, e.err)
}

// Path returns the path the error is about.
func (e *FileError) Path() string {
	return e.path
}

// ConfigError is an ApplicationError about one configuration parameter,
// or about the config file as a whole when param is a path.
type ConfigError struct {
	ApplicationError
	param string
}

func NewConfigError(msg string, param string, kind ErrorKind, err error) *ConfigError {
	return &ConfigError{ApplicationError{msg, err, kind}, param}
}

func (e *ConfigError) Error() string {
	return join(e.msg, e.param, e.err)
}

// Param returns the dotted name of the offending parameter.
func (e *ConfigError) Param() string {
	return e.param
}

// BindingError is raised while registering a key binding: a chord that
// does not parse, a regular expression that does not compile or an
// action that does not exist.
type BindingError struct {
	ApplicationError
	pattern string
}

func NewBindingError(msg string, pattern string, kind ErrorKind, err error) *BindingError {
	return &BindingError{ApplicationError{msg, err, kind}, pattern}
}

func (e *BindingError) Error() string {
	subject := ""
	if e.pattern != "" {
		subject = fmt.Sprintf("%q", e.pattern)
	}
	return join(e.msg, subject, e.err)
}

// Pattern returns the notation that failed.
func (e *BindingError) Pattern() string {
	return e.pattern
}

func New(msg string) error {
	return &ApplicationError{msg: msg}
}

func Newf(format string, args ...interface{}) error {
	return &ApplicationError{msg: fmt.Sprintf(format, args...)}
}

// Wrap adds context to err. A nil err stays nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{msg: msg, err: err}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{msg: fmt.Sprintf(format, args...), err: err}
}

// KindOf returns the kind of the first classified error in err's chain.
// Plain wrappers made by Wrap are skipped.
func KindOf(err error) ErrorKind {
	for err != nil {
		if k, ok := err.(interface{ Kind() ErrorKind }); ok && k.Kind() != Unknown {
			return k.Kind()
		}
		err = errors.Unwrap(err)
	}
	return Unknown
}

func hasKind[T interface{ Kind() ErrorKind }](err error, kind ErrorKind) bool {
	var target T
	return errors.As(err, &target) && target.Kind() == kind
}

func IsFileNotFound(err error) bool {
	return hasKind[*FileError](err, FileNotFound)
}

func IsFileAccessDenied(err error) bool {
	return hasKind[*FileError](err, FileAccessDenied)
}

// IsWatchFailed reports whether a filesystem watch could not be set up.
func IsWatchFailed(err error) bool {
	return hasKind[*FileError](err, WatchFailed)
}

func IsInvalidConfig(err error) bool {
	return hasKind[*ConfigError](err, InvalidConfig)
}

func IsInvalidBinding(err error) bool {
	return hasKind[*BindingError](err, InvalidBinding)
}

// IsUnknownAction reports whether a binding named an action that does not exist.
func IsUnknownAction(err error) bool {
	return hasKind[*BindingError](err, UnknownAction)
}
