// Copyright 2020 Hewlett Packard Enterprise Development LP

package logger

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultLogLevel    = "info"
	DefaultLogFormat   = TextFormat
	DefaultMaxLogFiles = 10
	MaxFilesLimit      = 20
	DefaultMaxLogSize  = 100  // in MB
	MaxLogSizeLimit    = 1024 // in MB
	JSONFormat         = "json"
	TextFormat         = "text"
)

// LogParams to configure logging
type LogParams struct {
	Level      string
	File       string
	MaxFiles   int
	MaxSizeMiB int
	Format     string
}

// Fields and Entry are the logrus types, so callers need not import logrus
type (
	Fields = log.Fields
	Entry  = log.Entry
	Level  = log.Level
)

var (
	logParams LogParams
	initMutex sync.Mutex

	// fileHook is closed when logging is initialized again
	fileHook *FileHook
)

// GetLevel returns the configured level, or the default when it is not one we support
func (l LogParams) GetLevel() string {
	switch l.Level {
	case "trace", "debug", "info", "warn", "error":
		return l.Level
	}
	return DefaultLogLevel
}

func (l LogParams) GetFile() string {
	return l.File
}

func (l LogParams) GetMaxFiles() int {
	if l.MaxFiles <= 0 || l.MaxFiles > MaxFilesLimit {
		return DefaultMaxLogFiles
	}
	return l.MaxFiles
}

func (l LogParams) GetMaxSize() int {
	if l.MaxSizeMiB <= 0 || l.MaxSizeMiB > MaxLogSizeLimit {
		return DefaultMaxLogSize
	}
	return l.MaxSizeMiB
}

func (l LogParams) GetLogFormat() string {
	if l.Format != JSONFormat && l.Format != TextFormat {
		return DefaultLogFormat
	}
	return l.Format
}

func (l LogParams) formatter(console bool) log.Formatter {
	if l.GetLogFormat() == JSONFormat {
		if console {
			return &log.JSONFormatter{CallerPrettyfier: CustomCallerPrettyfier}
		}
		return &log.JSONFormatter{}
	}
	if console {
		return &log.TextFormatter{FullTimestamp: true, CallerPrettyfier: CustomCallerPrettyfier}
	}
	return &log.TextFormatter{FullTimestamp: true}
}

// applyEnv overrides the params with the LOG_* environment variables
func (l *LogParams) applyEnv() {
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		l.Level = level
	}
	if logFile := os.Getenv("LOG_FILE"); logFile != "" {
		l.File = logFile
	}
	if maxSize := os.Getenv("LOG_MAX_SIZE"); maxSize != "" {
		if size, err := strconv.ParseInt(maxSize, 0, 0); err == nil {
			l.MaxSizeMiB = int(size)
		}
	}
	if maxFiles := os.Getenv("LOG_MAX_FILES"); maxFiles != "" {
		if fileCount, err := strconv.ParseInt(maxFiles, 0, 0); err == nil {
			l.MaxFiles = int(fileCount)
		}
	}
	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		l.Format = logFormat
	}
}

// InitLogging initializes logging to logName (if not empty) and optionally to stdout/stderr.
// Params left nil use the defaults; LOG_* environment variables override both.
func InitLogging(logName string, params *LogParams, alsoLogToStderr bool) error {
	initMutex.Lock()
	defer initMutex.Unlock()

	if params == nil {
		logParams = LogParams{
			Level:      DefaultLogLevel,
			MaxSizeMiB: DefaultMaxLogSize,
			MaxFiles:   DefaultMaxLogFiles,
			Format:     DefaultLogFormat,
		}
	} else {
		logParams = *params
	}
	if logName != "" {
		logParams.File = logName
	}
	logParams.applyEnv()

	// No output except for the hooks
	log.SetOutput(io.Discard)
	log.StandardLogger().ReplaceHooks(make(log.LevelHooks))
	if fileHook != nil {
		fileHook.Close()
		fileHook = nil
	}

	if logParams.GetFile() != "" {
		fileHook = NewFileHook()
		log.AddHook(fileHook)
	}
	if alsoLogToStderr {
		log.AddHook(NewConsoleHook())
	}

	level, err := log.ParseLevel(logParams.GetLevel())
	if err != nil {
		return err
	}
	log.SetLevel(level)

	// Remind users where the log file lives
	log.WithFields(log.Fields{
		"logLevel":        log.GetLevel().String(),
		"logFileLocation": logParams.GetFile(),
		"alsoLogToStderr": alsoLogToStderr,
	}).Info("Initialized logging.")
	return nil
}

// GetLevel returns the standard logger level.
func GetLevel() log.Level {
	return log.GetLevel()
}

// IsLevelEnabled checks if the log level of the standard logger is greater than the level param
func IsLevelEnabled(level log.Level) bool {
	return log.IsLevelEnabled(level)
}

// WithError creates an entry from the standard logger and adds an error to it
func WithError(err error) *log.Entry {
	return sourced().WithField(log.ErrorKey, err)
}

// WithField creates an entry from the standard logger and adds a field to it
func WithField(key string, value interface{}) *log.Entry {
	return sourced().WithField(key, value)
}

// WithFields creates an entry from the standard logger and adds multiple fields to it.
//
// Note that it doesn't log until you call Debug, Print, Info, Warn, Fatal
// or Panic on the Entry it returns.
func WithFields(fields Fields) *log.Entry {
	return sourced().WithFields(fields)
}

// sourced adds a source field to the logger that contains
// the file name and line where the logging happened.
func sourced() *log.Entry {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		file = "<???>"
		line = 1
	} else {
		file = file[strings.LastIndex(file, "/")+1:]
	}
	return log.WithField("file", fmt.Sprintf("%s:%d", file, line))
}

func Trace(args ...interface{}) {
	sourced().Trace(args...)
}

// Tracef logs a message at level Trace on the standard logger.
func Tracef(format string, args ...interface{}) {
	sourced().Tracef(format, args...)
}

func Debug(args ...interface{}) {
	sourced().Debug(args...)
}

// Debugf logs a message at level Debug on the standard logger.
func Debugf(format string, args ...interface{}) {
	sourced().Debugf(format, args...)
}

func Info(args ...interface{}) {
	sourced().Info(args...)
}

// Infof logs a message at level Info on the standard logger.
func Infof(format string, args ...interface{}) {
	sourced().Infof(format, args...)
}

func Warn(args ...interface{}) {
	sourced().Warn(args...)
}

// Warnf logs a message at level Warn on the standard logger.
func Warnf(format string, args ...interface{}) {
	sourced().Warnf(format, args...)
}

func Error(args ...interface{}) {
	sourced().Error(args...)
}

// Errorf logs a message at level Error on the standard logger.
func Errorf(format string, args ...interface{}) {
	sourced().Errorf(format, args...)
}

// Fatalf logs a message at level Fatal on the standard logger then the process will exit with status set to 1.
func Fatalf(format string, args ...interface{}) {
	sourced().Fatalf(format, args...)
}
