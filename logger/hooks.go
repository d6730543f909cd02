// Copyright 2020 Hewlett Packard Enterprise Development LP

package logger

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh/terminal"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ConsoleHook sends Trace through Warn entries to stdout and the rest to stderr
type ConsoleHook struct {
	formatter log.Formatter
	mutex     sync.Mutex
}

// NewConsoleHook creates a new log hook for writing to stdout/stderr.
func NewConsoleHook() *ConsoleHook {
	return &ConsoleHook{formatter: logParams.formatter(true)}
}

func (hook *ConsoleHook) Levels() []log.Level {
	return log.AllLevels
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return terminal.IsTerminal(int(f.Fd()))
	}
	return false
}

func (hook *ConsoleHook) Fire(entry *log.Entry) error {
	logWriter := io.Writer(os.Stdout)
	if entry.Level <= log.ErrorLevel {
		logWriter = os.Stderr
	}

	hook.mutex.Lock()
	defer hook.mutex.Unlock()

	//https://github.com/sirupsen/logrus/issues/172
	if text, ok := hook.formatter.(*log.TextFormatter); ok && runtime.GOOS != "windows" {
		text.ForceColors = isTerminal(logWriter)
	}

	lineBytes, err := hook.formatter.Format(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to read entry, %v", err)
		return err
	}
	_, err = logWriter.Write(lineBytes)
	return err
}

// FileHook sends log entries to a rotated file.
type FileHook struct {
	formatter log.Formatter
	mutex     sync.Mutex
	logWriter *lumberjack.Logger
}

// CustomCallerPrettyfier reports the caller as function name and file name only
func CustomCallerPrettyfier(f *runtime.Frame) (string, string) {
	s := strings.Split(f.Function, ".")
	funcname := s[len(s)-1]
	_, filename := path.Split(f.File)
	return funcname, filename
}

// NewFileHook creates a new log hook for writing to the configured file.
func NewFileHook() *FileHook {
	return &FileHook{
		formatter: logParams.formatter(false),
		// use lumberjack for log rotation
		logWriter: &lumberjack.Logger{
			Filename:   logParams.GetFile(),
			MaxSize:    logParams.GetMaxSize(),
			MaxBackups: logParams.GetMaxFiles(),
			MaxAge:     30,
			Compress:   true,
		},
	}
}

func (hook *FileHook) Levels() []log.Level {
	return log.AllLevels
}

func (hook *FileHook) Fire(entry *log.Entry) error {
	lineBytes, err := hook.formatter.Format(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not read log entry. %v", err)
		return err
	}

	// Windows text files end lines with CRLF
	if runtime.GOOS == "windows" {
		lineBytes = crlf(lineBytes)
	}

	hook.mutex.Lock()
	defer hook.mutex.Unlock()
	_, err = hook.logWriter.Write(lineBytes)
	return err
}

// GetLocation returns the log file path
func (hook *FileHook) GetLocation() string {
	return hook.logWriter.Filename
}

// Close closes the current log file
func (hook *FileHook) Close() error {
	hook.mutex.Lock()
	defer hook.mutex.Unlock()
	return hook.logWriter.Close()
}

// crlf replaces a trailing LF with CRLF
func crlf(line []byte) []byte {
	n := len(line)
	if n == 0 || line[n-1] != '\n' || (n > 1 && line[n-2] == '\r') {
		return line
	}
	return append(line[:n-1], '\r', '\n')
}
