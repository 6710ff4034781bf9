package logger

import (
	"io"
	"log"
	"os"
	"strings"
)

var (
	Info    *log.Logger
	Warn    *log.Logger
	Debug   *log.Logger
	Verbose *log.Logger
	Error   *log.Logger
	Always  *log.Logger // Always logs regardless of log level

	// Current log level for filtering
	currentLogLevel string

	logFile *os.File
)

var levels = map[string]int{
	"error":   0,
	"warn":    1,
	"info":    2,
	"debug":   3,
	"verbose": 4,
}

// Until Init is called every logger discards, so library callers and tests
// never touch a nil logger.
func init() {
	setLoggers("error", io.Discard, io.Discard)
}

func Init() error {
	return InitWithLevel("info")
}

func InitWithLevel(logLevel string) error {
	return InitWithConfig(logLevel, "")
}

// InitWithConfig sets the level and destination. An empty path logs to stderr.
func InitWithConfig(logLevel, logFilePath string) error {
	var out io.Writer = os.Stderr
	errOut := io.Writer(os.Stderr)

	if logFilePath == "" {
		Close()
	} else {
		f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return err
		}
		Close()
		logFile = f
		out = f
		errOut = io.MultiWriter(os.Stderr, f)
	}

	setLoggers(logLevel, out, errOut)
	return nil
}

// InitWithWriter routes every level to w. Used by tests and the CLI.
func InitWithWriter(logLevel string, w io.Writer) {
	setLoggers(logLevel, w, w)
}

// Close releases the log file opened by InitWithConfig, if any.
func Close() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// Level returns the active level name.
func Level() string {
	return currentLogLevel
}

func setLoggers(logLevel string, out, errOut io.Writer) {
	currentLogLevel = strings.ToLower(logLevel)

	Info = log.New(getWriter("info", out, io.Discard), "INFO: ", log.Ldate|log.Ltime)
	Warn = log.New(getWriter("warn", out, io.Discard), "WARN: ", log.Ldate|log.Ltime|log.Lshortfile)
	Debug = log.New(getWriter("debug", out, io.Discard), "DEBUG: ", log.Ldate|log.Ltime|log.Lshortfile)
	Verbose = log.New(getWriter("verbose", out, io.Discard), "VERBOSE: ", log.Ldate|log.Ltime|log.Lshortfile)
	Error = log.New(errOut, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
	Always = log.New(out, "ALWAYS: ", log.Ldate|log.Ltime)
}

// getWriter returns the appropriate writer based on log level
func getWriter(level string, activeWriter, disabledWriter io.Writer) io.Writer {
	if shouldLog(level) {
		return activeWriter
	}
	return disabledWriter
}

// shouldLog determines if a log level should be active
func shouldLog(level string) bool {
	currentLevel, exists := levels[currentLogLevel]
	if !exists {
		currentLevel = 2 // default to info
	}

	requiredLevel, exists := levels[level]
	if !exists {
		return false
	}

	return currentLevel >= requiredLevel
}
