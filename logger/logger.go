// Package logger provides the process-wide structured logger.
//
// Every bot cycle, supervisor action, and HTTP request logs through here so
// operators can demultiplex output by bot id and by package (the caller is
// baked into every line).
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// Log is the package-wide logger instance.
	Log     *logrus.Logger
	logFile *os.File
)

// Config controls logger initialization.
type Config struct {
	Level   string // debug|info|warn|error
	Dir     string // directory for the daily log file, empty means "data"
	AppName string
}

func (c *Config) setDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Dir == "" {
		c.Dir = "data"
	}
	if c.AppName == "" {
		c.AppName = "spotpilot"
	}
}

type compactFormatter struct {
	logrus.TextFormatter
}

func (f *compactFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	level := strings.ToUpper(entry.Level.String())
	if len(level) > 4 {
		level = level[:4]
	}
	timestamp := entry.Time.Format("01-02 15:04:05")

	caller := ""
	for i := 3; i < 10; i++ {
		_, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		if !strings.Contains(file, "logrus") && !strings.HasSuffix(file, "logger/logger.go") {
			pkg := filepath.Base(filepath.Dir(file))
			caller = fmt.Sprintf("%s/%s:%d", pkg, filepath.Base(file), line)
			break
		}
	}

	message := entry.Message
	if botID, ok := entry.Data["bot_id"]; ok {
		message = fmt.Sprintf("[bot %v] %s", botID, message)
	}
	msg := fmt.Sprintf("%s [%s] %s %s\n", timestamp, level, caller, message)
	return []byte(msg), nil
}

func init() {
	Log = logrus.New()
	Log.SetLevel(logrus.InfoLevel)
	Log.SetFormatter(&compactFormatter{})
	Log.SetOutput(os.Stdout)
}

// Init (re)configures the global logger. Safe to call once at startup; a nil
// config gets the defaults (info level, stdout plus a daily file under data/).
func Init(cfg *Config) error {
	Log = logrus.New()
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.setDefaults()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)
	Log.SetFormatter(&compactFormatter{})
	Log.SetReportCaller(true)

	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		Log.SetOutput(os.Stdout)
		return fmt.Errorf("create log dir: %w", err)
	}
	name := filepath.Join(cfg.Dir, fmt.Sprintf("%s_%s.log", cfg.AppName, time.Now().UTC().Format("2006-01-02")))
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		Log.SetOutput(os.Stdout)
		return fmt.Errorf("open log file: %w", err)
	}
	logFile = f
	Log.SetOutput(io.MultiWriter(os.Stdout, f))
	return nil
}

// Shutdown flushes and closes the log file, if any.
func Shutdown() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// Bot returns a per-bot entry so every line a bot emits is prefixed with its
// id for demultiplexing (§4.6 observability requirement).
func Bot(botID int64) *logrus.Entry {
	return Log.WithField("bot_id", botID)
}

func WithFields(fields logrus.Fields) *logrus.Entry { return Log.WithFields(fields) }
func WithField(key string, value interface{}) *logrus.Entry { return Log.WithField(key, value) }

func Debug(args ...interface{})                 { Log.Debug(args...) }
func Info(args ...interface{})                  { Log.Info(args...) }
func Warn(args ...interface{})                  { Log.Warn(args...) }
func Error(args ...interface{})                 { Log.Error(args...) }
func Debugf(format string, args ...interface{}) { Log.Debugf(format, args...) }
func Infof(format string, args ...interface{})  { Log.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { Log.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { Log.Errorf(format, args...) }
func Fatalf(format string, args ...interface{}) { Log.Fatalf(format, args...) }
