// Package logger provides the process-wide leveled logger. Messages go to
// stdout and, when a file is configured, to a size-rotated log file.
package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu    sync.RWMutex
	sugar *zap.SugaredLogger
	base  *zap.Logger
)

const (
	INFO = iota
	DEBUG
)

// InitLogger initializes the logger with console output and, if filename is
// not empty, a rotating file output.
func InitLogger(filename string, level int) error {
	lvl := zapcore.InfoLevel
	if level == DEBUG {
		lvl = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stdout), lvl),
	}
	if filename != "" {
		rotating := &lumberjack.Logger{
			Filename:   filename,
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(rotating), lvl))
	}

	Set(zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1)))
	return nil
}

// ParseLevel maps a config string to INFO or DEBUG.
func ParseLevel(s string) int {
	if strings.EqualFold(strings.TrimSpace(s), "debug") {
		return DEBUG
	}
	return INFO
}

// Set replaces the underlying zap logger. Tests use it with zaptest/observer.
func Set(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	base = l
	sugar = l.Sugar()
}

func Close() {
	mu.RLock()
	defer mu.RUnlock()
	if base != nil {
		_ = base.Sync()
	}
}

// Init installs a console-only logger.
func Init() {
	_ = InitLogger("", INFO)
}

func get() *zap.SugaredLogger {
	mu.RLock()
	s := sugar
	mu.RUnlock()
	if s == nil {
		Init()
		mu.RLock()
		s = sugar
		mu.RUnlock()
	}
	return s
}

// With returns a logger carrying the given key/value pairs on every entry.
func With(keysAndValues ...interface{}) *zap.SugaredLogger {
	return get().With(keysAndValues...)
}

func Debugf(format string, v ...interface{}) {
	get().Debugf(format, v...)
}

func Info(format string, v ...interface{}) {
	get().Infof(format, v...)
}

func Infof(format string, v ...interface{}) {
	Info(format, v...)
}

func Error(format string, v ...interface{}) {
	get().Errorf(format, v...)
}

func Errorf(format string, v ...interface{}) {
	Error(format, v...)
}

func Warn(format string, v ...interface{}) {
	get().Warnf(format, v...)
}

func Warnf(format string, v ...interface{}) {
	Warn(format, v...)
}
