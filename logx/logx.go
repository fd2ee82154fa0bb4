package logx

import (
	"fmt"
	"log"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
)

// Options controls the log file rotation. Zero values fall back to
// stderr-only logging, which is what tests and the offline CLI want.
type Options struct {
	Filename  string
	MaxSizeMB int
	MaxAgeDay int
}

var (
	mu     sync.Mutex
	logger = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lmicroseconds)
)

// Init switches logging onto a rotated file. Call once at startup.
func Init(opts Options) {
	if opts.Filename == "" {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	logger = log.New(&lumberjack.Logger{
		Filename: opts.Filename,
		MaxSize:  opts.MaxSizeMB, // megabytes
		MaxAge:   opts.MaxAgeDay, // days
	}, "", log.Ldate|log.Ltime|log.Lmicroseconds)
}

func output(color, level, category, message string) {
	mu.Lock()
	l := logger
	mu.Unlock()
	l.Printf("%s[%s][%s]%s: %s", color, level, category, ColorReset, message)
}

func Info(category string, content ...interface{}) {
	output(ColorGreen, "INFO", category, fmt.Sprint(content...))
}

func Error(category string, content ...interface{}) {
	output(ColorRed, "ERROR", category, fmt.Sprint(content...))
}

func Warn(category string, content ...interface{}) {
	output(ColorYellow, "WARN", category, fmt.Sprint(content...))
}

func Debug(category string, content ...interface{}) {
	output(ColorBlue, "DEBUG", category, fmt.Sprint(content...))
}

// Errorf logs an error message and returns a formatted error
func Errorf(format string, args ...interface{}) error {
	err := fmt.Errorf(format, args...)
	Error("ERROR", err.Error())
	return err
}
