package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

// Logger provides structured leveled logging. Auth decisions log their true
// cause here even when the HTTP response is deliberately generic, so the
// logger is the only place operators can tell sub-causes apart.
type Logger struct {
	level  int
	format string
	output io.Writer
}

var levelNames = map[string]int{
	"debug": 0,
	"info":  1,
	"warn":  2,
	"error": 3,
}

// NewLogger creates a new logger. Unknown levels fall back to info; an
// unopenable log file falls back to stdout.
func NewLogger(level, format, output string) *Logger {
	var out io.Writer
	switch output {
	case "stdout", "":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	default:
		file, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("Failed to open log file %s: %v, using stdout", output, err)
			out = os.Stdout
		} else {
			out = file
		}
	}

	lv, ok := levelNames[level]
	if !ok {
		lv = levelNames["info"]
	}

	return &Logger{
		level:  lv,
		format: format,
		output: out,
	}
}

type logEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func (l *Logger) log(level, message string, fields map[string]interface{}) {
	if levelNames[level] < l.level {
		return
	}

	entry := logEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level,
		Message:   message,
		Fields:    fields,
	}

	if l.format == "json" {
		data, _ := json.Marshal(entry)
		fmt.Fprintln(l.output, string(data))
		return
	}

	fieldStr := ""
	if len(fields) > 0 {
		fieldStr = fmt.Sprintf(" %+v", fields)
	}
	fmt.Fprintf(l.output, "[%s] %s: %s%s\n", entry.Timestamp, level, message, fieldStr)
}

// Debug logs a debug message
func (l *Logger) Debug(message string, fields map[string]interface{}) {
	l.log("debug", message, fields)
}

// Info logs an info message
func (l *Logger) Info(message string, fields map[string]interface{}) {
	l.log("info", message, fields)
}

// Warn logs a warning message
func (l *Logger) Warn(message string, fields map[string]interface{}) {
	l.log("warn", message, fields)
}

// Error logs an error message
func (l *Logger) Error(message string, err error, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	l.log("error", message, fields)
}
