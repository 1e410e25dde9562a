// Package logging provides the structured, leveled logger shared across the
// engine: JSON-line file output, a colorized console writer, and a
// side-channel error log that preserves rich diagnostic context (status
// code, captured HTML, stack trace) for failed extractions.
package logging

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nickheyer/crawlkit/internal/crawlerr"
)

const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
	LevelFatal = "FATAL"
)

// Entry is one structured log record.
type Entry struct {
	ID        string         `json:"id"`
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Source    string         `json:"source"`
	File      string         `json:"file,omitempty"`
	Line      int            `json:"line,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// ExtractionFailure wraps a *crawlerr.Error with the run-time context a
// diagnostician needs: the URL being fetched, the rule/flow/field that
// failed, and optionally a captured HTML snippet or WebView screenshot.
type ExtractionFailure struct {
	ID            string         `json:"id"`
	Err           *crawlerr.Error `json:"error"`
	URL           string         `json:"url,omitempty"`
	RuleName      string         `json:"ruleName,omitempty"`
	FlowName      string         `json:"flowName,omitempty"`
	FieldName     string         `json:"fieldName,omitempty"`
	RawHTML       string         `json:"rawHtml,omitempty"`
	StackTrace    string         `json:"stackTrace,omitempty"`
	ScreenshotURL string         `json:"screenshotUrl,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

func NewExtractionFailure(err *crawlerr.Error, url, ruleName, flowName, fieldName string) *ExtractionFailure {
	return &ExtractionFailure{
		ID:        uuid.New().String(),
		Err:       err,
		URL:       url,
		RuleName:  ruleName,
		FlowName:  flowName,
		FieldName: fieldName,
		Timestamp: time.Now(),
		Metadata:  map[string]any{},
	}
}

func (f *ExtractionFailure) WithHTML(html string) *ExtractionFailure {
	if len(html) > 10000 {
		f.RawHTML = html[:10000] + "... [truncated]"
	} else {
		f.RawHTML = html
	}
	return f
}

func (f *ExtractionFailure) WithStackTrace() *ExtractionFailure {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	f.StackTrace = string(buf[:n])
	return f
}

func (f *ExtractionFailure) WithScreenshot(dataURL string) *ExtractionFailure {
	f.ScreenshotURL = dataURL
	return f
}

func (f *ExtractionFailure) WithMetadata(key string, value any) *ExtractionFailure {
	f.Metadata[key] = value
	return f
}

// Logger is the process-wide structured logger.
type Logger struct {
	mu        sync.Mutex
	logFile   *os.File
	errorFile *os.File
	errorDir  string
	minLevel  string
	console   bool
}

var (
	defaultLogger *Logger
	loggerOnce    sync.Once
)

// Get returns the singleton logger, lazily constructing one that writes
// under dir (created via New on first call). Subsequent calls ignore dir.
func Get(dir string) *Logger {
	loggerOnce.Do(func() {
		l, err := New(dir, LevelInfo, true)
		if err != nil {
			log.Printf("logging: failed to initialize file logger, falling back to console only: %v", err)
			l = &Logger{minLevel: LevelInfo, console: true}
		}
		defaultLogger = l
	})
	return defaultLogger
}

// New builds a standalone logger rooted at dir.
func New(dir, minLevel string, console bool) (*Logger, error) {
	if dir == "" {
		return &Logger{minLevel: minLevel, console: console}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: create log dir: %w", err)
	}
	logFile, err := os.OpenFile(filepath.Join(dir, "crawlkit.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	errorFile, err := os.OpenFile(filepath.Join(dir, "errors.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("logging: open error file: %w", err)
	}
	return &Logger{
		logFile:   logFile,
		errorFile: errorFile,
		errorDir:  filepath.Join(dir, "error_details"),
		minLevel:  minLevel,
		console:   console,
	}, nil
}

func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.logFile != nil {
		l.logFile.Close()
		l.logFile = nil
	}
	if l.errorFile != nil {
		l.errorFile.Close()
		l.errorFile = nil
	}
}

var levelRank = map[string]int{LevelDebug: 0, LevelInfo: 1, LevelWarn: 2, LevelError: 3, LevelFatal: 4}

func (l *Logger) enabled(level string) bool {
	min, ok := levelRank[l.minLevel]
	cur, ok2 := levelRank[level]
	if !ok || !ok2 {
		return true
	}
	return cur >= min
}

func (l *Logger) Log(level, message string, data map[string]any) {
	if !l.enabled(level) {
		return
	}
	entry := Entry{
		ID:        uuid.New().String(),
		Timestamp: time.Now().Format(time.RFC3339),
		Level:     level,
		Message:   message,
		Source:    "crawlkit",
		Data:      data,
	}
	if _, file, line, ok := runtime.Caller(2); ok {
		entry.File = filepath.Base(file)
		entry.Line = line
	}

	jsonData, err := json.Marshal(entry)
	if err != nil {
		log.Printf("logging: marshal entry: %v", err)
		return
	}

	if l.console {
		var color string
		switch level {
		case LevelDebug:
			color = "\033[36m"
		case LevelInfo:
			color = "\033[32m"
		case LevelWarn:
			color = "\033[33m"
		case LevelError:
			color = "\033[31m"
		case LevelFatal:
			color = "\033[35m"
		default:
			color = "\033[0m"
		}
		fmt.Printf("%s[%s] %s\033[0m %s\n", color, level, entry.Timestamp, entry.Message)
		if len(data) > 0 {
			dataJSON, _ := json.MarshalIndent(data, "  ", "  ")
			fmt.Printf("  %s\n", dataJSON)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.logFile != nil {
		l.logFile.Write(jsonData)
		l.logFile.Write([]byte("\n"))
	}
	if (level == LevelError || level == LevelFatal) && l.errorFile != nil {
		l.errorFile.Write(jsonData)
		l.errorFile.Write([]byte("\n"))
	}
}

func (l *Logger) Debug(msg string, data map[string]any) { l.Log(LevelDebug, msg, data) }
func (l *Logger) Info(msg string, data map[string]any)  { l.Log(LevelInfo, msg, data) }
func (l *Logger) Warn(msg string, data map[string]any)  { l.Log(LevelWarn, msg, data) }
func (l *Logger) Error(msg string, data map[string]any) { l.Log(LevelError, msg, data) }
func (l *Logger) Fatal(msg string, data map[string]any) { l.Log(LevelFatal, msg, data) }

// LogExtractionFailure logs the failure and, when the logger is file-backed,
// persists the extended diagnostic payload (error JSON, HTML snippet,
// screenshot) under errorDir/<ruleName>/<failureID>.*.
func (l *Logger) LogExtractionFailure(f *ExtractionFailure) {
	data := map[string]any{
		"failure_id": f.ID,
		"rule":       f.RuleName,
		"flow":       f.FlowName,
		"field":      f.FieldName,
		"url":        f.URL,
		"timestamp":  f.Timestamp.Format(time.RFC3339),
	}
	for k, v := range f.Metadata {
		data[k] = v
	}
	l.Error(f.Err.Error(), data)

	if l.errorDir == "" {
		return
	}
	dir := filepath.Join(l.errorDir, safePathComponent(f.RuleName))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		l.Error("logging: failed to create error detail directory", map[string]any{"error": err.Error(), "path": dir})
		return
	}
	payload, _ := json.MarshalIndent(f, "", "  ")
	if err := os.WriteFile(filepath.Join(dir, f.ID+".json"), payload, 0o644); err != nil {
		l.Error("logging: failed to write error detail", map[string]any{"error": err.Error()})
		return
	}
	if f.RawHTML != "" {
		_ = os.WriteFile(filepath.Join(dir, f.ID+".html"), []byte(f.RawHTML), 0o644)
	}
	if strings.HasPrefix(f.ScreenshotURL, "data:image/") {
		if parts := strings.SplitN(f.ScreenshotURL, ",", 2); len(parts) == 2 {
			if raw, decErr := base64.StdEncoding.DecodeString(parts[1]); decErr == nil {
				_ = os.WriteFile(filepath.Join(dir, f.ID+".png"), raw, 0o644)
			}
		}
	}
}

func safePathComponent(s string) string {
	if s == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
