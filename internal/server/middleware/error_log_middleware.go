package middleware

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/solace-dev/export-worker/internal/config"
	"github.com/solace-dev/export-worker/internal/obs"
)

// FilterContext provides the context for filter expression evaluation
type FilterContext struct {
	StatusCode   int    `expr:"StatusCode"`
	Method       string `expr:"Method"`
	Path         string `expr:"Path"`
	Query        string `expr:"Query"`
	ExportStatus string `expr:"ExportStatus"`
	Format       string `expr:"Format"`
}

// ErrorLogMiddleware appends one JSON line per selected request to a rotated
// log file. Only request metadata is written; bodies and credentials never are.
type ErrorLogMiddleware struct {
	mu            sync.Mutex
	out           io.WriteCloser
	filterProgram *vm.Program
}

// NewErrorLogMiddleware opens a rotated log at logPath and compiles filter.
// An empty filter means config.DefaultErrorLogFilter.
func NewErrorLogMiddleware(logPath, filter string) (*ErrorLogMiddleware, error) {
	program, err := compileFilter(filter)
	if err != nil {
		return nil, err
	}
	return &ErrorLogMiddleware{
		out:           obs.NewRotatingWriter(obs.DefaultLogRotationConfig(logPath)),
		filterProgram: program,
	}, nil
}

// newErrorLogMiddlewareWriter is used by tests to capture entries.
func newErrorLogMiddlewareWriter(out io.WriteCloser, filter string) (*ErrorLogMiddleware, error) {
	program, err := compileFilter(filter)
	if err != nil {
		return nil, err
	}
	return &ErrorLogMiddleware{out: out, filterProgram: program}, nil
}

func compileFilter(expression string) (*vm.Program, error) {
	if expression == "" {
		expression = config.DefaultErrorLogFilter
	}
	program, err := expr.Compile(expression, expr.Env(FilterContext{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("failed to compile filter expression: %w", err)
	}
	return program, nil
}

// logEntry represents a single log entry
type logEntry struct {
	Timestamp     string `json:"timestamp"`
	RequestID     string `json:"request_id,omitempty"`
	Method        string `json:"method"`
	Path          string `json:"path"`
	Query         string `json:"query,omitempty"`
	StatusCode    int    `json:"status_code"`
	ExportStatus  string `json:"export_status,omitempty"`
	Format        string `json:"format,omitempty"`
	DurationMs    int64  `json:"duration_ms"`
	ContentLength int64  `json:"content_length"`
	UserAgent     string `json:"user_agent,omitempty"`
	ClientIP      string `json:"client_ip,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Middleware returns the Gin middleware function
func (dm *ErrorLogMiddleware) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := &logEntry{
			Timestamp:     start.Format(time.RFC3339Nano),
			RequestID:     RequestIDFrom(c),
			Method:        c.Request.Method,
			Path:          c.Request.URL.Path,
			Query:         c.Request.URL.RawQuery,
			StatusCode:    c.Writer.Status(),
			ExportStatus:  c.GetString(ContextKeyExportStatus),
			Format:        c.GetString(ContextKeyExportFormat),
			DurationMs:    time.Since(start).Milliseconds(),
			ContentLength: c.Request.ContentLength,
			UserAgent:     c.GetHeader("User-Agent"),
			ClientIP:      c.ClientIP(),
		}
		if last := c.Errors.Last(); last != nil {
			entry.Error = last.Error()
		}
		dm.logEntry(entry)
	}
}

// logEntry writes entry when the filter selects it
func (dm *ErrorLogMiddleware) logEntry(entry *logEntry) {
	out, err := expr.Run(dm.filterProgram, FilterContext{
		StatusCode:   entry.StatusCode,
		Method:       entry.Method,
		Path:         entry.Path,
		Query:        entry.Query,
		ExportStatus: entry.ExportStatus,
		Format:       entry.Format,
	})
	if err != nil {
		logrus.Errorf("Failed to evaluate filter expression: %v", err)
		return
	}
	if selected, _ := out.(bool); !selected {
		return
	}

	line, err := json.Marshal(entry)
	if err != nil {
		logrus.Errorf("Failed to marshal error log entry: %v", err)
		return
	}
	line = append(line, '\n')

	dm.mu.Lock()
	defer dm.mu.Unlock()
	if dm.out == nil {
		return
	}
	if _, err := dm.out.Write(line); err != nil {
		logrus.Errorf("Failed to write error log entry: %v", err)
	}
}

// Stop closes the log file
func (dm *ErrorLogMiddleware) Stop() {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.out != nil {
		if err := dm.out.Close(); err != nil {
			logrus.Errorf("Failed to close error log: %v", err)
		}
		dm.out = nil
	}
}
