/*
Copyright The Volcano Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package accesslog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// LogFormat selects how entries are rendered.
type LogFormat string

const (
	FormatJSON LogFormat = "json"
	FormatText LogFormat = "text"
)

// AccessLoggerConfig configures the access logger.
// Output is "stdout", "stderr" or a file path that is appended to.
type AccessLoggerConfig struct {
	Enabled bool      `json:"enabled"`
	Format  LogFormat `json:"format,omitempty"`
	Output  string    `json:"output,omitempty"`
}

func DefaultAccessLoggerConfig() *AccessLoggerConfig {
	return &AccessLoggerConfig{
		Enabled: true,
		Format:  FormatJSON,
		Output:  "stdout",
	}
}

// DurationInfo holds phase durations in milliseconds.
type DurationInfo struct {
	Total              int64 `json:"total"`
	RequestProcessing  int64 `json:"request_processing"`
	Compute            int64 `json:"compute"`
	ResponseProcessing int64 `json:"response_processing"`
}

type ErrorInfo struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// AccessLogEntry is one access log line.
type AccessLogEntry struct {
	Timestamp    time.Time     `json:"timestamp"`
	Method       string        `json:"method"`
	Path         string        `json:"path"`
	Protocol     string        `json:"protocol"`
	StatusCode   int           `json:"status_code"`
	RequestID    string        `json:"request_id,omitempty"`
	ClientIP     string        `json:"client_ip,omitempty"`
	InputFormat  string        `json:"input_format,omitempty"`
	TargetFormat string        `json:"target_format,omitempty"`
	Records      int           `json:"records,omitempty"`
	InputTokens  int           `json:"input_tokens,omitempty"`
	OutputTokens int           `json:"output_tokens,omitempty"`
	Duration     *DurationInfo `json:"duration,omitempty"`
	Error        *ErrorInfo    `json:"error,omitempty"`
}

// AccessLogger writes access log entries.
type AccessLogger interface {
	Log(entry *AccessLogEntry) error
	Close() error
}

// NewAccessLogger creates a logger for config. A nil config uses the defaults;
// a disabled config yields a logger that discards everything.
func NewAccessLogger(config *AccessLoggerConfig) (AccessLogger, error) {
	if config == nil {
		config = DefaultAccessLoggerConfig()
	}
	if !config.Enabled {
		return &noopAccessLogger{}, nil
	}

	switch config.Format {
	case FormatJSON, FormatText:
	case "":
		config.Format = FormatJSON
	default:
		return nil, fmt.Errorf("unknown access log format %q", config.Format)
	}

	logger := &accessLoggerImpl{config: config}
	switch config.Output {
	case "", "stdout":
		logger.writer = os.Stdout
	case "stderr":
		logger.writer = os.Stderr
	default:
		file, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open access log file %s: %w", config.Output, err)
		}
		logger.writer = file
		logger.closer = file
	}
	return logger, nil
}

type accessLoggerImpl struct {
	config *AccessLoggerConfig
	mutex  sync.Mutex
	writer io.Writer
	closer io.Closer
}

func (l *accessLoggerImpl) Log(entry *AccessLogEntry) error {
	var (
		line string
		err  error
	)
	if l.config.Format == FormatText {
		line, err = l.formatText(entry)
	} else {
		line, err = l.formatJSON(entry)
	}
	if err != nil {
		return err
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()
	_, err = io.WriteString(l.writer, line+"\n")
	return err
}

func (l *accessLoggerImpl) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func (l *accessLoggerImpl) formatJSON(entry *AccessLogEntry) (string, error) {
	b, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("failed to marshal access log entry: %w", err)
	}
	return string(b), nil
}

func (l *accessLoggerImpl) formatText(entry *AccessLogEntry) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] \"%s %s %s\" %d",
		entry.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"),
		entry.Method, entry.Path, entry.Protocol, entry.StatusCode)
	if entry.Duration != nil {
		fmt.Fprintf(&b, " %dms", entry.Duration.Total)
	}
	if entry.InputFormat != "" {
		fmt.Fprintf(&b, " format=%s", entry.InputFormat)
	}
	if entry.TargetFormat != "" {
		fmt.Fprintf(&b, " to=%s", entry.TargetFormat)
	}
	if entry.Records > 0 {
		fmt.Fprintf(&b, " records=%d", entry.Records)
	}
	if entry.InputTokens > 0 || entry.OutputTokens > 0 {
		fmt.Fprintf(&b, " tokens=%d/%d", entry.InputTokens, entry.OutputTokens)
	}
	if entry.ClientIP != "" {
		fmt.Fprintf(&b, " client=%s", entry.ClientIP)
	}
	if entry.RequestID != "" {
		fmt.Fprintf(&b, " request_id=%s", entry.RequestID)
	}
	if entry.Duration != nil {
		fmt.Fprintf(&b, " timings=%d+%d+%dms",
			entry.Duration.RequestProcessing, entry.Duration.Compute, entry.Duration.ResponseProcessing)
	}
	if entry.Error != nil {
		fmt.Fprintf(&b, " error=%s:%s", entry.Error.Type, entry.Error.Message)
	}
	return b.String(), nil
}

type noopAccessLogger struct{}

func (n *noopAccessLogger) Log(entry *AccessLogEntry) error {
	return nil
}

func (n *noopAccessLogger) Close() error {
	return nil
}
