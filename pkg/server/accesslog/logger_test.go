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
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntry() *AccessLogEntry {
	return &AccessLogEntry{
		Timestamp:    time.Date(2024, 1, 15, 10, 30, 45, 123000000, time.UTC),
		Method:       "POST",
		Path:         "/api/v1/compare",
		Protocol:     "HTTP/1.1",
		StatusCode:   200,
		RequestID:    "test-request-id",
		ClientIP:     "10.0.0.7",
		InputFormat:  "csv",
		Records:      3,
		InputTokens:  42,
		OutputTokens: 310,
		Duration: &DurationInfo{
			Total:              17,
			RequestProcessing:  1,
			Compute:            15,
			ResponseProcessing: 1,
		},
	}
}

func TestAccessLogEntry_ToJSON(t *testing.T) {
	logger := &accessLoggerImpl{config: &AccessLoggerConfig{Format: FormatJSON, Output: "stdout", Enabled: true}}
	output, err := logger.formatJSON(sampleEntry())
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(output), &parsed))

	assert.Equal(t, "POST", parsed["method"])
	assert.Equal(t, "/api/v1/compare", parsed["path"])
	assert.Equal(t, float64(200), parsed["status_code"])
	assert.Equal(t, "csv", parsed["input_format"])
	assert.Equal(t, float64(3), parsed["records"])
	assert.Equal(t, float64(42), parsed["input_tokens"])
	assert.Equal(t, float64(310), parsed["output_tokens"])
	assert.NotContains(t, parsed, "target_format")

	duration := parsed["duration"].(map[string]interface{})
	assert.Equal(t, float64(17), duration["total"])
	assert.Equal(t, float64(15), duration["compute"])
}

func TestAccessLogEntry_ToText(t *testing.T) {
	logger := &accessLoggerImpl{config: &AccessLoggerConfig{Format: FormatText, Output: "stdout", Enabled: true}}
	output, err := logger.formatText(sampleEntry())
	require.NoError(t, err)

	expectedParts := []string{
		`[2024-01-15T10:30:45.123Z]`,
		`"POST /api/v1/compare HTTP/1.1"`,
		`200 17ms`,
		`format=csv`,
		`records=3`,
		`tokens=42/310`,
		`client=10.0.0.7`,
		`request_id=test-request-id`,
		`timings=1+15+1ms`,
	}
	for _, part := range expectedParts {
		assert.Contains(t, output, part, "Output should contain: %s", part)
	}
}

func TestAccessLogEntry_WithError(t *testing.T) {
	entry := sampleEntry()
	entry.StatusCode = 422
	entry.Error = &ErrorInfo{Type: "parse_error", Message: "could not parse"}

	logger := &accessLoggerImpl{config: &AccessLoggerConfig{Format: FormatJSON}}
	output, err := logger.formatJSON(entry)
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(output), &parsed))
	errorInfo := parsed["error"].(map[string]interface{})
	assert.Equal(t, "parse_error", errorInfo["type"])

	output, err = logger.formatText(entry)
	require.NoError(t, err)
	assert.Contains(t, output, "error=parse_error:could not parse")
}

func TestAccessLogContext_Lifecycle(t *testing.T) {
	ctx := NewAccessLogContext("req-1", "POST", "/api/v1/convert", "HTTP/1.1", "127.0.0.1")
	assert.False(t, ctx.StartTime.IsZero())

	ctx.SetFormats("json", "toml")
	ctx.SetTokenCounts(10, 20)
	ctx.SetError("rate_limited", "too many tokens")

	time.Sleep(time.Millisecond)
	ctx.MarkRequestProcessingEnd()
	assert.False(t, ctx.ComputeStart.IsZero())
	time.Sleep(time.Millisecond)
	ctx.MarkComputeEnd()
	assert.False(t, ctx.ResponseProcessingStart.IsZero())
	time.Sleep(time.Millisecond)
	ctx.MarkResponseProcessingEnd()

	entry := ctx.ToAccessLogEntry(429)
	assert.Equal(t, 429, entry.StatusCode)
	assert.Equal(t, "toml", entry.TargetFormat)
	assert.Equal(t, 20, entry.OutputTokens)
	require.NotNil(t, entry.Duration)
	assert.Greater(t, entry.Duration.Total, int64(0))
	assert.Equal(t, "rate_limited", entry.Error.Type)
}

func TestNoopAccessLogger(t *testing.T) {
	logger := &noopAccessLogger{}
	assert.NoError(t, logger.Log(&AccessLogEntry{Method: "POST", Path: "/test"}))
	assert.NoError(t, logger.Close())
}

func TestAccessLoggerConfig(t *testing.T) {
	config := DefaultAccessLoggerConfig()
	assert.Equal(t, FormatJSON, config.Format)
	assert.Equal(t, "stdout", config.Output)
	assert.True(t, config.Enabled)

	config.Enabled = false
	logger, err := NewAccessLogger(config)
	require.NoError(t, err)
	assert.IsType(t, &noopAccessLogger{}, logger)

	logger, err = NewAccessLogger(nil)
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = NewAccessLogger(&AccessLoggerConfig{Enabled: true, Format: "xml"})
	assert.Error(t, err)
}

func TestAccessLoggerFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")
	logger, err := NewAccessLogger(&AccessLoggerConfig{Enabled: true, Format: FormatText, Output: path})
	require.NoError(t, err)

	require.NoError(t, logger.Log(sampleEntry()))
	require.NoError(t, logger.Log(sampleEntry()))
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "request_id=test-request-id")
}

type recordingLogger struct {
	entries []*AccessLogEntry
}

func (r *recordingLogger) Log(entry *AccessLogEntry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *recordingLogger) Close() error { return nil }

func TestAccessLogMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := &recordingLogger{}
	router := gin.New()
	router.Use(AccessLogMiddleware(logger))
	router.POST("/api/v1/compare", func(c *gin.Context) {
		MarkRequestProcessingEnd(c)
		SetFormats(c, "csv", "")
		SetRecords(c, 2)
		SetTokenCounts(c, 5, 50)
		MarkComputeEnd(c)
		c.JSON(http.StatusOK, gin.H{"ok": true})
		MarkResponseProcessingEnd(c)
	})
	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/compare", strings.NewReader("{}")))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/compare", nil)
	req.Header.Set(RequestIDHeader, "given-id")
	router.ServeHTTP(w, req)
	assert.Equal(t, "given-id", w.Header().Get(RequestIDHeader))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Len(t, logger.entries, 2)
	assert.Equal(t, "csv", logger.entries[0].InputFormat)
	assert.Equal(t, 2, logger.entries[0].Records)
	assert.Equal(t, 50, logger.entries[0].OutputTokens)
	assert.Equal(t, "given-id", logger.entries[1].RequestID)
}
