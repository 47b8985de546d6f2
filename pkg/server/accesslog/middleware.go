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
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"k8s.io/klog/v2"
)

const (
	// AccessLogContextKey is the key used to store AccessLogContext in gin.Context
	AccessLogContextKey = "access_log_context"
	// RequestIDHeader carries the request id in both directions
	RequestIDHeader = "x-request-id"
)

var skipPaths = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
	"/metrics": true,
}

// AccessLogMiddleware returns a Gin middleware that tracks request timing and metadata
func AccessLogMiddleware(logger AccessLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip logging for health check and scrape endpoints
		if skipPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		// Generate request ID if not present
		requestID := c.Request.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
			c.Request.Header.Set(RequestIDHeader, requestID)
		}
		c.Header(RequestIDHeader, requestID)

		ctx := NewAccessLogContext(
			requestID,
			c.Request.Method,
			c.Request.URL.Path,
			c.Request.Proto,
			c.ClientIP(),
		)

		// Store context in gin.Context for other handlers to access
		c.Set(AccessLogContextKey, ctx)

		c.Next()

		entry := ctx.ToAccessLogEntry(c.Writer.Status())
		if err := logger.Log(entry); err != nil {
			klog.Errorf("Failed to write access log: %v", err)
		}
	}
}

// GetAccessLogContext retrieves the AccessLogContext from gin.Context
func GetAccessLogContext(c *gin.Context) *AccessLogContext {
	if ctx, exists := c.Get(AccessLogContextKey); exists {
		if accessCtx, ok := ctx.(*AccessLogContext); ok {
			return accessCtx
		}
	}
	return nil
}

// RequestID returns the id assigned by the middleware, if any.
func RequestID(c *gin.Context) string {
	if ctx := GetAccessLogContext(c); ctx != nil {
		return ctx.RequestID
	}
	return c.GetHeader(RequestIDHeader)
}

// SetFormats sets the detected input format and the conversion target
func SetFormats(c *gin.Context, input, target string) {
	if ctx := GetAccessLogContext(c); ctx != nil {
		ctx.SetFormats(input, target)
	}
}

// SetRecords sets the number of parsed records
func SetRecords(c *gin.Context, records int) {
	if ctx := GetAccessLogContext(c); ctx != nil {
		ctx.Records = records
	}
}

// SetTokenCounts sets token counts in the access log context
func SetTokenCounts(c *gin.Context, inputTokens, outputTokens int) {
	if ctx := GetAccessLogContext(c); ctx != nil {
		ctx.SetTokenCounts(inputTokens, outputTokens)
	}
}

// SetError sets error information in the access log context
func SetError(c *gin.Context, errorType, message string) {
	if ctx := GetAccessLogContext(c); ctx != nil {
		ctx.SetError(errorType, message)
	}
}

// MarkRequestProcessingEnd marks the end of request processing phase
func MarkRequestProcessingEnd(c *gin.Context) {
	if ctx := GetAccessLogContext(c); ctx != nil {
		ctx.MarkRequestProcessingEnd()
	}
}

// MarkComputeEnd marks the end of the comparison or conversion
func MarkComputeEnd(c *gin.Context) {
	if ctx := GetAccessLogContext(c); ctx != nil {
		ctx.MarkComputeEnd()
	}
}

// MarkResponseProcessingEnd marks the end of response processing
func MarkResponseProcessingEnd(c *gin.Context) {
	if ctx := GetAccessLogContext(c); ctx != nil {
		ctx.MarkResponseProcessingEnd()
	}
}
