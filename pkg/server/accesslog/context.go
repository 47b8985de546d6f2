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
	"time"
)

// AccessLogContext accumulates request metadata while a request is handled.
type AccessLogContext struct {
	RequestID string
	Method    string
	Path      string
	Protocol  string
	ClientIP  string

	InputFormat  string
	TargetFormat string
	Records      int
	InputTokens  int
	OutputTokens int
	Error        *ErrorInfo

	StartTime               time.Time
	RequestProcessingStart  time.Time
	RequestProcessingEnd    time.Time
	ComputeStart            time.Time
	ComputeEnd              time.Time
	ResponseProcessingStart time.Time
	ResponseProcessingEnd   time.Time
}

func NewAccessLogContext(requestID, method, path, protocol, clientIP string) *AccessLogContext {
	now := time.Now()
	return &AccessLogContext{
		RequestID:              requestID,
		Method:                 method,
		Path:                   path,
		Protocol:               protocol,
		ClientIP:               clientIP,
		StartTime:              now,
		RequestProcessingStart: now,
	}
}

func (ctx *AccessLogContext) SetFormats(input, target string) {
	ctx.InputFormat = input
	ctx.TargetFormat = target
}

func (ctx *AccessLogContext) SetTokenCounts(inputTokens, outputTokens int) {
	ctx.InputTokens = inputTokens
	ctx.OutputTokens = outputTokens
}

func (ctx *AccessLogContext) SetError(errorType, message string) {
	ctx.Error = &ErrorInfo{Type: errorType, Message: message}
}

// MarkRequestProcessingEnd also starts the compute phase.
func (ctx *AccessLogContext) MarkRequestProcessingEnd() {
	now := time.Now()
	ctx.RequestProcessingEnd = now
	ctx.ComputeStart = now
}

// MarkComputeEnd also starts the response phase.
func (ctx *AccessLogContext) MarkComputeEnd() {
	now := time.Now()
	ctx.ComputeEnd = now
	ctx.ResponseProcessingStart = now
}

func (ctx *AccessLogContext) MarkResponseProcessingEnd() {
	ctx.ResponseProcessingEnd = time.Now()
}

// ToAccessLogEntry freezes the context into an entry. Phases that were never
// marked report zero.
func (ctx *AccessLogContext) ToAccessLogEntry(statusCode int) *AccessLogEntry {
	end := time.Now()
	if ctx.ResponseProcessingEnd.IsZero() {
		ctx.ResponseProcessingEnd = end
	}

	return &AccessLogEntry{
		Timestamp:    ctx.StartTime,
		Method:       ctx.Method,
		Path:         ctx.Path,
		Protocol:     ctx.Protocol,
		StatusCode:   statusCode,
		RequestID:    ctx.RequestID,
		ClientIP:     ctx.ClientIP,
		InputFormat:  ctx.InputFormat,
		TargetFormat: ctx.TargetFormat,
		Records:      ctx.Records,
		InputTokens:  ctx.InputTokens,
		OutputTokens: ctx.OutputTokens,
		Duration: &DurationInfo{
			Total:              end.Sub(ctx.StartTime).Milliseconds(),
			RequestProcessing:  phase(ctx.RequestProcessingStart, ctx.RequestProcessingEnd),
			Compute:            phase(ctx.ComputeStart, ctx.ComputeEnd),
			ResponseProcessing: phase(ctx.ResponseProcessingStart, ctx.ResponseProcessingEnd),
		},
		Error: ctx.Error,
	}
}

func phase(start, end time.Time) int64 {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	return end.Sub(start).Milliseconds()
}
