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

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	v1 "github.com/volcano-sh/tokens-codex/pkg/apis/v1"
	"github.com/volcano-sh/tokens-codex/pkg/compare"
	"github.com/volcano-sh/tokens-codex/pkg/debug"
	"github.com/volcano-sh/tokens-codex/pkg/format"
	"github.com/volcano-sh/tokens-codex/pkg/metrics"
	"github.com/volcano-sh/tokens-codex/pkg/ratelimit"
	"github.com/volcano-sh/tokens-codex/pkg/server/accesslog"
)

const (
	errorTypeKey = "error_type"

	ErrorTypeBadRequest      = "bad_request"
	ErrorTypePayloadTooLarge = "payload_too_large"
	ErrorTypeRateLimited     = "rate_limited"
	ErrorTypeParse           = "parse_error"
	ErrorTypeInternal        = "internal"
)

// abort answers with a JSON error body and tags the request for logs and metrics.
func abort(c *gin.Context, status int, errorType string, err error) {
	accesslog.SetError(c, errorType, err.Error())
	c.Set(errorTypeKey, errorType)
	c.AbortWithStatusJSON(status, v1.ErrorResponse{Error: err.Error()})
}

// bindJSON decodes the body into obj, enforcing the configured size limit.
func (s *Server) bindJSON(c *gin.Context, obj any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxInputBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abort(c, http.StatusRequestEntityTooLarge, ErrorTypePayloadTooLarge,
				fmt.Errorf("request body exceeds %d bytes", s.config.MaxInputBytes))
			return false
		}
		abort(c, http.StatusBadRequest, ErrorTypeBadRequest, fmt.Errorf("failed to read request body: %w", err))
		return false
	}
	if err := json.Unmarshal(body, obj); err != nil {
		abort(c, http.StatusBadRequest, ErrorTypeBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

// admit charges the client for text. It returns the input token count.
func (s *Server) admit(c *gin.Context, text string) (int, bool) {
	path := c.FullPath()
	tokens, err := s.limiter.RateLimit(c.ClientIP(), text)
	if err != nil {
		var exceeded *ratelimit.InputRateLimitExceededError
		if errors.As(err, &exceeded) {
			s.metrics.RecordRateLimitExceeded(metrics.LimitTypeInputTokens, path)
			abort(c, http.StatusTooManyRequests, ErrorTypeRateLimited, err)
			return 0, false
		}
		klog.Errorf("rate limiting %s failed: %v", c.ClientIP(), err)
		abort(c, http.StatusInternalServerError, ErrorTypeInternal, err)
		return 0, false
	}
	s.metrics.RecordInputTokens(path, tokens)
	return tokens, true
}

func (s *Server) handleTokenize(c *gin.Context) {
	var req v1.TextRequest
	if !s.bindJSON(c, &req) {
		return
	}
	if _, ok := s.admit(c, req.Text); !ok {
		return
	}
	accesslog.MarkRequestProcessingEnd(c)

	segments := s.tokenizer.Tokenize(req.Text)
	stats := s.tokenizer.Stats(req.Text)
	accesslog.SetTokenCounts(c, len(segments), 0)
	accesslog.MarkComputeEnd(c)

	c.JSON(http.StatusOK, v1.NewTokenizeResponse(segments, stats))
	accesslog.MarkResponseProcessingEnd(c)
}

func (s *Server) handleDetect(c *gin.Context) {
	var req v1.TextRequest
	if !s.bindJSON(c, &req) {
		return
	}
	accesslog.MarkRequestProcessingEnd(c)

	kind := format.Detect(req.Text)
	accesslog.SetFormats(c, string(kind), "")
	accesslog.MarkComputeEnd(c)

	c.JSON(http.StatusOK, v1.DetectResponse{Format: kind, Name: kind.DisplayName()})
	accesslog.MarkResponseProcessingEnd(c)
}

func (s *Server) handleCompare(c *gin.Context) {
	var req v1.TextRequest
	if !s.bindJSON(c, &req) {
		return
	}
	inputTokens, ok := s.admit(c, req.Text)
	if !ok {
		return
	}
	accesslog.MarkRequestProcessingEnd(c)

	out := s.compare(accesslog.RequestID(c), "api", req.Text)
	accesslog.SetFormats(c, string(out.Format), "")
	accesslog.SetRecords(c, len(out.Records))
	accesslog.SetTokenCounts(c, inputTokens, totalTokens(out))
	accesslog.MarkComputeEnd(c)

	status := http.StatusOK
	if out.State == compare.StateParseError {
		status = http.StatusUnprocessableEntity
		accesslog.SetError(c, ErrorTypeParse, out.Err.Error())
		c.Set(errorTypeKey, ErrorTypeParse)
	}
	c.JSON(status, v1.NewCompareResponse(out))
	accesslog.MarkResponseProcessingEnd(c)
}

func (s *Server) handleConvert(c *gin.Context) {
	var req v1.ConvertRequest
	if !s.bindJSON(c, &req) {
		return
	}
	to, err := format.ParseKind(req.To)
	if err != nil {
		abort(c, http.StatusBadRequest, ErrorTypeBadRequest, err)
		return
	}
	inputTokens, ok := s.admit(c, req.Text)
	if !ok {
		return
	}
	accesslog.MarkRequestProcessingEnd(c)

	conv, err := s.comparator.Convert(req.Text, to)
	accesslog.SetFormats(c, string(conv.From), string(to))
	accesslog.MarkComputeEnd(c)
	if err != nil {
		if errors.Is(err, compare.ErrNoInput) {
			abort(c, http.StatusBadRequest, ErrorTypeBadRequest, err)
			return
		}
		abort(c, http.StatusUnprocessableEntity, ErrorTypeParse, compare.ErrCouldNotParse)
		return
	}
	s.metrics.RecordSerializedTokens(string(to), conv.Tokens)
	accesslog.SetTokenCounts(c, inputTokens, conv.Tokens)

	c.JSON(http.StatusOK, conv)
	accesslog.MarkResponseProcessingEnd(c)
}

// compare serves from the cache when possible and records metrics and history.
func (s *Server) compare(id, source, text string) compare.Outcome {
	start := time.Now()
	out, hit := s.cache.Get(text)
	if s.cache != nil {
		s.metrics.RecordCacheLookup(hit)
	}
	if !hit {
		out = s.comparator.Compare(text)
		s.cache.Add(text, out)
	}
	s.record(id, source, out, time.Since(start))
	return out
}

func (s *Server) record(id, source string, out compare.Outcome, duration time.Duration) {
	s.metrics.RecordComparison(out, duration)
	s.history.Add(debug.NewEntry(id, source, out, duration))
	klog.V(4).Infof("comparison %s from %s: state=%s format=%s records=%d in %v",
		id, source, out.State, out.Format, len(out.Records), duration)
}

func totalTokens(out compare.Outcome) int {
	total := 0
	for _, r := range out.Results {
		total += r.Tokens
	}
	return total
}
