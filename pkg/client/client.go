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

// Package client talks to a running tokens-codex server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"k8s.io/klog/v2"

	v1 "github.com/volcano-sh/tokens-codex/pkg/apis/v1"
)

type ErrHTTPRequest struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e ErrHTTPRequest) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("HTTP %d: %s: %v", e.StatusCode, e.Message, e.Cause)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

func (e ErrHTTPRequest) Unwrap() error {
	return e.Cause
}

type Client struct {
	baseURL string
	http    *retryablehttp.Client
}

type Option func(*retryablehttp.Client)

// WithRetry sets the number of retries and the longest wait between them.
func WithRetry(max int, waitMax time.Duration) Option {
	return func(c *retryablehttp.Client) {
		c.RetryMax = max
		c.RetryWaitMax = waitMax
		if c.RetryWaitMin > waitMax {
			c.RetryWaitMin = waitMax
		}
	}
}

// New creates a client for the server at baseURL, e.g. http://localhost:3000.
// Connection errors and 5xx answers are retried; rate limiting is not.
func New(baseURL string, opts ...Option) *Client {
	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = 3
	rc.RetryWaitMax = 5 * time.Second
	rc.HTTPClient.Timeout = 30 * time.Second
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
			return false, nil
		}
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	rc.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			klog.V(2).Infof("retrying %s %s (attempt %d)", req.Method, req.URL, attempt+1)
		}
	}
	for _, opt := range opts {
		opt(rc)
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: rc}
}

func (c *Client) Tokenize(ctx context.Context, text string) (*v1.TokenizeResponse, error) {
	var out v1.TokenizeResponse
	if err := c.post(ctx, v1.TokenizePath, v1.TextRequest{Text: text}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Detect(ctx context.Context, text string) (*v1.DetectResponse, error) {
	var out v1.DetectResponse
	if err := c.post(ctx, v1.DetectPath, v1.TextRequest{Text: text}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Compare returns parse failures as a response in the parse_error state, not as an error.
func (c *Client) Compare(ctx context.Context, text string) (*v1.CompareResponse, error) {
	var out v1.CompareResponse
	if err := c.post(ctx, v1.ComparePath, v1.TextRequest{Text: text}, &out, http.StatusOK, http.StatusUnprocessableEntity); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Convert(ctx context.Context, text, to string) (*v1.ConvertResponse, error) {
	var out v1.ConvertResponse
	if err := c.post(ctx, v1.ConvertPath, v1.ConvertRequest{Text: text, To: to}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any, accepted ...int) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	data, status, err := c.do(req)
	if err != nil {
		return err
	}
	if !contains(accepted, status) {
		return ErrHTTPRequest{StatusCode: status, Message: errorMessage(data)}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(req *retryablehttp.Request) ([]byte, int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request to %s failed: %w", req.URL, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			klog.Errorf("failed to close response body: %v", err)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, ErrHTTPRequest{StatusCode: resp.StatusCode, Message: "failed to read response", Cause: err}
	}
	return data, resp.StatusCode, nil
}

func errorMessage(data []byte) string {
	var e v1.ErrorResponse
	if err := json.Unmarshal(data, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(bytes.TrimSpace(data)))
}

func contains(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
