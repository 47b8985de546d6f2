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

// Package server exposes the tokenizer and the format comparison over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/klog/v2"

	v1 "github.com/volcano-sh/tokens-codex/pkg/apis/v1"
	"github.com/volcano-sh/tokens-codex/pkg/cache"
	"github.com/volcano-sh/tokens-codex/pkg/compare"
	"github.com/volcano-sh/tokens-codex/pkg/config"
	"github.com/volcano-sh/tokens-codex/pkg/debug"
	"github.com/volcano-sh/tokens-codex/pkg/metrics"
	"github.com/volcano-sh/tokens-codex/pkg/ratelimit"
	"github.com/volcano-sh/tokens-codex/pkg/server/accesslog"
	"github.com/volcano-sh/tokens-codex/pkg/tokenizer"
)

const gracefulShutdownTimeout = 15 * time.Second

type Server struct {
	config     *config.Config
	tokenizer  *tokenizer.Tokenizer
	comparator *compare.Comparator
	limiter    *ratelimit.TokenRateLimiter
	cache      *cache.ComparisonCache
	history    *debug.History
	metrics    *metrics.Metrics
	registry   *prometheus.Registry
	accessLog  accesslog.AccessLogger
	engine     *gin.Engine
	ready      atomic.Bool
}

type Option func(*Server)

// WithTokenizer reuses an already loaded tokenizer.
func WithTokenizer(t *tokenizer.Tokenizer) Option {
	return func(s *Server) {
		s.tokenizer = t
	}
}

// WithAccessLogger replaces the logger built from the configuration.
func WithAccessLogger(l accesslog.AccessLogger) Option {
	return func(s *Server) {
		s.accessLog = l
	}
}

// New wires every component described by cfg. The caller must Close the server.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		config:   cfg,
		history:  debug.NewHistory(cfg.HistorySize),
		registry: prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.tokenizer == nil {
		tok, err := tokenizer.New()
		if err != nil {
			return nil, fmt.Errorf("failed to load tokenizer: %w", err)
		}
		s.tokenizer = tok
	}
	s.comparator = compare.NewComparator(s.tokenizer)

	s.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	s.metrics = metrics.NewMetrics(s.registry)

	var err error
	if s.cache, err = cache.NewComparisonCache(cfg.CacheSize); err != nil {
		return nil, fmt.Errorf("failed to create comparison cache: %w", err)
	}
	if s.limiter, err = ratelimit.NewTokenRateLimiter(s.tokenizer, cfg.RateLimit); err != nil {
		return nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}
	if s.accessLog == nil {
		if s.accessLog, err = accesslog.NewAccessLogger(&cfg.AccessLog); err != nil {
			s.limiter.Close()
			return nil, fmt.Errorf("failed to create access logger: %w", err)
		}
	}

	s.engine = s.newEngine()
	return s, nil
}

func (s *Server) newEngine() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), s.metricsMiddleware(), accesslog.AccessLogMiddleware(s.accessLog))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "ok",
		})
	})
	engine.GET("/readyz", func(c *gin.Context) {
		if s.ready.Load() {
			c.JSON(http.StatusOK, gin.H{
				"message": "server is ready",
			})
		} else {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"message": "server is not ready",
			})
		}
	})
	engine.GET(v1.MetricsPath, gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	engine.GET("/", s.index)
	engine.POST(v1.TokenizePath, s.handleTokenize)
	engine.POST(v1.DetectPath, s.handleDetect)
	engine.POST(v1.ComparePath, s.handleCompare)
	engine.POST(v1.ConvertPath, s.handleConvert)
	engine.GET(v1.CompareLivePath, s.handleLive)

	debugHandler := debug.NewDebugHandler(s.history)
	engine.GET("/debug/comparisons", debugHandler.ListComparisons)
	engine.GET("/debug/comparisons/:id", debugHandler.GetComparison)

	return engine
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// SetReady controls the answer of /readyz.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if s.config.TLSEnabled() {
			klog.Infof("Serving HTTPS on %s", server.Addr)
			err = server.ListenAndServeTLS(s.config.TLSCert, s.config.TLSKey)
		} else {
			klog.Infof("Serving HTTP on %s", server.Addr)
			err = server.ListenAndServe()
		}
		errCh <- err
	}()
	s.SetReady(true)

	select {
	case err := <-errCh:
		s.SetReady(false)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.SetReady(false)
	klog.Info("Shutting down HTTP server ...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		klog.Errorf("Server shutdown failed: %v", err)
		return err
	}
	klog.Info("HTTP server exited")
	return nil
}

func (s *Server) Close() error {
	return errors.Join(s.limiter.Close(), s.accessLog.Close())
}
