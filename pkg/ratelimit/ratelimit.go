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

// Package ratelimit charges clients for the tokens they submit and rejects
// requests once a client's per-unit token budget is spent.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
	"k8s.io/klog/v2"
)

const (
	defaultMaxClients = 10000
	redisKeyPrefix    = "tokens-codex:ratelimit"
)

type InputRateLimitExceededError struct{}

func (e InputRateLimitExceededError) Error() string {
	return "input token rate limit exceeded"
}

// Unit is the period a token budget refills over.
type Unit string

const (
	Second Unit = "second"
	Minute Unit = "minute"
	Hour   Unit = "hour"
	Day    Unit = "day"
	Month  Unit = "month"
)

// Duration returns the length of the unit. A month is approximated as 30 days.
func (u Unit) Duration() (time.Duration, error) {
	switch u {
	case Second:
		return time.Second, nil
	case Minute:
		return time.Minute, nil
	case Hour:
		return time.Hour, nil
	case Day:
		return 24 * time.Hour, nil
	case Month:
		return 30 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown rate limit unit: %q", u)
	}
}

type RedisConfig struct {
	Address  string `json:"address,omitempty"`
	Password string `json:"password,omitempty"`
	DB       int    `json:"db,omitempty"`
}

// Config describes the token budget of every client. A zero TokensPerUnit disables limiting.
// With Redis set the budget is shared by all server replicas.
type Config struct {
	TokensPerUnit uint32       `json:"tokensPerUnit,omitempty"`
	Unit          Unit         `json:"unit,omitempty"`
	Redis         *RedisConfig `json:"redis,omitempty"`
}

// Limiter is implemented by *rate.Limiter and GlobalRateLimiter.
type Limiter interface {
	AllowN(now time.Time, n int) bool
	Tokens() float64
}

// TokenCounter prices a request in tokens.
type TokenCounter interface {
	CalculateTokenNum(string) (int, error)
}

type TokenRateLimiter struct {
	mutex sync.Mutex
	// limiter by client
	limiters    *lru.Cache[string, Limiter]
	config      Config
	unit        time.Duration
	redisClient *redis.Client
	tokenizer   TokenCounter
}

// NewTokenRateLimiter validates cfg and, for a global budget, pings redis.
func NewTokenRateLimiter(counter TokenCounter, cfg Config) (*TokenRateLimiter, error) {
	limiters, err := lru.New[string, Limiter](defaultMaxClients)
	if err != nil {
		return nil, err
	}
	r := &TokenRateLimiter{
		limiters:  limiters,
		config:    cfg,
		tokenizer: counter,
	}
	if cfg.TokensPerUnit == 0 {
		return r, nil
	}

	if r.unit, err = cfg.Unit.Duration(); err != nil {
		return nil, err
	}

	if cfg.Redis != nil && cfg.Redis.Address != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Address, err)
		}
		r.redisClient = client
		klog.Infof("global rate limiting enabled: %d tokens per %s via redis %s", cfg.TokensPerUnit, cfg.Unit, cfg.Redis.Address)
	} else {
		klog.Infof("local rate limiting enabled: %d tokens per %s", cfg.TokensPerUnit, cfg.Unit)
	}
	return r, nil
}

func (r *TokenRateLimiter) Enabled() bool {
	return r.config.TokensPerUnit > 0
}

// RateLimit charges client for the tokens in text. It returns the charged
// token count, and InputRateLimitExceededError when the budget cannot cover it.
func (r *TokenRateLimiter) RateLimit(client, text string) (int, error) {
	size, err := r.tokenizer.CalculateTokenNum(text)
	if err != nil {
		return 0, err
	}
	if !r.Enabled() || size == 0 {
		return size, nil
	}

	if !r.limiterFor(client).AllowN(time.Now(), size) {
		return size, &InputRateLimitExceededError{}
	}
	return size, nil
}

// Remaining reports the tokens left in client's budget, or -1 when limiting is disabled.
func (r *TokenRateLimiter) Remaining(client string) float64 {
	if !r.Enabled() {
		return -1
	}
	return r.limiterFor(client).Tokens()
}

func (r *TokenRateLimiter) limiterFor(client string) Limiter {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if limiter, ok := r.limiters.Get(client); ok {
		return limiter
	}

	var limiter Limiter
	if r.redisClient != nil {
		limiter = NewGlobalRateLimiter(r.redisClient, redisKeyPrefix, client, r.config.TokensPerUnit, r.unit)
	} else {
		perSecond := rate.Limit(float64(r.config.TokensPerUnit) / r.unit.Seconds())
		limiter = rate.NewLimiter(perSecond, int(r.config.TokensPerUnit))
	}
	r.limiters.Add(client, limiter)
	return limiter
}

func (r *TokenRateLimiter) Close() error {
	if r.redisClient == nil {
		return nil
	}
	return r.redisClient.Close()
}
