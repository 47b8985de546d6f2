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

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"k8s.io/klog/v2"
)

// takeTokensScript refills the bucket for the elapsed time and consumes the
// requested tokens when enough are available. It returns 1 on success.
var takeTokensScript = redis.NewScript(`
	local key = KEYS[1]
	local requested_tokens = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local refill_rate = tonumber(ARGV[3])
	local current_time = tonumber(ARGV[4])
	local expire_seconds = tonumber(ARGV[5])

	local bucket_data = redis.call('hmget', key, 'tokens', 'last_update')
	local current_tokens = tonumber(bucket_data[1]) or capacity
	local last_update = tonumber(bucket_data[2]) or current_time

	local time_passed = math.max(0, current_time - last_update)
	current_tokens = math.min(capacity, current_tokens + time_passed * refill_rate)

	local allowed = 0
	if current_tokens >= requested_tokens then
		current_tokens = current_tokens - requested_tokens
		allowed = 1
	end

	redis.call('hmset', key, 'tokens', current_tokens, 'last_update', current_time)
	redis.call('expire', key, expire_seconds)
	return allowed
`)

// peekTokensScript refills the bucket without consuming anything.
var peekTokensScript = redis.NewScript(`
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local refill_rate = tonumber(ARGV[2])
	local current_time = tonumber(ARGV[3])

	local bucket_data = redis.call('hmget', key, 'tokens', 'last_update')
	local current_tokens = tonumber(bucket_data[1]) or capacity
	local last_update = tonumber(bucket_data[2]) or current_time

	local time_passed = math.max(0, current_time - last_update)
	return math.floor(math.min(capacity, current_tokens + time_passed * refill_rate))
`)

// GlobalRateLimiter is a token bucket stored in redis and shared by every replica.
type GlobalRateLimiter struct {
	client    *redis.Client
	keyPrefix string
	clientID  string
	limit     uint32
	unit      time.Duration
	burst     int
}

func NewGlobalRateLimiter(client *redis.Client, keyPrefix, clientID string, limit uint32, unit time.Duration) *GlobalRateLimiter {
	return &GlobalRateLimiter{
		client:    client,
		keyPrefix: keyPrefix,
		clientID:  clientID,
		limit:     limit,
		unit:      unit,
		burst:     int(limit),
	}
}

func (g *GlobalRateLimiter) key() string {
	return fmt.Sprintf("%s:%s", g.keyPrefix, g.clientID)
}

// AllowN fails closed: redis errors reject the request.
func (g *GlobalRateLimiter) AllowN(now time.Time, n int) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	currentTime := float64(now.UnixNano()) / 1e9
	allowed, err := takeTokensScript.Run(ctx, g.client, []string{g.key()},
		n, g.burst, g.refillRate(), currentTime, g.expireSeconds()).Int64()
	if err != nil {
		klog.Errorf("failed to execute token bucket lua script: %v", err)
		return false
	}
	return allowed == 1
}

// Tokens returns the whole number of tokens currently available.
func (g *GlobalRateLimiter) Tokens() float64 {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	currentTime := float64(time.Now().UnixNano()) / 1e9
	tokens, err := peekTokensScript.Run(ctx, g.client, []string{g.key()},
		g.burst, g.refillRate(), currentTime).Int64()
	if err != nil {
		klog.Errorf("failed to execute tokens check lua script: %v", err)
		return 0
	}
	return float64(tokens)
}

// refillRate is in tokens per second.
func (g *GlobalRateLimiter) refillRate() float64 {
	return float64(g.limit) / g.unit.Seconds()
}

// expireSeconds keeps idle buckets for three units, bounded to [10 minutes, 90 days].
func (g *GlobalRateLimiter) expireSeconds() int {
	expire := int(g.unit.Seconds() * 3)
	if expire < 600 {
		return 600
	}
	if expire > 7776000 {
		return 7776000
	}
	return expire
}
