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

// Package cache keeps recent comparison outcomes so identical inputs are not
// serialized and tokenized again.
package cache

import (
	"github.com/cespare/xxhash"
	lru "github.com/hashicorp/golang-lru/v2"
	"k8s.io/klog/v2"

	"github.com/volcano-sh/tokens-codex/pkg/compare"
)

type entry struct {
	text    string
	outcome compare.Outcome
}

// ComparisonCache maps input text to its comparison outcome. Keys are xxhash
// digests; the full text is kept to rule out collisions.
type ComparisonCache struct {
	entries *lru.Cache[uint64, entry]
}

// NewComparisonCache returns nil for a non-positive size. A nil cache misses every lookup.
func NewComparisonCache(size int) (*ComparisonCache, error) {
	if size <= 0 {
		return nil, nil
	}
	entries, err := lru.NewWithEvict(size, func(key uint64, _ entry) {
		klog.V(4).Infof("evicted comparison %016x from cache", key)
	})
	if err != nil {
		return nil, err
	}
	return &ComparisonCache{entries: entries}, nil
}

func Key(text string) uint64 {
	return xxhash.Sum64([]byte(text))
}

func (c *ComparisonCache) Get(text string) (compare.Outcome, bool) {
	if c == nil {
		return compare.Outcome{}, false
	}
	e, ok := c.entries.Get(Key(text))
	if !ok || e.text != text {
		return compare.Outcome{}, false
	}
	return e.outcome, true
}

// Add stores successful outcomes only.
func (c *ComparisonCache) Add(text string, outcome compare.Outcome) {
	if c == nil || outcome.State != compare.StateOK {
		return
	}
	c.entries.Add(Key(text), entry{text: text, outcome: outcome})
}

func (c *ComparisonCache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

func (c *ComparisonCache) Clear() {
	if c != nil {
		c.entries.Purge()
	}
}
