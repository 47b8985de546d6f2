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

package debug

import (
	"sync"
	"time"

	"github.com/gammazero/deque"
	"github.com/google/uuid"

	"github.com/volcano-sh/tokens-codex/pkg/compare"
	"github.com/volcano-sh/tokens-codex/pkg/format"
)

// Entry summarizes one comparison served by the server.
type Entry struct {
	ID          string              `json:"id"`
	Time        time.Time           `json:"time"`
	Source      string              `json:"source"`
	InputFormat format.Kind         `json:"inputFormat,omitempty"`
	State       compare.State       `json:"state"`
	Records     int                 `json:"records"`
	Tokens      map[format.Kind]int `json:"tokens,omitempty"`
	Cheapest    format.Kind         `json:"cheapest,omitempty"`
	Duration    time.Duration       `json:"durationNs"`
}

// NewEntry builds the history entry for an outcome.
func NewEntry(id, source string, out compare.Outcome, duration time.Duration) Entry {
	e := Entry{
		ID:          id,
		Time:        time.Now(),
		Source:      source,
		InputFormat: out.Format,
		State:       out.State,
		Records:     len(out.Records),
		Duration:    duration,
	}
	if len(out.Results) > 0 {
		e.Tokens = make(map[format.Kind]int, len(out.Results))
		for _, r := range out.Results {
			e.Tokens[r.Format] = r.Tokens
		}
		e.Cheapest = out.Results[0].Format
	}
	return e
}

// History keeps the most recent entries, dropping the oldest beyond its capacity.
type History struct {
	mutex    sync.RWMutex
	entries  deque.Deque[Entry]
	capacity int
}

func NewHistory(capacity int) *History {
	return &History{capacity: capacity}
}

// Add records e, assigning an id when it has none. A zero capacity history stores nothing.
func (h *History) Add(e Entry) {
	if h.capacity <= 0 {
		return
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	for h.entries.Len() >= h.capacity {
		h.entries.PopFront()
	}
	h.entries.PushBack(e)
}

// List returns the entries newest first.
func (h *History) List() []Entry {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	out := make([]Entry, 0, h.entries.Len())
	for i := h.entries.Len() - 1; i >= 0; i-- {
		out = append(out, h.entries.At(i))
	}
	return out
}

func (h *History) Get(id string) (Entry, bool) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for i := 0; i < h.entries.Len(); i++ {
		if e := h.entries.At(i); e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

func (h *History) Len() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.entries.Len()
}
