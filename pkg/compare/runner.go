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

package compare

import (
	"context"
	"sync"
	"time"

	"k8s.io/klog/v2"
)

// Update is the outcome for the input submitted with Seq.
type Update struct {
	Seq      uint64        `json:"seq"`
	Outcome  Outcome       `json:"outcome"`
	Duration time.Duration `json:"-"`
}

// Runner recomputes comparisons in the background. Only the newest
// submission is ever delivered: submitting cancels any computation still in
// flight and an undelivered older update is replaced by a newer one.
type Runner struct {
	comparator *Comparator

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	closed     bool

	updates chan Update
	wg      sync.WaitGroup
}

func NewRunner(c *Comparator) *Runner {
	return &Runner{
		comparator: c,
		updates:    make(chan Update, 1),
	}
}

// Updates is closed by Close.
func (r *Runner) Updates() <-chan Update {
	return r.updates
}

// Submit starts comparing text and supersedes every earlier submission.
func (r *Runner) Submit(seq uint64, text string) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	if r.cancel != nil {
		r.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.generation++
	gen := r.generation
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer cancel()

		start := time.Now()
		out, err := r.comparator.CompareContext(ctx, text)
		if err != nil {
			klog.V(4).Infof("comparison %d abandoned: %v", seq, err)
			return
		}
		r.deliver(gen, Update{Seq: seq, Outcome: out, Duration: time.Since(start)})
	}()
}

func (r *Runner) deliver(gen uint64, u Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || gen != r.generation {
		klog.V(4).Infof("dropping stale comparison %d", u.Seq)
		return
	}
	select {
	case <-r.updates:
	default:
	}
	r.updates <- u
}

// Close cancels the running computation, waits for it and closes Updates.
func (r *Runner) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	if r.cancel != nil {
		r.cancel()
	}
	r.mu.Unlock()

	r.wg.Wait()
	close(r.updates)
}
