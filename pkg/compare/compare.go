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

// Package compare runs the detect, parse, serialize and tokenize pipeline
// and ranks the four formats by token cost.
package compare

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/volcano-sh/tokens-codex/pkg/format"
	"github.com/volcano-sh/tokens-codex/pkg/tokenizer"
)

// State is the terminal state of one comparison.
type State string

const (
	StateNoInput    State = "no_input"
	StateParseError State = "parse_error"
	StateOK         State = "ok"
)

// ErrCouldNotParse is the single user-facing parse failure.
var ErrCouldNotParse = errors.New("could not parse the input, please double-check the structure")

// SampleData is the dataset shown before the user types anything.
const SampleData = "name,age,team\nAda Lovelace,32,Analytical Engines\nAlan Turing,41,Bletchley Park\nMargaret Hamilton,35,Apollo"

// ErrNoInput is returned by Convert for blank input.
var ErrNoInput = errors.New("no input")

// Tokenizer is the subset of *tokenizer.Tokenizer the comparator needs.
type Tokenizer interface {
	Tokenize(text string) []tokenizer.Segment
	CountTokens(text string) int
}

// Result is the cost of representing the records in one format.
type Result struct {
	Format     format.Kind         `json:"format"`
	Name       string              `json:"name"`
	Content    string              `json:"content"`
	Tokens     int                 `json:"tokens"`
	Segments   []tokenizer.Segment `json:"segments,omitempty"`
	Rank       int                 `json:"rank"`
	BarPercent float64             `json:"barPercent"`
}

// Outcome is the full answer for one input text.
type Outcome struct {
	State State `json:"state"`
	// Format is the detected input format. It is empty for StateNoInput.
	Format  format.Kind      `json:"format,omitempty"`
	Records format.RecordSet `json:"records,omitempty"`
	Results []Result         `json:"results,omitempty"`
	Err     error            `json:"-"`
}

type Comparator struct {
	tokenizer Tokenizer
	registry  *format.Registry
	segments  bool
}

type Option func(*Comparator)

// WithRegistry replaces the built-in format codecs.
func WithRegistry(r *format.Registry) Option {
	return func(c *Comparator) {
		c.registry = r
	}
}

// WithoutSegments skips per-token segmentation and only counts tokens.
func WithoutSegments() Option {
	return func(c *Comparator) {
		c.segments = false
	}
}

func NewComparator(tok Tokenizer, opts ...Option) *Comparator {
	c := &Comparator{
		tokenizer: tok,
		registry:  format.DefaultRegistry(),
		segments:  true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compare never fails: parse problems are reported through Outcome.State.
func (c *Comparator) Compare(text string) Outcome {
	out, _ := c.CompareContext(context.Background(), text)
	return out
}

// CompareContext is Compare with cancellation between formats.
func (c *Comparator) CompareContext(ctx context.Context, text string) (Outcome, error) {
	if strings.TrimSpace(text) == "" {
		return Outcome{State: StateNoInput}, nil
	}

	kind := format.Detect(text)
	records, err := c.registry.Parse(text, kind)
	if err == nil && len(records) == 0 {
		err = format.ErrNoData
	}
	if err != nil {
		return Outcome{
			State:  StateParseError,
			Format: kind,
			Err:    fmt.Errorf("%w: %v", ErrCouldNotParse, err),
		}, nil
	}

	results := make([]Result, 0, len(format.Kinds))
	for _, target := range format.Kinds {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		result, err := c.measure(records, target)
		if err != nil {
			return Outcome{}, err
		}
		results = append(results, result)
	}
	Rank(results)

	return Outcome{
		State:   StateOK,
		Format:  kind,
		Records: records,
		Results: results,
	}, nil
}

func (c *Comparator) measure(records format.RecordSet, target format.Kind) (Result, error) {
	content, err := c.registry.Serialize(records, target)
	if err != nil {
		return Result{}, err
	}
	result := Result{
		Format:  target,
		Name:    target.DisplayName(),
		Content: content,
	}
	if c.segments {
		result.Segments = c.tokenizer.Tokenize(content)
		result.Tokens = len(result.Segments)
	} else {
		result.Tokens = c.tokenizer.CountTokens(content)
	}
	return result, nil
}

// Rank sorts results by ascending token count, keeping declaration order among
// equal counts, and fills in Rank and BarPercent.
func Rank(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Tokens != results[j].Tokens {
			return results[i].Tokens < results[j].Tokens
		}
		return results[i].Format.Order() < results[j].Format.Order()
	})

	largest := 0
	for _, r := range results {
		if r.Tokens > largest {
			largest = r.Tokens
		}
	}
	for i := range results {
		results[i].Rank = i + 1
		results[i].BarPercent = BarPercent(results[i].Tokens, largest)
	}
}

// BarPercent is the width of a ranking bar relative to the largest count.
// Non-empty charts never draw a bar narrower than 5%.
func BarPercent(tokens, largest int) float64 {
	if largest == 0 {
		return 0
	}
	pct := float64(tokens) / float64(largest) * 100
	if pct < 5 {
		return 5
	}
	return pct
}

// Conversion is the result of rewriting input in a single target format.
type Conversion struct {
	From    format.Kind `json:"format"`
	To      format.Kind `json:"to"`
	Content string      `json:"content"`
	Tokens  int         `json:"tokens"`
}

// Convert detects and parses text, then serializes it as the target format.
func (c *Comparator) Convert(text string, to format.Kind) (Conversion, error) {
	if strings.TrimSpace(text) == "" {
		return Conversion{}, ErrNoInput
	}
	from := format.Detect(text)
	records, err := c.registry.Parse(text, from)
	if err != nil {
		return Conversion{From: from, To: to}, fmt.Errorf("%w: %v", ErrCouldNotParse, err)
	}
	content, err := c.registry.Serialize(records, to)
	if err != nil {
		return Conversion{From: from, To: to}, err
	}
	return Conversion{
		From:    from,
		To:      to,
		Content: content,
		Tokens:  c.tokenizer.CountTokens(content),
	}, nil
}
