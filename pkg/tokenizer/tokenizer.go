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

// Package tokenizer splits text into cl100k_base tokens and reports how
// many tokens a piece of text costs.
package tokenizer

import (
	"strings"
)

// Encoder is the subword vocabulary the adapter delegates to.
type Encoder interface {
	Encode(text string) []int
	Decode(ids []int) string
}

// Segment is one token: its vocabulary id and the slice of text it covers.
// Concatenating the Text of all segments of a tokenization yields the input.
type Segment struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// Tokenizer is safe for concurrent use as long as its Encoder is.
// It never caches results.
type Tokenizer struct {
	encoder Encoder
}

// New returns a Tokenizer backed by the cl100k_base vocabulary.
func New() (*Tokenizer, error) {
	enc, err := NewTikToken()
	if err != nil {
		return nil, err
	}
	return NewWithEncoder(enc), nil
}

func NewWithEncoder(encoder Encoder) *Tokenizer {
	return &Tokenizer{encoder: encoder}
}

// Tokenize returns the tokens of text in order. Blank text has no tokens.
// A token that ends inside a multi-byte character carries the partial bytes,
// so its Text may not be valid UTF-8 on its own.
func (t *Tokenizer) Tokenize(text string) []Segment {
	if strings.TrimSpace(text) == "" {
		return []Segment{}
	}
	ids := t.encoder.Encode(text)
	segments := make([]Segment, len(ids))
	for i, id := range ids {
		segments[i] = Segment{ID: id, Text: t.encoder.Decode([]int{id})}
	}
	return segments
}

// CountTokens returns len(Tokenize(text)) without decoding each token.
func (t *Tokenizer) CountTokens(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	return len(t.encoder.Encode(text))
}

// CalculateTokenNum implements the error-returning counter signature used by rate limiters.
func (t *Tokenizer) CalculateTokenNum(text string) (int, error) {
	return t.CountTokens(text), nil
}
