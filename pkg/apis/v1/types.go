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

// Package v1 holds the JSON request and response bodies of the HTTP API.
package v1

import (
	"github.com/volcano-sh/tokens-codex/pkg/compare"
	"github.com/volcano-sh/tokens-codex/pkg/format"
	"github.com/volcano-sh/tokens-codex/pkg/tokenizer"
)

const (
	TokenizePath    = "/api/v1/tokenize"
	DetectPath      = "/api/v1/detect"
	ComparePath     = "/api/v1/compare"
	CompareLivePath = "/api/v1/compare/live"
	ConvertPath     = "/api/v1/convert"
	MetricsPath     = "/metrics"
)

// TextRequest is the body of tokenize, detect and compare requests.
type TextRequest struct {
	Text string `json:"text"`
}

type ConvertRequest struct {
	Text string `json:"text"`
	To   string `json:"to"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// TokenSegment is a token with the colors used to draw it.
type TokenSegment struct {
	ID    int                  `json:"id"`
	Text  string               `json:"text"`
	Color tokenizer.TokenColor `json:"color"`
}

type TokenizeResponse struct {
	Segments []TokenSegment  `json:"segments"`
	Stats    tokenizer.Stats `json:"stats"`
}

// NewTokenizeResponse colors segments by their position.
func NewTokenizeResponse(segments []tokenizer.Segment, stats tokenizer.Stats) TokenizeResponse {
	out := TokenizeResponse{
		Segments: make([]TokenSegment, len(segments)),
		Stats:    stats,
	}
	for i, s := range segments {
		out.Segments[i] = TokenSegment{ID: s.ID, Text: s.Text, Color: tokenizer.ColorForIndex(i)}
	}
	return out
}

type DetectResponse struct {
	Format format.Kind `json:"format"`
	Name   string      `json:"name"`
}

// CompareResponse is the comparison outcome; Error is set for parse errors.
type CompareResponse struct {
	compare.Outcome
	Error string `json:"error,omitempty"`
}

func NewCompareResponse(out compare.Outcome) CompareResponse {
	resp := CompareResponse{Outcome: out}
	if out.State == compare.StateParseError {
		resp.Error = compare.ErrCouldNotParse.Error()
	}
	return resp
}

type ConvertResponse = compare.Conversion

// LiveRequest is one frame sent by a live comparison client.
type LiveRequest struct {
	Seq  uint64 `json:"seq"`
	Text string `json:"text"`
}

// LiveResponse answers the newest LiveRequest only.
type LiveResponse struct {
	Seq uint64 `json:"seq"`
	CompareResponse
}
