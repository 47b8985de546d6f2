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

package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMetrics = `# HELP tokens_codex_serialized_tokens_total Total number of tokens produced by serializing records, per output format.
# TYPE tokens_codex_serialized_tokens_total counter
tokens_codex_serialized_tokens_total{format="csv"} 12
tokens_codex_serialized_tokens_total{format="json"} 40
tokens_codex_serialized_tokens_total{format="markdown"} 25
# HELP tokens_codex_comparisons_total Total number of comparisons.
# TYPE tokens_codex_comparisons_total counter
tokens_codex_comparisons_total{input_format="csv",state="ok"} 2
tokens_codex_comparisons_total{input_format="json",state="ok"} 1
tokens_codex_comparisons_total{input_format="none",state="no_input"} 4
`

func TestParseMetrics(t *testing.T) {
	families, err := ParseMetrics([]byte(sampleMetrics))
	require.NoError(t, err)

	want := []FormatTotal{{Format: "csv", Tokens: 12}, {Format: "json", Tokens: 40}, {Format: "markdown", Tokens: 25}}
	if diff := cmp.Diff(want, TokenTotals(families)); diff != "" {
		t.Errorf("TokenTotals mismatch (-want +got):\n%s", diff)
	}

	wantStates := []FormatTotal{{Format: "no_input", Tokens: 4}, {Format: "ok", Tokens: 3}}
	if diff := cmp.Diff(wantStates, ComparisonTotals(families)); diff != "" {
		t.Errorf("ComparisonTotals mismatch (-want +got):\n%s", diff)
	}
}

func TestParseMetricsInvalid(t *testing.T) {
	_, err := ParseMetrics([]byte("not a metric line {"))
	assert.Error(t, err)
}

func TestTokenTotalsMissingFamily(t *testing.T) {
	assert.Nil(t, TokenTotals(nil))
}

func TestClientMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/metrics", r.URL.Path)
		_, _ = w.Write([]byte(sampleMetrics))
	}))
	defer srv.Close()

	families, err := New(srv.URL).Metrics(context.Background())
	require.NoError(t, err)
	assert.Len(t, TokenTotals(families), 3)
}
