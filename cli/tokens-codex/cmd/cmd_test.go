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

package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/volcano-sh/tokens-codex/pkg/apis/v1"
	"github.com/volcano-sh/tokens-codex/pkg/compare"
	"github.com/volcano-sh/tokens-codex/pkg/format"
	"github.com/volcano-sh/tokens-codex/pkg/tokenizer"
)

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestDetectCommand(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "json", input: `[{"a":1}]`, want: "json"},
		{name: "toml", input: "a = 1", want: "toml"},
		{name: "markdown", input: "| a |\n| --- |\n| 1 |", want: "markdown"},
		{name: "fallback", input: "a,b\n1,2", want: "csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, tt.input, "detect", "-")
			require.NoError(t, err)
			assert.Equal(t, tt.want+"\n", out)
		})
	}
}

func TestDetectFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a":1}`), 0o600))

	out, _, err := execute(t, "", "detect", path)
	require.NoError(t, err)
	assert.Equal(t, "json\n", out)

	_, _, err = execute(t, "", "detect", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestTokenizeCommand(t *testing.T) {
	out, _, err := execute(t, "hello world", "tokenize", "--no-color", "--ids")
	require.NoError(t, err)
	assert.Equal(t, "hello| world\n[15339, 1917]\nTokens: 2  Characters: 11  Words: 2\n", out)
}

func TestTokenizeBlank(t *testing.T) {
	out, _, err := execute(t, "  ", "tokenize")
	require.NoError(t, err)
	assert.Equal(t, "Tokens: 0  Characters: 2  Words: 0\n", out)
}

func TestCompareSample(t *testing.T) {
	out, _, err := execute(t, "", "compare", "--sample", "--show")
	require.NoError(t, err)
	assert.Contains(t, out, "Detected CSV with 3 records")
	for _, name := range []string{"CSV", "JSON", "Markdown Table", "TOML"} {
		assert.Contains(t, out, "== "+name+" (")
	}
	assert.Contains(t, out, "| Ada Lovelace | 32 | Analytical Engines |")
}

func TestCompareErrors(t *testing.T) {
	_, _, err := execute(t, "   ", "compare")
	assert.ErrorIs(t, err, compare.ErrNoInput)

	_, _, err = execute(t, "", "compare", "-")
	assert.ErrorIs(t, err, compare.ErrNoInput)
}

func TestCompareRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, v1.ComparePath, r.URL.Path)
		resp := v1.NewCompareResponse(compare.Outcome{
			State:   compare.StateOK,
			Format:  format.JSON,
			Records: format.RecordSet{{Fields: []format.Field{{Key: "a", Value: format.NewNumber(1)}}}},
			Results: []compare.Result{
				{Format: format.CSV, Name: "CSV", Content: "a\n1", Tokens: 3, Rank: 1, BarPercent: 50},
				{Format: format.JSON, Name: "JSON", Content: "[\n  {\n    \"a\": 1\n  }\n]", Tokens: 6, Rank: 2, BarPercent: 100},
			},
		})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	out, _, err := execute(t, `[{"a":1}]`, "compare", "--server", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Detected JSON with 1 records")
	assert.Contains(t, out, strings.Repeat("█", 10)+"\n")
	assert.Contains(t, out, strings.Repeat("█", 20)+"\n")
}

func TestConvertCommand(t *testing.T) {
	out, stderr, err := execute(t, "a,b\n1,x", "convert", "--to", "md")
	require.NoError(t, err)
	assert.Equal(t, "| a | b |\n| --- | --- |\n| 1 | x |\n", out)
	assert.Contains(t, stderr, "CSV -> Markdown Table")

	_, _, err = execute(t, "a,b\n1,x", "convert", "--to", "yaml")
	assert.Error(t, err)

	_, _, err = execute(t, "a,b\n1,x", "convert")
	assert.Error(t, err)
}

func TestStatsCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`# TYPE tokens_codex_serialized_tokens_total counter
tokens_codex_serialized_tokens_total{format="csv"} 12
tokens_codex_serialized_tokens_total{format="toml"} 30
# TYPE tokens_codex_comparisons_total counter
tokens_codex_comparisons_total{input_format="csv",state="ok"} 2
`))
	}))
	defer srv.Close()

	out, _, err := execute(t, "", "stats", "--server", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "csv      12")
	assert.Contains(t, out, "toml     30")
	assert.Contains(t, out, "ok")
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "tokens-codex dev ("))
	assert.Contains(t, out, "cl100k_base")
}

func TestRenderBar(t *testing.T) {
	assert.Equal(t, "", renderBar(0))
	assert.Equal(t, "█", renderBar(1))
	assert.Equal(t, strings.Repeat("█", barWidth), renderBar(100))
}

func TestRenderSegmentsKeepsLineBreaks(t *testing.T) {
	segments := []tokenizer.Segment{{ID: 1, Text: "a\n"}, {ID: 2, Text: "b"}}
	var buf bytes.Buffer
	got := renderSegments(&buf, segments, true)
	assert.Equal(t, 1, strings.Count(got, "\n"))
	assert.Contains(t, got, "a")
	assert.Contains(t, got, "b")
}
