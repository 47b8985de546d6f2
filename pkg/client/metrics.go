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
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/hashicorp/go-retryablehttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	v1 "github.com/volcano-sh/tokens-codex/pkg/apis/v1"
	"github.com/volcano-sh/tokens-codex/pkg/metrics"
)

// Metrics scrapes the server's /metrics endpoint.
func (c *Client) Metrics(ctx context.Context) (map[string]*dto.MetricFamily, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+v1.MetricsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	data, status, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, ErrHTTPRequest{StatusCode: status, Message: "failed to fetch metrics"}
	}
	return ParseMetrics(data)
}

// ParseMetrics decodes the Prometheus text exposition format.
func ParseMetrics(data []byte) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("error parsing metric families: %w", err)
	}
	return families, nil
}

// FormatTotal is the number of tokens a server has produced for one output format.
type FormatTotal struct {
	Format string
	Tokens float64
}

// TokenTotals sums the serialized token counter per format, sorted by format name.
func TokenTotals(families map[string]*dto.MetricFamily) []FormatTotal {
	return labelTotals(families[metrics.SerializedTokensTotalName], metrics.LabelFormat)
}

// ComparisonTotals sums comparisons per outcome state.
func ComparisonTotals(families map[string]*dto.MetricFamily) []FormatTotal {
	return labelTotals(families[metrics.ComparisonsTotalName], metrics.LabelState)
}

func labelTotals(family *dto.MetricFamily, label string) []FormatTotal {
	if family == nil {
		return nil
	}
	sums := make(map[string]float64)
	for _, m := range family.GetMetric() {
		for _, lp := range m.GetLabel() {
			if lp.GetName() == label {
				sums[lp.GetValue()] += m.GetCounter().GetValue()
			}
		}
	}
	out := make([]FormatTotal, 0, len(sums))
	for k, v := range sums {
		out = append(out, FormatTotal{Format: k, Tokens: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Format < out[j].Format })
	return out
}
