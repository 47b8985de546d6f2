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
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/volcano-sh/tokens-codex/pkg/compare"
	"github.com/volcano-sh/tokens-codex/pkg/tokenizer"
)

const barWidth = 20

// renderSegments draws each token on its palette color. Line breaks inside a
// token are kept outside the styled runs so lipgloss does not pad them into blocks.
func renderSegments(w io.Writer, segments []tokenizer.Segment, color bool) string {
	if !color {
		var sb strings.Builder
		for i, s := range segments {
			if i > 0 {
				sb.WriteString("|")
			}
			sb.WriteString(s.Text)
		}
		return sb.String()
	}

	renderer := lipgloss.NewRenderer(w)
	var sb strings.Builder
	for i, s := range segments {
		c := tokenizer.ColorForIndex(i)
		style := renderer.NewStyle().
			Background(lipgloss.Color(c.Background.Hex())).
			Foreground(lipgloss.Color(c.Text.Hex()))
		for j, line := range strings.Split(s.Text, "\n") {
			if j > 0 {
				sb.WriteString("\n")
			}
			if line != "" {
				sb.WriteString(style.Render(line))
			}
		}
	}
	return sb.String()
}

func renderIDs(segments []tokenizer.Segment) string {
	ids := make([]string, len(segments))
	for i, s := range segments {
		ids[i] = strconv.Itoa(s.ID)
	}
	return "[" + strings.Join(ids, ", ") + "]"
}

func renderStats(stats tokenizer.Stats) string {
	return fmt.Sprintf("Tokens: %d  Characters: %d  Words: %d", stats.Tokens, stats.Characters, stats.Words)
}

func renderBar(percent float64) string {
	n := int(percent / 100 * barWidth)
	if percent > 0 && n == 0 {
		n = 1
	}
	return strings.Repeat("█", n)
}

// printOutcome prints a ranked table for an ok outcome and an error otherwise.
func printOutcome(w io.Writer, out compare.Outcome, show bool) error {
	switch out.State {
	case compare.StateNoInput:
		return compare.ErrNoInput
	case compare.StateParseError:
		return compare.ErrCouldNotParse
	}

	fmt.Fprintf(w, "Detected %s with %d records\n\n", out.Format.DisplayName(), len(out.Records))
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "RANK\tFORMAT\tTOKENS\t")
	for _, r := range out.Results {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", r.Rank, r.Name, r.Tokens, renderBar(r.BarPercent))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if show {
		for _, r := range out.Results {
			fmt.Fprintf(w, "\n== %s (%d tokens) ==\n%s\n", r.Name, r.Tokens, r.Content)
		}
	}
	return nil
}
