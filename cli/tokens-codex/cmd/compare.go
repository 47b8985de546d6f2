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
	"github.com/spf13/cobra"

	"github.com/volcano-sh/tokens-codex/pkg/client"
	"github.com/volcano-sh/tokens-codex/pkg/compare"
)

type compareOptions struct {
	show   bool
	sample bool
	server string
}

func newCompareCmd() *cobra.Command {
	opts := &compareOptions{}
	c := &cobra.Command{
		Use:   "compare [FILE|-]",
		Short: "Rank formats by the number of tokens they need",
		Long: `Detect the input format, parse the records and serialize them as CSV,
JSON, a Markdown table and TOML. Formats are listed cheapest first.

Examples:
  tokens-codex compare data.csv
  tokens-codex compare --sample --show
  tokens-codex compare --server http://localhost:3000 data.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd, args, opts)
		},
	}
	c.Flags().BoolVar(&opts.show, "show", false, "Print every serialization")
	c.Flags().BoolVar(&opts.sample, "sample", false, "Compare the built-in sample table instead of reading input")
	c.Flags().StringVar(&opts.server, "server", "", "Delegate to a running tokens-codex server at this URL")
	return c
}

func runCompare(cmd *cobra.Command, args []string, opts *compareOptions) error {
	text := compare.SampleData
	if !opts.sample {
		var err error
		if text, err = readInput(cmd, args); err != nil {
			return err
		}
	}

	var outcome compare.Outcome
	if opts.server != "" {
		resp, err := client.New(opts.server).Compare(cmd.Context(), text)
		if err != nil {
			return err
		}
		outcome = resp.Outcome
	} else {
		tok, err := loadTokenizer()
		if err != nil {
			return err
		}
		outcome = compare.NewComparator(tok, compare.WithoutSegments()).Compare(text)
	}
	return printOutcome(cmd.OutOrStdout(), outcome, opts.show)
}
