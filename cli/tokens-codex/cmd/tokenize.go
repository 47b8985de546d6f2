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

	"github.com/spf13/cobra"
)

type tokenizeOptions struct {
	ids     bool
	noColor bool
}

func newTokenizeCmd() *cobra.Command {
	opts := &tokenizeOptions{}
	c := &cobra.Command{
		Use:   "tokenize [FILE|-]",
		Short: "Show how text splits into tokens",
		Long: `Split text into cl100k_base tokens and print each token on its own
background color, followed by token, character and word counts.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokenize(cmd, args, opts)
		},
	}
	c.Flags().BoolVar(&opts.ids, "ids", false, "Print the token ids")
	c.Flags().BoolVar(&opts.noColor, "no-color", false, "Separate tokens with | instead of colors")
	return c
}

func runTokenize(cmd *cobra.Command, args []string, opts *tokenizeOptions) error {
	text, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	tok, err := loadTokenizer()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	segments := tok.Tokenize(text)
	if len(segments) > 0 {
		fmt.Fprintln(out, renderSegments(out, segments, !opts.noColor))
	}
	if opts.ids {
		fmt.Fprintln(out, renderIDs(segments))
	}
	fmt.Fprintln(out, renderStats(tok.Stats(text)))
	return nil
}
