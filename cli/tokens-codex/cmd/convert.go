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

	"github.com/volcano-sh/tokens-codex/pkg/client"
	"github.com/volcano-sh/tokens-codex/pkg/compare"
	"github.com/volcano-sh/tokens-codex/pkg/format"
)

type convertOptions struct {
	to     string
	server string
}

func newConvertCmd() *cobra.Command {
	opts := &convertOptions{}
	c := &cobra.Command{
		Use:   "convert --to FORMAT [FILE|-]",
		Short: "Rewrite the input in another format",
		Long: `Detect and parse the input, then print the records in the target format.
FORMAT is one of csv, json, markdown (or md) and toml.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args, opts)
		},
	}
	c.Flags().StringVarP(&opts.to, "to", "t", "", "Target format (csv|json|markdown|toml)")
	c.Flags().StringVar(&opts.server, "server", "", "Delegate to a running tokens-codex server at this URL")
	_ = c.MarkFlagRequired("to")
	return c
}

func runConvert(cmd *cobra.Command, args []string, opts *convertOptions) error {
	to, err := format.ParseKind(opts.to)
	if err != nil {
		return err
	}
	text, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	var conv compare.Conversion
	if opts.server != "" {
		resp, err := client.New(opts.server).Convert(cmd.Context(), text, string(to))
		if err != nil {
			return err
		}
		conv = *resp
	} else {
		tok, err := loadTokenizer()
		if err != nil {
			return err
		}
		if conv, err = compare.NewComparator(tok).Convert(text, to); err != nil {
			return err
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), conv.Content)
	fmt.Fprintf(cmd.ErrOrStderr(), "%s -> %s, %d tokens\n", conv.From.DisplayName(), conv.To.DisplayName(), conv.Tokens)
	return nil
}
