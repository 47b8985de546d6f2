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
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/volcano-sh/tokens-codex/pkg/client"
)

func newStatsCmd() *cobra.Command {
	var server string
	c := &cobra.Command{
		Use:   "stats",
		Short: "Show token totals served by a running server",
		Long: `Scrape the /metrics endpoint of a running tokens-codex server and print
the number of tokens it has produced per format and its comparisons per outcome.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			families, err := client.New(server).Metrics(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "FORMAT\tTOKENS")
			for _, t := range client.TokenTotals(families) {
				fmt.Fprintf(w, "%s\t%.0f\n", t.Format, t.Tokens)
			}
			fmt.Fprintln(w, "\t")
			fmt.Fprintln(w, "STATE\tCOMPARISONS")
			for _, t := range client.ComparisonTotals(families) {
				fmt.Fprintf(w, "%s\t%.0f\n", t.Format, t.Tokens)
			}
			return w.Flush()
		},
	}
	c.Flags().StringVar(&server, "server", "http://localhost:3000", "URL of the tokens-codex server")
	return c
}
