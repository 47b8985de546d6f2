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
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

// rootCmd represents the base command when called without any subcommands
var rootCmd = NewRootCmd()

// NewRootCmd builds the command tree. Every call returns fresh flag state.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tokens-codex",
		Short: "Inspect tokens and compare the token cost of tabular formats",
		Long: `tokens-codex shows how text is split into cl100k_base tokens and how many
tokens the same table costs as CSV, JSON, a Markdown table or TOML.

Input is read from the file named as the first argument, or from stdin
when the argument is "-" or missing.

Examples:
  tokens-codex tokenize notes.txt
  tokens-codex detect data.json
  tokens-codex compare --sample
  cat data.csv | tokens-codex compare --show
  tokens-codex convert --to markdown data.csv
  tokens-codex stats --server http://localhost:3000`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newTokenizeCmd(),
		newDetectCmd(),
		newCompareCmd(),
		newConvertCmd(),
		newStatsCmd(),
		newVersionCmd(),
		newDocCmd(root),
	)
	return root
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetRootCmd exports the root command for external tools (e.g., doc generation)
func GetRootCmd() *cobra.Command {
	return rootCmd
}
