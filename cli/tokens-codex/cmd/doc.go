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
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

func newDocCmd(root *cobra.Command) *cobra.Command {
	c := &cobra.Command{
		Use:    "doc",
		Short:  "Generate documentation for the tokens-codex CLI",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputDir, _ := cmd.Flags().GetString("output")
			format, _ := cmd.Flags().GetString("format")

			if err := os.MkdirAll(outputDir, 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			switch format {
			case "markdown", "md":
				if err := doc.GenMarkdownTree(root, outputDir); err != nil {
					return fmt.Errorf("failed to generate markdown documentation: %w", err)
				}
			case "man":
				header := &doc.GenManHeader{
					Title:   "TOKENS-CODEX",
					Section: "1",
					Source:  "tokens-codex",
				}
				if err := doc.GenManTree(root, header, outputDir); err != nil {
					return fmt.Errorf("failed to generate man pages: %w", err)
				}
			default:
				return fmt.Errorf("unsupported format: %s. Supported formats: markdown, man", format)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Documentation generated in %s\n", outputDir)
			return nil
		},
	}
	c.Flags().StringP("output", "o", "./docs/cli", "Output directory for generated documentation")
	c.Flags().StringP("format", "f", "markdown", "Output format (markdown, man)")
	return c
}
