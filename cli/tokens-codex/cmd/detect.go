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

	"github.com/volcano-sh/tokens-codex/pkg/format"
)

func newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect [FILE|-]",
		Short: "Print the format of the input",
		Long: `Print which of csv, json, markdown or toml the input looks like.
Detection never fails; anything unrecognized is reported as csv.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), format.Detect(text))
			return nil
		},
	}
}
