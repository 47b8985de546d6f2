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

package format

import (
	"regexp"
	"strings"
)

var (
	// tomlAssignment matches a "key = value" style line anywhere in the text.
	tomlAssignment = regexp.MustCompile(`\w+\s*=`)
)

// Detect classifies text as one of the four formats. It never fails; the first
// matching rule wins:
//
//  1. the trimmed text is a JSON object or array
//  2. it contains both "[[" and "]]", or a "key = value" assignment
//  3. it contains a pipe and a line with "---"
//  4. anything else is CSV
func Detect(text string) Kind {
	trimmed := strings.TrimSpace(text)

	if isJSONContainer(trimmed) {
		return JSON
	}

	if (strings.Contains(trimmed, "[[") && strings.Contains(trimmed, "]]")) || tomlAssignment.MatchString(trimmed) {
		return TOML
	}

	if strings.Contains(trimmed, "|") && hasSeparatorLine(trimmed) {
		return Markdown
	}

	return CSV
}

func hasSeparatorLine(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, "---") {
			return true
		}
	}
	return false
}
