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
	"strings"
)

const markdownSeparator = "---"

// ParseMarkdown parses a pipe table. The first non-blank line is the header and
// the second is skipped without validation. A data row is kept only when its
// number of cells equals the header's; other rows are dropped silently.
func ParseMarkdown(text string) (RecordSet, error) {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 3 {
		return nil, ErrNoData
	}

	header := splitMarkdownHeader(lines[0])

	var records RecordSet
	for _, line := range lines[2:] {
		cells := splitMarkdownRow(line)
		if len(cells) != len(header) {
			continue
		}
		var record Record
		for i, key := range header {
			record.Set(key, NewString(cells[i]))
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, ErrNoData
	}
	return records, nil
}

// splitMarkdownHeader splits on pipes, trims every cell and drops empty ones.
func splitMarkdownHeader(line string) []string {
	parts := strings.Split(line, "|")
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			cells = append(cells, p)
		}
	}
	return cells
}

// splitMarkdownRow splits on pipes and trims every cell. Only the empty
// segments outside the leading and trailing pipes are dropped, so blank
// values inside the row keep their column.
func splitMarkdownRow(line string) []string {
	cells := strings.Split(line, "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	if len(cells) > 0 && cells[0] == "" {
		cells = cells[1:]
	}
	if len(cells) > 0 && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	return cells
}

// SerializeMarkdown renders a pipe table using the first record's keys as columns.
func SerializeMarkdown(records RecordSet) string {
	header := records.Header()

	separators := make([]string, len(header))
	for i := range separators {
		separators[i] = markdownSeparator
	}

	lines := make([]string, 0, len(records)+2)
	lines = append(lines, markdownRow(header), markdownRow(separators))
	for _, record := range records {
		cells := make([]string, len(header))
		for i, key := range header {
			cells[i] = cell(record, key)
		}
		lines = append(lines, markdownRow(cells))
	}
	return strings.Join(lines, "\n")
}

func markdownRow(cells []string) string {
	return "| " + strings.Join(cells, " | ") + " |"
}
