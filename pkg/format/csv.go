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
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ParseCSV reads the first non-blank line as the header and every further
// non-blank line as a row. A quote inside an unquoted field is kept as text. Rows shorter than the header only set the fields
// they have; cells beyond the header are dropped. All values are strings.
func ParseCSV(text string) (RecordSet, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var (
		header  []string
		records RecordSet
	)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoData, err)
		}
		if isBlankRow(row) {
			continue
		}
		if header == nil {
			header = row
			continue
		}

		var record Record
		for i, key := range header {
			if i >= len(row) {
				break
			}
			record.Set(key, NewString(row[i]))
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, ErrNoData
	}
	return records, nil
}

// isBlankRow reports a whitespace-only line. A line of separators such as ","
// is a row of empty values, not a blank line.
func isBlankRow(row []string) bool {
	return len(row) == 1 && strings.TrimSpace(row[0]) == ""
}

// SerializeCSV writes the header of the first record followed by one line per
// record. Cells are joined with commas verbatim: embedded commas, quotes and
// newlines are not escaped.
func SerializeCSV(records RecordSet) string {
	header := records.Header()
	lines := make([]string, 0, len(records)+1)
	lines = append(lines, strings.Join(header, ","))
	for _, record := range records {
		cells := make([]string, len(header))
		for i, key := range header {
			cells[i] = cell(record, key)
		}
		lines = append(lines, strings.Join(cells, ","))
	}
	return strings.Join(lines, "\n")
}
