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
	"math"
	"regexp"
	"strconv"
	"strings"
)

const tomlRecordHeader = "[[records]]"

var tomlKeyValue = regexp.MustCompile(`^(\w+)\s*=\s*(.+)$`)

// ParseTOML reads the "[[records]]" layout produced by SerializeTOML. Every
// block between headers is one record; lines that are not "key = value" are
// ignored and blocks without any assignment produce no record.
func ParseTOML(text string) (RecordSet, error) {
	var records RecordSet
	for _, block := range strings.Split(text, tomlRecordHeader) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}

		var record Record
		for _, line := range strings.Split(block, "\n") {
			match := tomlKeyValue.FindStringSubmatch(line)
			if match == nil {
				continue
			}
			record.Set(match[1], tomlValue(match[2]))
		}
		if record.Len() > 0 {
			records = append(records, record)
		}
	}

	if len(records) == 0 {
		return nil, ErrNoData
	}
	return records, nil
}

// tomlValue unquotes double quoted strings and converts numeric literals.
// Anything else is kept as a raw string.
func tomlValue(raw string) Value {
	value := strings.TrimSpace(raw)
	if len(value) >= 2 && strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
		return NewString(value[1 : len(value)-1])
	}
	if f, ok := parseNumber(value); ok {
		return NewNumber(f)
	}
	return NewString(value)
}

// parseNumber accepts decimal and exponent literals. NaN, infinities and
// the empty string are not numbers.
func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// SerializeTOML writes one "[[records]]" block per record with a blank line
// between blocks. Numbers are written bare, every other value is double quoted
// and null becomes the empty string. Every block lists the keys of the first record.
func SerializeTOML(records RecordSet) string {
	header := records.Header()
	blocks := make([]string, 0, len(records))
	for _, record := range records {
		record = conform(record, header)
		var b strings.Builder
		b.WriteString(tomlRecordHeader)
		b.WriteByte('\n')
		for i, field := range record.Fields {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(field.Key)
			b.WriteString(" = ")
			if field.Value.Type == TypeNumber {
				b.WriteString(formatNumber(field.Value.Num))
			} else {
				b.WriteString(`"` + field.Value.Text() + `"`)
			}
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}
