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
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/valyala/fastjson"
)

// isJSONContainer reports whether text is syntactically valid JSON whose root is an object or array.
func isJSONContainer(text string) bool {
	if text == "" || (text[0] != '{' && text[0] != '[') {
		return false
	}
	return fastjson.Validate(text) == nil
}

// ParseJSON parses a JSON array of objects, or a single object, into records.
// Array elements that are not objects become records carrying a Scalar.
func ParseJSON(text string) (RecordSet, error) {
	trimmed := strings.TrimSpace(text)
	if err := fastjson.Validate(trimmed); err != nil {
		return nil, ErrNoData
	}

	var p fastjson.Parser
	root, err := p.Parse(trimmed)
	if err != nil {
		return nil, ErrNoData
	}

	var records RecordSet
	if root.Type() == fastjson.TypeArray {
		for _, elem := range root.GetArray() {
			records = append(records, recordFromJSON(elem))
		}
	} else {
		records = RecordSet{recordFromJSON(root)}
	}

	if len(records) == 0 {
		return nil, ErrNoData
	}
	return records, nil
}

func recordFromJSON(v *fastjson.Value) Record {
	obj, err := v.Object()
	if err != nil {
		scalar := valueFromJSON(v)
		return Record{Scalar: &scalar}
	}

	var record Record
	obj.Visit(func(key []byte, val *fastjson.Value) {
		record.Set(string(key), valueFromJSON(val))
	})
	return record
}

func valueFromJSON(v *fastjson.Value) Value {
	switch v.Type() {
	case fastjson.TypeString:
		return NewString(string(v.GetStringBytes()))
	case fastjson.TypeNumber:
		return NewNumber(v.GetFloat64())
	case fastjson.TypeTrue:
		return NewBool(true)
	case fastjson.TypeFalse:
		return NewBool(false)
	case fastjson.TypeObject, fastjson.TypeArray:
		return NewRaw(string(v.MarshalTo(nil)))
	default:
		return Null()
	}
}

// SerializeJSON renders the records as a JSON array indented with two spaces.
// Every object is written with the keys of the first record.
func SerializeJSON(records RecordSet) string {
	if len(records) == 0 {
		return "[]"
	}

	header := records.Header()
	var b strings.Builder
	b.WriteString("[\n")
	for i, record := range records {
		b.WriteString("  ")
		writeRecordJSON(&b, conform(record, header), "  ")
		if i < len(records)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteByte(']')
	return b.String()
}

// writeRecordJSON writes record as an indented JSON object. indent is the
// indentation of the line the object starts on.
func writeRecordJSON(b *strings.Builder, record Record, indent string) {
	if record.Scalar != nil {
		writeValueJSON(b, *record.Scalar, indent)
		return
	}
	if len(record.Fields) == 0 {
		b.WriteString("{}")
		return
	}

	inner := indent + "  "
	b.WriteString("{\n")
	for i, field := range record.Fields {
		b.WriteString(inner)
		writeQuotedJSON(b, field.Key)
		b.WriteString(": ")
		writeValueJSON(b, field.Value, inner)
		if i < len(record.Fields)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString(indent)
	b.WriteByte('}')
}

func writeValueJSON(b *strings.Builder, v Value, indent string) {
	switch v.Type {
	case TypeString:
		writeQuotedJSON(b, v.Str)
	case TypeNumber:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			b.WriteString("null")
			return
		}
		b.WriteString(formatNumber(v.Num))
	case TypeBool:
		if v.Bool {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case TypeRaw:
		if indent == "" {
			b.WriteString(v.Str)
			return
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(v.Str), indent, "  "); err != nil {
			b.WriteString(v.Str)
			return
		}
		b.Write(buf.Bytes())
	default:
		b.WriteString("null")
	}
}

// writeQuotedJSON quotes s with the escapes JSON.stringify uses; HTML characters are left alone.
func writeQuotedJSON(b *strings.Builder, s string) {
	const hex = "0123456789abcdef"
	b.WriteByte('"')
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			switch c {
			case '"':
				b.WriteString(`\"`)
			case '\\':
				b.WriteString(`\\`)
			case '\b':
				b.WriteString(`\b`)
			case '\f':
				b.WriteString(`\f`)
			case '\n':
				b.WriteString(`\n`)
			case '\r':
				b.WriteString(`\r`)
			case '\t':
				b.WriteString(`\t`)
			default:
				if c < 0x20 {
					b.WriteString(`\u00`)
					b.WriteByte(hex[c>>4])
					b.WriteByte(hex[c&0xf])
				} else {
					b.WriteByte(c)
				}
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		b.WriteRune(r)
		i += size
	}
	b.WriteByte('"')
}

// MarshalJSON writes the record as a compact JSON object that keeps field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	if r.Scalar != nil {
		writeValueJSON(&b, *r.Scalar, "")
		return []byte(b.String()), nil
	}
	b.WriteByte('{')
	for i, field := range r.Fields {
		if i > 0 {
			b.WriteByte(',')
		}
		writeQuotedJSON(&b, field.Key)
		b.WriteByte(':')
		writeValueJSON(&b, field.Value, "")
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// MarshalJSON writes the value as its JSON literal.
func (v Value) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	writeValueJSON(&b, v, "")
	return []byte(b.String()), nil
}

// UnmarshalJSON reads a record written by MarshalJSON, keeping key order.
func (r *Record) UnmarshalJSON(data []byte) error {
	var p fastjson.Parser
	v, err := p.ParseBytes(data)
	if err != nil {
		return err
	}
	*r = recordFromJSON(v)
	return nil
}
