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

// Package format detects, parses and serializes small tabular datasets
// written as CSV, JSON, Markdown tables or a minimal TOML-like layout.
//
// Every format converts to and from a RecordSet, the common intermediate
// representation. All functions in this package are pure.
package format

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrNoData is returned by every parser when it cannot extract at least one record.
var ErrNoData = errors.New("no data")

// Kind identifies one of the supported textual formats.
type Kind string

const (
	CSV      Kind = "csv"
	JSON     Kind = "json"
	Markdown Kind = "markdown"
	TOML     Kind = "toml"
)

// Kinds lists all formats in declaration order. Comparison ties are broken by this order.
var Kinds = []Kind{CSV, JSON, Markdown, TOML}

// DisplayName returns the human readable name of the format.
func (k Kind) DisplayName() string {
	switch k {
	case CSV:
		return "CSV"
	case JSON:
		return "JSON"
	case Markdown:
		return "Markdown Table"
	case TOML:
		return "TOML"
	default:
		return string(k)
	}
}

// Order returns the position of the format in Kinds, or len(Kinds) for unknown kinds.
func (k Kind) Order() int {
	for i, kind := range Kinds {
		if kind == k {
			return i
		}
	}
	return len(Kinds)
}

// ParseKind converts a user supplied name such as "md" or "Markdown" into a Kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "csv":
		return CSV, nil
	case "json":
		return JSON, nil
	case "markdown", "md", "markdown-table":
		return Markdown, nil
	case "toml":
		return TOML, nil
	default:
		return "", fmt.Errorf("unknown format %q, expected one of csv, json, markdown, toml", name)
	}
}

// ValueType is the scalar type held by a Value.
type ValueType int

const (
	TypeNull ValueType = iota
	TypeString
	TypeNumber
	TypeBool
	// TypeRaw holds a nested JSON object or array as compact JSON text.
	TypeRaw
)

// Value is a scalar field value.
type Value struct {
	Type ValueType
	Str  string
	Num  float64
	Bool bool
}

func Null() Value {
	return Value{Type: TypeNull}
}

func NewString(s string) Value {
	return Value{Type: TypeString, Str: s}
}

func NewNumber(f float64) Value {
	return Value{Type: TypeNumber, Num: f}
}

func NewBool(b bool) Value {
	return Value{Type: TypeBool, Bool: b}
}

// NewRaw wraps compact JSON text of a nested object or array.
func NewRaw(jsonText string) Value {
	return Value{Type: TypeRaw, Str: jsonText}
}

// Text renders the value the way it appears inside a CSV cell or a Markdown table cell.
// Null renders as the empty string.
func (v Value) Text() string {
	switch v.Type {
	case TypeString, TypeRaw:
		return v.Str
	case TypeNumber:
		return formatNumber(v.Num)
	case TypeBool:
		return strconv.FormatBool(v.Bool)
	default:
		return ""
	}
}

// formatNumber prints a float64 the way ECMAScript Number#toString does:
// integers without a fraction, exponent notation below 1e-6 and from 1e21 on.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "e")
	sign := exp[0]
	digits := strings.TrimLeft(exp[1:], "0")
	if digits == "" {
		digits = "0"
	}
	return mantissa + "e" + string(sign) + digits
}

// Field is a single key/value pair of a Record.
type Field struct {
	Key   string
	Value Value
}

// Record is one row of tabular data. Fields keep their insertion order.
type Record struct {
	Fields []Field
	// Scalar carries a non-object JSON array element through unchanged.
	// Such records have no fields.
	Scalar *Value
}

// Set assigns a value to key. An existing key keeps its position.
func (r *Record) Set(key string, value Value) {
	for i := range r.Fields {
		if r.Fields[i].Key == key {
			r.Fields[i].Value = value
			return
		}
	}
	r.Fields = append(r.Fields, Field{Key: key, Value: value})
}

// Get returns the value stored for key.
func (r Record) Get(key string) (Value, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Keys returns the field names in order.
func (r Record) Keys() []string {
	keys := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		keys[i] = f.Key
	}
	return keys
}

// Len returns the number of fields.
func (r Record) Len() int {
	return len(r.Fields)
}

// RecordSet is the ordered sequence of records shared by all formats.
type RecordSet []Record

// Header returns the keys of the first record. It is the schema every
// tabular serializer uses for the whole set; later records are padded or truncated to it.
func (rs RecordSet) Header() []string {
	if len(rs) == 0 {
		return nil
	}
	return rs[0].Keys()
}

// conform lays record out on header: fields appear in header order, missing
// fields become empty strings and extra fields are dropped. Scalar records are
// returned unchanged.
func conform(r Record, header []string) Record {
	if r.Scalar != nil {
		return r
	}
	out := Record{Fields: make([]Field, len(header))}
	for i, key := range header {
		v, ok := r.Get(key)
		if !ok {
			v = NewString("")
		}
		out.Fields[i] = Field{Key: key, Value: v}
	}
	return out
}

// cell renders the value stored under key, or "" when the record lacks it.
func cell(r Record, key string) string {
	v, ok := r.Get(key)
	if !ok {
		return ""
	}
	return v.Text()
}
