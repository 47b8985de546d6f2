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
	"fmt"
)

// ParseFunc converts raw text into records, or returns an error wrapping ErrNoData.
type ParseFunc func(text string) (RecordSet, error)

// SerializeFunc renders records as text. It never fails.
type SerializeFunc func(records RecordSet) string

// Registry maps every Kind to its parser and serializer.
type Registry struct {
	parsers     map[Kind]ParseFunc
	serializers map[Kind]SerializeFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		parsers:     make(map[Kind]ParseFunc),
		serializers: make(map[Kind]SerializeFunc),
	}
}

// Register installs the codec for kind, replacing any previous one.
func (r *Registry) Register(kind Kind, parse ParseFunc, serialize SerializeFunc) {
	r.parsers[kind] = parse
	r.serializers[kind] = serialize
}

// Parse runs the parser registered for kind.
func (r *Registry) Parse(text string, kind Kind) (RecordSet, error) {
	parse, ok := r.parsers[kind]
	if !ok {
		return nil, fmt.Errorf("no parser registered for format %q", kind)
	}
	return parse(text)
}

// Serialize runs the serializer registered for kind.
func (r *Registry) Serialize(records RecordSet, kind Kind) (string, error) {
	serialize, ok := r.serializers[kind]
	if !ok {
		return "", fmt.Errorf("no serializer registered for format %q", kind)
	}
	return serialize(records), nil
}

func registerDefaultCodecs(r *Registry) {
	r.Register(CSV, ParseCSV, SerializeCSV)
	r.Register(JSON, ParseJSON, SerializeJSON)
	r.Register(Markdown, ParseMarkdown, SerializeMarkdown)
	r.Register(TOML, ParseTOML, SerializeTOML)
}

var defaultRegistry = func() *Registry {
	r := NewRegistry()
	registerDefaultCodecs(r)
	return r
}()

// DefaultRegistry returns the registry holding the four built-in formats.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Parse parses text as the given format with the built-in codecs.
func Parse(text string, kind Kind) (RecordSet, error) {
	return defaultRegistry.Parse(text, kind)
}

// Serialize renders records as the given format with the built-in codecs.
// Unknown kinds yield an empty string.
func Serialize(records RecordSet, kind Kind) string {
	out, _ := defaultRegistry.Serialize(records, kind)
	return out
}
