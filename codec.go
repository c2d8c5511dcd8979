/*
Copyright 2024 Henri Remonen

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
package replayr

import (
	"encoding/json"
	"fmt"
	"strconv"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// record is the serialized shape of a Request shared by the JSON and YAML codecs.
// Headers is always written as a list, never null.
type record struct {
	ID      int64    `json:"id" yaml:"id"`
	Method  string   `json:"method" yaml:"method"`
	URL     string   `json:"url" yaml:"url"`
	Headers []Header `json:"headers" yaml:"headers"`
	Body    string   `json:"body" yaml:"body"`
}

func (r Request) record() (record, error) {
	if !r.method.Valid() {
		return record{}, invalidMethod(string(r.method))
	}

	if err := r.ValidateUTF8(); err != nil {
		return record{}, err
	}

	return record{
		ID:      r.id,
		Method:  r.method.String(),
		URL:     r.url,
		Headers: CloneHeaders(r.headers),
		Body:    r.body,
	}, nil
}

func (rec record) request() (Request, error) {
	return NewRequest(rec.ID, Method(rec.Method), rec.URL, rec.Headers, rec.Body)
}

// MarshalJSON implements json.Marshaler.
func (r Request) MarshalJSON() ([]byte, error) {
	rec, err := r.record()
	if err != nil {
		return nil, err
	}

	return json.Marshal(rec)
}

// UnmarshalJSON implements json.Unmarshaler. A missing or null headers field
// decodes to an empty sequence.
func (r *Request) UnmarshalJSON(data []byte) error {
	if !utf8.Valid(data) {
		return fmt.Errorf("%w: JSON input", ErrInvalidUTF8)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}

	req, err := rec.request()
	if err != nil {
		return err
	}

	*r = req

	return nil
}

// MarshalYAML implements yaml.Marshaler. Every string is written double-quoted:
// block and plain scalars lose trailing line breaks and surrounding spaces.
func (r Request) MarshalYAML() (interface{}, error) {
	rec, err := r.record()
	if err != nil {
		return nil, err
	}

	headers := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, h := range rec.Headers {
		headers.Content = append(headers.Content, mappingNode([]yamlField{
			{"key", quotedNode(h.Key)},
			{"value", quotedNode(h.Value)},
		}))
	}

	return mappingNode([]yamlField{
		{"id", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(rec.ID, 10)}},
		{"method", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: rec.Method}},
		{"url", quotedNode(rec.URL)},
		{"headers", headers},
		{"body", quotedNode(rec.Body)},
	}), nil
}

type yamlField struct {
	key   string
	value *yaml.Node
}

func mappingNode(fields []yamlField) *yaml.Node {
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	for _, f := range fields {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.key}
		m.Content = append(m.Content, key, f.value)
	}

	return m
}

func quotedNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s, Style: yaml.DoubleQuotedStyle}
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Request) UnmarshalYAML(value *yaml.Node) error {
	var rec record
	if err := value.Decode(&rec); err != nil {
		return err
	}

	req, err := rec.request()
	if err != nil {
		return err
	}

	*r = req

	return nil
}
