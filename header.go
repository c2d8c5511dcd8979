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
	"slices"
	"strings"
)

// Header is a single HTTP header line. Key and Value are kept exactly as given.
type Header struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// HeadersEqual reports whether a and b hold the same headers in the same order.
// A nil and an empty sequence are equal.
func HeadersEqual(a, b []Header) bool {
	return slices.Equal(a, b)
}

// CloneHeaders returns a copy of headers. The result is never nil.
func CloneHeaders(headers []Header) []Header {
	clone := make([]Header, len(headers))
	copy(clone, headers)

	return clone
}

// Values returns the values of every header whose key matches key
// case-insensitively, in the order they appear.
func Values(headers []Header, key string) []string {
	var values []string

	for _, h := range headers {
		if strings.EqualFold(h.Key, key) {
			values = append(values, h.Value)
		}
	}

	return values
}
