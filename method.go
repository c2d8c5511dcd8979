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
	"errors"
	"fmt"
)

// ErrInvalidMethod is returned when a method is not one of the supported HTTP verbs.
var ErrInvalidMethod = errors.New("invalid method")

// Method is an HTTP method a Request can carry.
// The zero value is not a valid Method.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodPatch  Method = "PATCH"
	MethodDelete Method = "DELETE"
)

// Methods returns every supported Method.
func Methods() []Method {
	return []Method{MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete}
}

// ParseMethod returns the Method matching s exactly. Matching is case-sensitive,
// so "get" is rejected.
func ParseMethod(s string) (Method, error) {
	m := Method(s)
	if !m.Valid() {
		return "", invalidMethod(s)
	}

	return m, nil
}

// Valid reports whether m is one of the supported methods.
func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete:
		return true
	default:
		return false
	}
}

func (m Method) String() string {
	return string(m)
}

// MarshalText implements encoding.TextMarshaler.
func (m Method) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, invalidMethod(string(m))
	}

	return []byte(m), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}

	*m = parsed

	return nil
}

func invalidMethod(s string) error {
	return fmt.Errorf("%w: %q", ErrInvalidMethod, s)
}
