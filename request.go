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
	"unicode/utf8"
)

var (
	// ErrEmptyURL is returned by Validate when a Request has no URL.
	ErrEmptyURL = errors.New("empty URL")
	// ErrEmptyHeaderKey is returned by Validate when a Header has no key.
	ErrEmptyHeaderKey = errors.New("empty header key")
	// ErrInvalidUTF8 is returned by text encodings asked to hold bytes that are not valid UTF-8.
	ErrInvalidUTF8 = errors.New("text is not valid UTF-8")
)

// Request is a description of a single outbound HTTP request.
//
// A Request is an immutable value: the With* methods return a new Request and
// never modify the receiver, so a Request can be shared between goroutines
// without locking. The ID is assigned by whoever owns the collection the
// Request lives in; Request itself never generates or checks it.
//
// The zero value is not a valid Request: its method is empty. Valid values
// come from NewRequest and the decoders.
type Request struct {
	id      int64
	method  Method
	url     string
	headers []Header
	body    string
}

// NewRequest creates a Request. It fails with ErrInvalidMethod if method is
// not one of the supported methods. All other fields are accepted as given.
func NewRequest(id int64, method Method, url string, headers []Header, body string) (Request, error) {
	if !method.Valid() {
		return Request{}, invalidMethod(string(method))
	}

	return Request{
		id:      id,
		method:  method,
		url:     url,
		headers: CloneHeaders(headers),
		body:    body,
	}, nil
}

func (r Request) ID() int64 {
	return r.id
}

func (r Request) Method() Method {
	return r.method
}

func (r Request) URL() string {
	return r.url
}

// Headers returns a copy of the headers in their original order.
func (r Request) Headers() []Header {
	return CloneHeaders(r.headers)
}

func (r Request) Body() string {
	return r.body
}

// Equal reports whether r and other have equal fields. Headers are compared
// in order, so [A, B] and [B, A] are different.
func (r Request) Equal(other Request) bool {
	return r.id == other.id &&
		r.method == other.method &&
		r.url == other.url &&
		r.body == other.body &&
		HeadersEqual(r.headers, other.headers)
}

// WithID returns a copy of r with the given id.
func (r Request) WithID(id int64) Request {
	c := r.clone()
	c.id = id

	return c
}

// WithMethod returns a copy of r with the given method.
func (r Request) WithMethod(method Method) (Request, error) {
	if !method.Valid() {
		return Request{}, invalidMethod(string(method))
	}

	c := r.clone()
	c.method = method

	return c, nil
}

// WithURL returns a copy of r with the given url.
func (r Request) WithURL(url string) Request {
	c := r.clone()
	c.url = url

	return c
}

// WithHeaders returns a copy of r with headers replaced.
func (r Request) WithHeaders(headers []Header) Request {
	c := r.clone()
	c.headers = CloneHeaders(headers)

	return c
}

// AddHeader returns a copy of r with the header appended after the existing ones.
func (r Request) AddHeader(key, value string) Request {
	c := r.clone()
	c.headers = append(c.headers, Header{Key: key, Value: value})

	return c
}

// WithBody returns a copy of r with the given body.
func (r Request) WithBody(body string) Request {
	c := r.clone()
	c.body = body

	return c
}

// Validate checks the fields NewRequest accepts unchecked. Collaborators that
// send or store a Request call it at their boundary.
func (r Request) Validate() error {
	if !r.method.Valid() {
		return invalidMethod(string(r.method))
	}

	if r.url == "" {
		return ErrEmptyURL
	}

	for i, h := range r.headers {
		if h.Key == "" {
			return fmt.Errorf("%w at position %d", ErrEmptyHeaderKey, i)
		}
	}

	return nil
}

// ValidateUTF8 reports the first field that is not valid UTF-8. Byte-exact
// holders such as InMemoryStore and the wire codec do not need it; encodings
// built on text, like JSON or a TEXT column, call it instead of letting
// invalid bytes be replaced.
func (r Request) ValidateUTF8() error {
	if !utf8.ValidString(r.url) {
		return fmt.Errorf("%w: url", ErrInvalidUTF8)
	}

	for i, h := range r.headers {
		if !utf8.ValidString(h.Key) {
			return fmt.Errorf("%w: header key at position %d", ErrInvalidUTF8, i)
		}

		if !utf8.ValidString(h.Value) {
			return fmt.Errorf("%w: value of header %q", ErrInvalidUTF8, h.Key)
		}
	}

	if !utf8.ValidString(r.body) {
		return fmt.Errorf("%w: body", ErrInvalidUTF8)
	}

	return nil
}

func (r Request) String() string {
	return fmt.Sprintf("#%d %s %s", r.id, r.method, r.url)
}

func (r Request) clone() Request {
	c := r
	c.headers = CloneHeaders(r.headers)

	return c
}
