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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// ErrRelativeURL is returned when a path-only URL is sent without a base URL.
var ErrRelativeURL = errors.New("relative URL without a base URL")

// ResolveURL parses raw and resolves it against base when raw is not absolute.
func ResolveURL(raw string, base *url.URL) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}

	if u.IsAbs() {
		return u, nil
	}

	if base == nil {
		return nil, fmt.Errorf("%w: %s", ErrRelativeURL, raw)
	}

	return base.ResolveReference(u), nil
}

// ToHTTPRequest builds an *http.Request from req.
//
// Headers are added in order. A Host header sets the request's Host and a
// Content-Length header is dropped, since net/http derives it from the body.
// net/http canonicalizes header keys and writes them sorted, so key case and
// cross-key order are not kept on the wire.
func ToHTTPRequest(ctx context.Context, req Request, base *url.URL) (*http.Request, error) {
	target, err := ResolveURL(req.URL(), base)
	if err != nil {
		return nil, err
	}

	var body io.Reader = http.NoBody
	if req.Body() != "" {
		body = strings.NewReader(req.Body())
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method().String(), target.String(), body)
	if err != nil {
		return nil, err
	}

	for _, h := range req.Headers() {
		switch {
		case strings.EqualFold(h.Key, "Host"):
			httpReq.Host = h.Value
		case strings.EqualFold(h.Key, "Content-Length"):
			continue
		default:
			httpReq.Header.Add(h.Key, h.Value)
		}
	}

	return httpReq, nil
}

// FromHTTPRequest builds a Request with the given id from r. The body of r is
// read and replaced with an equivalent reader so r can still be sent.
//
// http.Header does not keep the order headers were set in, so the headers are
// ordered by key. A Host that differs from the URL's host comes first.
func FromHTTPRequest(id int64, r *http.Request) (Request, error) {
	method, err := ParseMethod(r.Method)
	if err != nil {
		return Request{}, err
	}

	var body []byte
	if r.Body != nil && r.Body != http.NoBody {
		body, err = io.ReadAll(r.Body)
		if err != nil {
			return Request{}, err
		}

		if err := r.Body.Close(); err != nil {
			return Request{}, err
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
	}

	var headers []Header
	if r.Host != "" && r.Host != r.URL.Host {
		headers = append(headers, Header{Key: "Host", Value: r.Host})
	}
	headers = append(headers, headersFromHTTP(r.Header)...)

	return NewRequest(id, method, r.URL.String(), headers, string(body))
}

// headersFromHTTP flattens h into a sequence ordered by key.
func headersFromHTTP(h http.Header) []Header {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	headers := make([]Header, 0, len(h))
	for _, k := range keys {
		for _, v := range h[k] {
			headers = append(headers, Header{Key: k, Value: v})
		}
	}

	return headers
}
