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
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveURL(t *testing.T) {
	base, err := url.Parse("https://api.example.com/v1/")
	require.NoError(t, err)

	u, err := ResolveURL("items?q=1", base)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/v1/items?q=1", u.String())

	u, err = ResolveURL("http://other.example.com/x", base)
	require.NoError(t, err)
	assert.Equal(t, "http://other.example.com/x", u.String())

	_, err = ResolveURL("/items", nil)
	assert.ErrorIs(t, err, ErrRelativeURL)
}

func TestToHTTPRequest(t *testing.T) {
	req := mustRequest(t, 1, MethodPost, "https://example.com/items", []Header{
		{"Accept", "*/*"},
		{"X-Multi", "1"},
		{"X-Multi", "2"},
		{"Host", "virtual.example.com"},
		{"Content-Length", "999"},
	}, "hello")

	httpReq, err := ToHTTPRequest(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, httpReq.Method)
	assert.Equal(t, "https://example.com/items", httpReq.URL.String())
	assert.Equal(t, "virtual.example.com", httpReq.Host)
	assert.Equal(t, []string{"1", "2"}, httpReq.Header.Values("X-Multi"))
	assert.Equal(t, "*/*", httpReq.Header.Get("Accept"))
	assert.Empty(t, httpReq.Header.Get("Content-Length"))
	assert.Equal(t, int64(5), httpReq.ContentLength)

	body, err := io.ReadAll(httpReq.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
}

func TestToHTTPRequest_EmptyBody(t *testing.T) {
	req := mustRequest(t, 1, MethodGet, "https://example.com/", nil, "")

	httpReq, err := ToHTTPRequest(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, http.NoBody, httpReq.Body)
	assert.Equal(t, int64(0), httpReq.ContentLength)
}

func TestFromHTTPRequest(t *testing.T) {
	httpReq, err := http.NewRequest(http.MethodPut, "https://example.com/items/1", strings.NewReader("payload"))
	require.NoError(t, err)
	httpReq.Header.Add("X-B", "2")
	httpReq.Header.Add("X-A", "1")
	httpReq.Header.Add("X-A", "0")

	req, err := FromHTTPRequest(5, httpReq)
	require.NoError(t, err)

	assert.Equal(t, int64(5), req.ID())
	assert.Equal(t, MethodPut, req.Method())
	assert.Equal(t, "https://example.com/items/1", req.URL())
	assert.Equal(t, []Header{{"X-A", "1"}, {"X-A", "0"}, {"X-B", "2"}}, req.Headers())
	assert.Equal(t, "payload", req.Body())

	body, err := io.ReadAll(httpReq.Body)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(body), "the body stays readable")
}

func TestFromHTTPRequest_HostOverride(t *testing.T) {
	httpReq, err := http.NewRequest(http.MethodGet, "http://127.0.0.1:8080/", http.NoBody)
	require.NoError(t, err)
	httpReq.Host = "virtual.example.com"

	req, err := FromHTTPRequest(1, httpReq)
	require.NoError(t, err)

	assert.Equal(t, []Header{{"Host", "virtual.example.com"}}, req.Headers())
}

func TestFromHTTPRequest_InvalidMethod(t *testing.T) {
	httpReq, err := http.NewRequest(http.MethodHead, "http://example.com/", http.NoBody)
	require.NoError(t, err)

	_, err = FromHTTPRequest(1, httpReq)
	assert.ErrorIs(t, err, ErrInvalidMethod)
}
