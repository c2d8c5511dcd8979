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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRequest(t *testing.T, id int64, method Method, url string, headers []Header, body string) Request {
	t.Helper()

	req, err := NewRequest(id, method, url, headers, body)
	require.NoError(t, err)

	return req
}

func TestNewRequest(t *testing.T) {
	headers := []Header{{"Accept", "*/*"}, {"X-Id", "1"}}

	req := mustRequest(t, 7, MethodPost, "https://example.com/items?q=1", headers, `{"a":1}`)

	assert.Equal(t, int64(7), req.ID())
	assert.Equal(t, MethodPost, req.Method())
	assert.Equal(t, "https://example.com/items?q=1", req.URL())
	assert.Equal(t, headers, req.Headers())
	assert.Equal(t, `{"a":1}`, req.Body())
}

func TestNewRequest_EveryMethod(t *testing.T) {
	for _, m := range Methods() {
		req, err := NewRequest(1, m, "/items", nil, "")
		require.NoError(t, err)
		assert.Equal(t, m, req.Method())
	}
}

func TestNewRequest_InvalidMethod(t *testing.T) {
	for _, m := range []Method{"HEAD", "OPTIONS", "get", ""} {
		req, err := NewRequest(1, m, "/items", nil, "")
		assert.ErrorIs(t, err, ErrInvalidMethod)
		assert.Equal(t, Request{}, req, "no partial request is returned")
	}
}

func TestNewRequest_EmptyHeadersAndBody(t *testing.T) {
	req := mustRequest(t, 1, MethodGet, "/items", nil, "")

	assert.NotNil(t, req.Headers())
	assert.Empty(t, req.Headers())
	assert.Equal(t, "", req.Body())
}

func TestNewRequest_CopiesHeaders(t *testing.T) {
	headers := []Header{{"A", "1"}}
	req := mustRequest(t, 1, MethodGet, "/items", headers, "")

	headers[0].Value = "changed"
	assert.Equal(t, "1", req.Headers()[0].Value)

	got := req.Headers()
	got[0].Value = "changed"
	assert.Equal(t, "1", req.Headers()[0].Value)
}

func TestRequest_Equal(t *testing.T) {
	get := mustRequest(t, 1, MethodGet, "/items", []Header{}, "")
	post := mustRequest(t, 1, MethodPost, "/items", []Header{}, "")

	assert.True(t, get.Equal(get))
	assert.True(t, get.Equal(mustRequest(t, 1, MethodGet, "/items", nil, "")))
	assert.False(t, get.Equal(post))
	assert.False(t, get.Equal(get.WithID(2)))
	assert.False(t, get.Equal(get.WithURL("/items/")))
	assert.False(t, get.Equal(get.WithBody(" ")))
}

func TestRequest_EqualHeaderOrder(t *testing.T) {
	ab := mustRequest(t, 1, MethodGet, "/", []Header{{"A", "1"}, {"B", "2"}}, "")
	ba := mustRequest(t, 1, MethodGet, "/", []Header{{"B", "2"}, {"A", "1"}}, "")

	assert.False(t, ab.Equal(ba))
	assert.True(t, ab.Equal(ba.WithHeaders([]Header{{"A", "1"}, {"B", "2"}})))
}

func TestRequest_EqualHeaderCase(t *testing.T) {
	upper := mustRequest(t, 1, MethodGet, "/", []Header{{"Accept", "x"}}, "")
	lower := mustRequest(t, 1, MethodGet, "/", []Header{{"accept", "x"}}, "")

	assert.False(t, upper.Equal(lower))
}

func TestRequest_DuplicateHeaders(t *testing.T) {
	req := mustRequest(t, 1, MethodGet, "/", []Header{{"X", "1"}, {"X", "2"}}, "")

	assert.Equal(t, []Header{{"X", "1"}, {"X", "2"}}, req.Headers())
	assert.Equal(t, []string{"1", "2"}, Values(req.Headers(), "x"))
}

func TestRequest_DerivationsLeaveOriginal(t *testing.T) {
	orig := mustRequest(t, 1, MethodGet, "/items", []Header{{"A", "1"}}, "body")
	snapshot := mustRequest(t, 1, MethodGet, "/items", []Header{{"A", "1"}}, "body")

	_ = orig.WithID(2)
	_ = orig.WithURL("/other")
	_ = orig.WithBody("")
	_ = orig.WithHeaders(nil)
	added := orig.AddHeader("B", "2")
	patched, err := orig.WithMethod(MethodPatch)
	require.NoError(t, err)

	assert.True(t, orig.Equal(snapshot))
	assert.Equal(t, []Header{{"A", "1"}, {"B", "2"}}, added.Headers())
	assert.Equal(t, MethodPatch, patched.Method())

	_, err = orig.WithMethod("HEAD")
	assert.ErrorIs(t, err, ErrInvalidMethod)
}

func TestRequest_AddHeaderDoesNotShareBacking(t *testing.T) {
	base := mustRequest(t, 1, MethodGet, "/", make([]Header, 0, 8), "")

	a := base.AddHeader("A", "1")
	b := base.AddHeader("B", "2")

	assert.Equal(t, []Header{{"A", "1"}}, a.Headers())
	assert.Equal(t, []Header{{"B", "2"}}, b.Headers())
}

func TestRequest_Validate(t *testing.T) {
	ok := mustRequest(t, 1, MethodGet, "/items", []Header{{"A", ""}}, "")
	assert.NoError(t, ok.Validate())

	assert.ErrorIs(t, ok.WithURL("").Validate(), ErrEmptyURL)
	assert.ErrorIs(t, ok.AddHeader("", "v").Validate(), ErrEmptyHeaderKey)
	assert.ErrorIs(t, Request{}.Validate(), ErrInvalidMethod)
}

func TestRequest_ZeroValueIsInvalid(t *testing.T) {
	var req Request

	assert.False(t, req.Method().Valid())
	assert.ErrorIs(t, req.Validate(), ErrInvalidMethod)
}

func TestRequest_ValidateUTF8(t *testing.T) {
	ok := mustRequest(t, 1, MethodGet, "/é", []Header{{"X-Name", "José"}}, "\n")
	assert.NoError(t, ok.ValidateUTF8())

	assert.ErrorIs(t, ok.WithURL("/\xff").ValidateUTF8(), ErrInvalidUTF8)
	assert.ErrorIs(t, ok.AddHeader("X-\xff", "v").ValidateUTF8(), ErrInvalidUTF8)
	assert.ErrorIs(t, ok.AddHeader("X", "Jos\xe9").ValidateUTF8(), ErrInvalidUTF8)
	assert.ErrorIs(t, ok.WithBody("caf\xe9").ValidateUTF8(), ErrInvalidUTF8)
}

func TestRequest_String(t *testing.T) {
	req := mustRequest(t, 3, MethodDelete, "/items/3", nil, "")

	assert.Equal(t, "#3 DELETE /items/3", req.String())
}

func TestRequest_ConcurrentReads(t *testing.T) {
	req := mustRequest(t, 1, MethodGet, "/", []Header{{"A", "1"}, {"B", "2"}}, "")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h := req.Headers()
			h[0].Value = "mine"
			assert.Equal(t, "1", req.Headers()[0].Value)
		}()
	}
	wg.Wait()
}
