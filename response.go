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
	"io"
	"net/url"
)

// Response is the result of sending a Request with a Fetcher.
type Response struct {
	// StatusCode is the HTTP status code of the response.
	StatusCode int
	// Headers are the response headers ordered by key.
	Headers []Header
	// Body is the fully read response body.
	Body []byte
	// Request is the Request that was sent, after request middlewares.
	Request Request
	// URL is the resolved URL the Request was sent to.
	URL *url.URL
}

// Reader returns a new reader over the response body.
func (r *Response) Reader() io.Reader {
	return bytes.NewReader(r.Body)
}
