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
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"
)

// Recorder is an http.RoundTripper that stores every request passing through
// it as a Request before handing it to the inner RoundTripper.
type Recorder struct {
	store  Storer
	inner  http.RoundTripper
	logger logrus.FieldLogger

	// mu serializes NextID and Put so concurrent requests get distinct ids.
	mu sync.Mutex
}

var _ http.RoundTripper = (*Recorder)(nil)

// NewRecorder returns a Recorder storing into store. A nil inner uses http.DefaultTransport.
func NewRecorder(store Storer, inner http.RoundTripper) *Recorder {
	if inner == nil {
		inner = http.DefaultTransport
	}

	return &Recorder{
		store:  store,
		inner:  inner,
		logger: logrus.StandardLogger(),
	}
}

// SetLogger replaces the logger used for requests that could not be recorded.
func (r *Recorder) SetLogger(logger logrus.FieldLogger) {
	r.logger = logger
}

// RoundTrip records req and forwards it. Requests that cannot be recorded,
// such as ones using a method outside the supported set, are still forwarded.
// req itself is left untouched.
func (r *Recorder) RoundTrip(req *http.Request) (*http.Response, error) {
	out, err := r.record(req)
	if err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"method": req.Method,
			"url":    req.URL.String(),
		}).Warn("request not recorded")
	}

	return r.inner.RoundTrip(out)
}

// record stores req and returns the request to forward. When the body cannot
// be obtained again through GetBody, the returned request is a clone carrying
// a buffered copy of the body.
func (r *Recorder) record(req *http.Request) (*http.Request, error) {
	ctx := req.Context()
	snapshot := req.Clone(ctx)
	out := req

	if req.GetBody != nil && req.Body != nil && req.Body != http.NoBody {
		body, err := req.GetBody()
		if err != nil {
			return req, err
		}
		snapshot.Body = body
	} else {
		out = snapshot
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.store.NextID(ctx)
	if err != nil {
		return out, err
	}

	rec, err := FromHTTPRequest(id, snapshot)
	if err != nil {
		return out, err
	}

	return out, r.store.Put(ctx, rec)
}
