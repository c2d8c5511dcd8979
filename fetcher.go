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
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"
	"golang.org/x/net/http/httpguts"
)

// RobotsAgent is the user agent matched against robots.txt rules.
const RobotsAgent = "Replayr"

var (
	// ErrForbiddenURL is returned when a URL is outside the AllowedURLs or inside the DisallowedURLs.
	ErrForbiddenURL = errors.New("URL is forbidden")
	// ErrRobotsDisallowed is returned when a URL is disallowed by robots.txt.
	ErrRobotsDisallowed = errors.New("URL is disallowed by robots.txt")
	// ErrInvalidHeader is returned when a header cannot be sent over HTTP.
	ErrInvalidHeader = errors.New("invalid header")
)

// Options is a type for functional options that can be used to configure a Fetcher.
type Options func(f *Fetcher)

// ReqMiddleware is called with each Request before it is sent. Since a Request
// is immutable, a middleware returns the Request to send instead of modifying it.
type ReqMiddleware func(req Request) Request

// ResMiddleware is called with each Response after it is received.
type ResMiddleware func(res *Response)

// Fetcher sends Requests with an http.Client.
type Fetcher struct {
	// Client is the http.Client used to send requests.
	Client *http.Client
	// BaseURL is used to resolve path-only Request URLs. Can be set with the WithBaseURL functional option.
	BaseURL *url.URL
	// AllowedURLs is a list of URL prefixes that are allowed to be fetched. Can be set with the WithAllowedURLs functional option.
	AllowedURLs []string
	// DisallowedURLs is a list of URL prefixes that are disallowed to be fetched. Can be set with the WithDisallowedURLs functional option.
	DisallowedURLs []string
	// UserAgent is set on requests that carry no User-Agent header of their own.
	UserAgent string
	// Context is the context used by Visit. Can be set with the WithContext functional option.
	Context context.Context
	// logger receives warnings about non-fatal failures.
	logger logrus.FieldLogger
	// requestMiddlewares is a list of request middlewares that are applied to each request. Can be set with the OnRequest method.
	requestMiddlewares []ReqMiddleware
	// responseMiddlewares is a list of response middlewares that are applied to each response. Can be set with the OnResponse method.
	responseMiddlewares []ResMiddleware
	// ignoreRobots is a flag that determines whether robots.txt should be ignored, defaults to false. Can be set with the WithIgnoreRobots functional option.
	ignoreRobots bool
	// robotsMap is a map of hostnames to robotstxt.RobotsData, which is used to cache robots.txt files.
	robotsMap map[string]*robotstxt.RobotsData
	// mu guards the middleware slices and robotsMap.
	mu sync.RWMutex
}

// NewFetcher creates a new Fetcher configured with the given options.
func NewFetcher(options ...Options) *Fetcher {
	f := &Fetcher{
		Client:              http.DefaultClient,
		AllowedURLs:         []string{},
		DisallowedURLs:      []string{},
		Context:             context.Background(),
		logger:              logrus.StandardLogger(),
		requestMiddlewares:  make([]ReqMiddleware, 0, 4),
		responseMiddlewares: make([]ResMiddleware, 0, 4),
		ignoreRobots:        false,
		robotsMap:           make(map[string]*robotstxt.RobotsData),
	}

	for _, option := range options {
		option(f)
	}

	return f
}

// WithClient is a functional option that sets the http.Client for the Fetcher.
func WithClient(client *http.Client) Options {
	return func(f *Fetcher) {
		f.Client = client
	}
}

// WithBaseURL is a functional option that sets the URL path-only Requests are resolved against.
func WithBaseURL(base *url.URL) Options {
	return func(f *Fetcher) {
		f.BaseURL = base
	}
}

// WithAllowedURLs is a functional option that sets the allowed URLs for the Fetcher.
func WithAllowedURLs(urls []string) Options {
	return func(f *Fetcher) {
		f.AllowedURLs = urls
	}
}

// WithDisallowedURLs is a functional option that sets the disallowed URLs for the Fetcher.
func WithDisallowedURLs(urls []string) Options {
	return func(f *Fetcher) {
		f.DisallowedURLs = urls
	}
}

// WithUserAgent is a functional option that sets the default User-Agent.
func WithUserAgent(ua string) Options {
	return func(f *Fetcher) {
		f.UserAgent = ua
	}
}

// WithContext is a functional option that sets the context used by Visit.
func WithContext(ctx context.Context) Options {
	return func(f *Fetcher) {
		f.Context = ctx
	}
}

// WithIgnoreRobots is a functional option that sets the ignoreRobots flag for the Fetcher.
func WithIgnoreRobots(ignore bool) Options {
	return func(f *Fetcher) {
		f.ignoreRobots = ignore
	}
}

// WithLogger is a functional option that sets the logger for the Fetcher.
func WithLogger(logger logrus.FieldLogger) Options {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// OnRequest adds a request middleware to the Fetcher.
func (f *Fetcher) OnRequest(mw ReqMiddleware) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requestMiddlewares = append(f.requestMiddlewares, mw)
}

// OnResponse adds a response middleware to the Fetcher.
func (f *Fetcher) OnResponse(mw ResMiddleware) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.responseMiddlewares = append(f.responseMiddlewares, mw)
}

// Visit sends a GET Request for u using the Fetcher's Context.
func (f *Fetcher) Visit(u string) (*Response, error) {
	req, err := NewRequest(0, MethodGet, u, nil, "")
	if err != nil {
		return nil, err
	}

	return f.Send(f.Context, req)
}

// Send sends req and returns the fully read Response.
// The Request is checked before anything goes over the network: it must pass
// Validate, carry valid header syntax, and resolve to an allowed URL.
func (f *Fetcher) Send(ctx context.Context, req Request) (*Response, error) {
	req = f.handleOnRequest(req)

	if err := checkRequest(req); err != nil {
		return nil, err
	}

	target, err := ResolveURL(req.URL(), f.BaseURL)
	if err != nil {
		return nil, err
	}

	if err := f.checkFilters(target); err != nil {
		return nil, err
	}

	if err := f.checkRobots(ctx, target); err != nil {
		return nil, err
	}

	httpReq, err := ToHTTPRequest(ctx, req, f.BaseURL)
	if err != nil {
		return nil, err
	}

	if f.UserAgent != "" && httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", f.UserAgent)
	}

	return f.fetch(httpReq, req)
}

func (f *Fetcher) fetch(httpReq *http.Request, req Request) (*Response, error) {
	log := f.logger.WithFields(logrus.Fields{
		"request_id": req.ID(),
		"method":     req.Method(),
		"url":        httpReq.URL.String(),
	})

	log.Debug("sending request")

	res, err := f.Client.Do(httpReq)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := res.Body.Close(); err != nil {
			log.WithError(err).Warn("error closing response body")
		}
	}()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	response := &Response{
		StatusCode: res.StatusCode,
		Headers:    headersFromHTTP(res.Header),
		Body:       b,
		Request:    req,
		URL:        httpReq.URL,
	}

	log.WithField("status", res.StatusCode).Debug("received response")

	f.handleOnResponse(response)

	return response, nil
}

func (f *Fetcher) handleOnRequest(req Request) Request {
	f.mu.RLock()
	mws := f.requestMiddlewares
	f.mu.RUnlock()

	for _, m := range mws {
		req = m(req)
	}

	return req
}

func (f *Fetcher) handleOnResponse(res *Response) {
	f.mu.RLock()
	mws := f.responseMiddlewares
	f.mu.RUnlock()

	for _, m := range mws {
		m(res)
	}
}

// checkRequest rejects Requests that cannot be put on the wire as they are.
func checkRequest(req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}

	for _, h := range req.Headers() {
		if !httpguts.ValidHeaderFieldName(h.Key) {
			return fmt.Errorf("%w: name %q", ErrInvalidHeader, h.Key)
		}

		if !httpguts.ValidHeaderFieldValue(h.Value) {
			return fmt.Errorf("%w: value of %q", ErrInvalidHeader, h.Key)
		}
	}

	return nil
}

func (f *Fetcher) checkRobots(ctx context.Context, u *url.URL) error {
	if f.ignoreRobots {
		return nil
	}

	f.mu.RLock()
	robot, ok := f.robotsMap[u.Host]
	f.mu.RUnlock()

	if !ok {
		robotURL := u.Scheme + "://" + u.Host + "/robots.txt"

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotURL, http.NoBody)
		if err != nil {
			return err
		}

		res, err := f.Client.Do(req)
		if err != nil {
			return err
		}

		defer func() {
			if err := res.Body.Close(); err != nil {
				f.logger.WithError(err).WithField("url", robotURL).Warn("error closing response body")
			}
		}()

		robot, err = robotstxt.FromResponse(res)
		if err != nil {
			return err
		}

		f.mu.Lock()
		f.robotsMap[u.Host] = robot
		f.mu.Unlock()
	}

	if !robot.TestAgent(u.Path, RobotsAgent) {
		return fmt.Errorf("%w: %s", ErrRobotsDisallowed, u)
	}

	return nil
}

func (f *Fetcher) checkFilters(u *url.URL) error {
	if !f.isURLAllowed(u.String()) {
		return fmt.Errorf("%w: %s", ErrForbiddenURL, u)
	}

	return nil
}

// isURLAllowed checks if the given URL is allowed to be fetched.
func (f *Fetcher) isURLAllowed(u string) bool {
	for _, disallowed := range f.DisallowedURLs {
		if strings.HasPrefix(u, disallowed) {
			return false
		}
	}

	if len(f.AllowedURLs) == 0 {
		return true
	}

	for _, allowed := range f.AllowedURLs {
		if strings.HasPrefix(u, allowed) {
			return true
		}
	}

	return false
}
