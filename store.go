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
	"sort"
	"sync"
)

var (
	// ErrDuplicateID is returned when a Request with the same ID is already stored.
	ErrDuplicateID = errors.New("duplicate request id")
	// ErrNotFound is returned when no Request with the given ID is stored.
	ErrNotFound = errors.New("request not found")
)

// DuplicateID wraps ErrDuplicateID with the offending id.
func DuplicateID(id int64) error {
	return fmt.Errorf("%w: %d", ErrDuplicateID, id)
}

// NotFound wraps ErrNotFound with the missing id.
func NotFound(id int64) error {
	return fmt.Errorf("%w: %d", ErrNotFound, id)
}

// Storer is a collection of Requests keyed by ID. It is the place where ID
// uniqueness is enforced.
type Storer interface {
	// Put stores the Request. It returns ErrDuplicateID if the ID is taken.
	Put(ctx context.Context, req Request) error
	// Get returns the Request with the given ID or ErrNotFound.
	Get(ctx context.Context, id int64) (Request, error)
	// List returns every stored Request ordered by ID.
	List(ctx context.Context) ([]Request, error)
	// Delete removes the Request with the given ID or returns ErrNotFound.
	Delete(ctx context.Context, id int64) error
	// NextID returns an ID one larger than the largest stored ID, or 1 if empty.
	NextID(ctx context.Context) (int64, error)
}

type InMemoryStore struct {
	requests map[int64]Request
	lock     *sync.RWMutex
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		requests: make(map[int64]Request),
		lock:     &sync.RWMutex{},
	}
}

func (s *InMemoryStore) Put(_ context.Context, req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.requests[req.ID()]; ok {
		return DuplicateID(req.ID())
	}

	s.requests[req.ID()] = req

	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id int64) (Request, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	req, ok := s.requests[id]
	if !ok {
		return Request{}, NotFound(id)
	}

	return req, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]Request, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	reqs := make([]Request, 0, len(s.requests))
	for _, req := range s.requests {
		reqs = append(reqs, req)
	}

	sort.Slice(reqs, func(i, j int) bool {
		return reqs[i].ID() < reqs[j].ID()
	})

	return reqs, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id int64) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.requests[id]; !ok {
		return NotFound(id)
	}

	delete(s.requests, id)

	return nil
}

func (s *InMemoryStore) NextID(_ context.Context) (int64, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	var max int64
	for id := range s.requests {
		if id > max {
			max = id
		}
	}

	return max + 1, nil
}
