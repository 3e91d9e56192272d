//
// Copyright 2019 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS-IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
//
// Package btfstore holds a bounded set of independent, concurrently open
// recorder.Recorder sessions, each single-producer (SPEC_FULL.md §3, §5).
// It is purely ambient infrastructure for an embedding process that records
// several simulation runs at once (e.g. a test harness); it does not alter
// the single-session semantics of any one Recorder, and performs no
// analysis of recorded content.
package btfstore

import (
	"sync"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/simplelru"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vectorgrp/btf-toolchain/recorder"
)

// Store is a name-keyed, LRU-bounded collection of open Recorder sessions.
// The zero value is not usable; construct with New.
type Store struct {
	mu      sync.Mutex
	lru     *simplelru.LRU
	evicted int
}

// New builds a Store holding at most capacity sessions at once. Capacity
// must be positive. Evicting the least-recently-used session to make room
// for a new one discards that session's Recorder and its in-memory state;
// this mirrors server/storage_service.go's storageBase cache, generalized
// from read-only collections to live, mutable recording sessions.
func New(capacity int) (*Store, error) {
	s := &Store{}
	lru, err := simplelru.NewLRU(capacity, s.onEvict)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "btfstore: %v", err)
	}
	s.lru = lru
	return s, nil
}

func (s *Store) onEvict(key interface{}, value interface{}) {
	s.evicted++
	glog.Warningf("btfstore: evicting session %q", key)
}

// Open creates a new Recorder session under name and stores it, evicting
// the least-recently-used session if the store is at capacity. It returns
// an error if name is already in use.
func (s *Store) Open(name string, cfg recorder.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lru.Get(name); ok {
		return status.Errorf(codes.AlreadyExists, "btfstore: session %q already open", name)
	}
	s.lru.Add(name, recorder.NewRecorder(cfg))
	return nil
}

// OpenAnonymous behaves like Open but generates a fresh uuid-derived name
// for the caller and returns that name; fetch the session with Get. Use this when the
// caller has no natural session name of its own (server/fs_upload_file.go's
// uuid.New()-per-upload pattern, generalized to per-session handles).
func (s *Store) OpenAnonymous(cfg recorder.Config) (string, error) {
	name := uuid.New().String()
	return name, s.Open(name, cfg)
}

// Get returns the named session's Recorder, marking it most-recently-used.
func (s *Store) Get(name string) (*recorder.Recorder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.lru.Get(name)
	if !ok {
		return nil, false
	}
	return v.(*recorder.Recorder), true
}

// Close removes the named session from the store without further effect on
// the Recorder itself; it is safe to keep using a *recorder.Recorder
// obtained via Get after its session is closed.
func (s *Store) Close(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Remove(name)
}

// Names returns every currently-held session name, least-recently-used
// first (simplelru.LRU.Keys()'s own order).
func (s *Store) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := s.lru.Keys()
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.(string)
	}
	return names
}

// Len returns the number of sessions currently held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}

// Evictions returns the number of sessions removed from the store over its
// lifetime, for use in testing and diagnostics. It counts both
// least-recently-used evictions and sessions removed by Close, since
// simplelru runs the eviction callback for both.
func (s *Store) Evictions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evicted
}
