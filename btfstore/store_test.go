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
package btfstore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vectorgrp/btf-toolchain/btfstore"
	"github.com/vectorgrp/btf-toolchain/recorder"
)

func TestOpenAndGet(t *testing.T) {
	s, err := btfstore.New(2)
	require.NoError(t, err)

	require.NoError(t, s.Open("run1", recorder.NewConfig()))
	r, ok := s.Get("run1")
	require.True(t, ok)
	require.NotNil(t, r)
	assert.Equal(t, 1, s.Len())
}

func TestOpenRejectsDuplicateName(t *testing.T) {
	s, err := btfstore.New(2)
	require.NoError(t, err)

	require.NoError(t, s.Open("run1", recorder.NewConfig()))
	err = s.Open("run1", recorder.NewConfig())
	require.Error(t, err)
	assert.Equal(t, codes.AlreadyExists, status.Code(err))
}

func TestOpenAnonymousGeneratesUniqueNames(t *testing.T) {
	s, err := btfstore.New(4)
	require.NoError(t, err)

	name1, err := s.OpenAnonymous(recorder.NewConfig())
	require.NoError(t, err)
	name2, err := s.OpenAnonymous(recorder.NewConfig())
	require.NoError(t, err)
	assert.NotEqual(t, name1, name2)
	assert.Equal(t, 2, s.Len())
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	s, err := btfstore.New(1)
	require.NoError(t, err)

	require.NoError(t, s.Open("run1", recorder.NewConfig()))
	require.NoError(t, s.Open("run2", recorder.NewConfig()))

	_, ok := s.Get("run1")
	assert.False(t, ok)
	_, ok = s.Get("run2")
	assert.True(t, ok)
	assert.Equal(t, 1, s.Evictions())
}

func TestClose(t *testing.T) {
	s, err := btfstore.New(2)
	require.NoError(t, err)

	require.NoError(t, s.Open("run1", recorder.NewConfig()))
	assert.True(t, s.Close("run1"))
	assert.False(t, s.Close("run1"))

	_, ok := s.Get("run1")
	assert.False(t, ok)
}

func TestNames(t *testing.T) {
	s, err := btfstore.New(4)
	require.NoError(t, err)

	require.NoError(t, s.Open("run1", recorder.NewConfig()))
	require.NoError(t, s.Open("run2", recorder.NewConfig()))
	assert.ElementsMatch(t, []string{"run1", "run2"}, s.Names())
}
