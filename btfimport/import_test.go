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
package btfimport_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectorgrp/btf-toolchain/btfformat"
	"github.com/vectorgrp/btf-toolchain/btfimport"
	"github.com/vectorgrp/btf-toolchain/recorder"
)

func encodedLines(r *recorder.Recorder) []string {
	recs := r.AllEvents()
	lines := make([]string, len(recs))
	for i, rec := range recs {
		lines[i] = btfformat.EncodeRecord(r, rec)
	}
	return lines
}

const header = "#version 2.2.1\n#creator libBtf\n#timescale ns\n"

func TestImportReplaysSimpleLifecycle(t *testing.T) {
	text := header + strings.Join([]string{
		"100,Core1,0,C,Core1,0,execute",
		"200,Core1,0,T,Task1,0,start",
		"300,Task1,0,R,R1,0,start",
		"400,Task1,0,R,R1,0,terminate",
		"500,Core1,0,T,Task1,0,terminate",
		"600,Core1,0,C,Core1,0,idle",
	}, "\n") + "\n"

	r := recorder.NewRecorder(recorder.NewConfig())
	im := btfimport.NewImporter(r)
	require.NoError(t, im.Import(strings.NewReader(text)))
	assert.Empty(t, im.Warnings())
	assert.Equal(t, []string{
		"100,Core1,0,C,Core1,0,execute",
		"200,Core1,0,T,Task1,0,start",
		"300,Task1,0,R,R1,0,start",
		"400,Task1,0,R,R1,0,terminate",
		"500,Core1,0,T,Task1,0,terminate",
		"600,Core1,0,C,Core1,0,idle",
	}, encodedLines(r))
}

func TestImportReassemblesMigrationPair(t *testing.T) {
	text := header + strings.Join([]string{
		"100,Core1,0,T,Task1,0,start",
		"100,Core1,0,T,Task1,0,wait",
		"100,Core1,0,T,Task1,0,enforcedmigration",
		"100,Core2,0,T,Task1,0,fullmigration",
		"100,Core2,0,T,Task1,0,release",
		"100,Core2,0,T,Task1,0,resume",
		"100,Core2,0,T,Task1,0,terminate",
	}, "\n") + "\n"

	r := recorder.NewRecorder(recorder.NewConfig())
	im := btfimport.NewImporter(r)
	require.NoError(t, im.Import(strings.NewReader(text)))
	assert.Empty(t, im.Warnings())
	assert.Equal(t, []string{
		"100,Core1,0,T,Task1,0,start",
		"100,Core1,0,T,Task1,0,wait",
		"100,Core1,0,T,Task1,0,enforcedmigration",
		"100,Core2,0,T,Task1,0,fullmigration",
		"100,Core2,0,T,Task1,0,release",
		"100,Core2,0,T,Task1,0,resume",
		"100,Core2,0,T,Task1,0,terminate",
	}, encodedLines(r))
}

func TestImportDropsUnmatchedEnforcedMigration(t *testing.T) {
	text := header + strings.Join([]string{
		"100,Core1,0,T,Task1,0,start",
		"100,Core1,0,T,Task1,0,wait",
		"100,Core1,0,T,Task1,0,enforcedmigration",
		"200,Core2,0,T,Task1,0,release",
	}, "\n") + "\n"

	r := recorder.NewRecorder(recorder.NewConfig())
	im := btfimport.NewImporter(r)
	require.NoError(t, im.Import(strings.NewReader(text)))
	require.Len(t, im.Warnings(), 1)
	assert.Contains(t, im.Warnings()[0], "not immediately followed by full_migration")

	// the dangling enforced_migration is dropped; the unrelated release line
	// that followed it is still replayed normally.
	assert.Equal(t, []string{
		"100,Core1,0,T,Task1,0,start",
		"100,Core1,0,T,Task1,0,wait",
		"200,Core2,0,T,Task1,0,release",
	}, encodedLines(r))
}

func TestImportDropsTrailingUnmatchedEnforcedMigration(t *testing.T) {
	text := header + strings.Join([]string{
		"100,Core1,0,T,Task1,0,start",
		"100,Core1,0,T,Task1,0,wait",
		"100,Core1,0,T,Task1,0,enforcedmigration",
	}, "\n") + "\n"

	r := recorder.NewRecorder(recorder.NewConfig())
	im := btfimport.NewImporter(r)
	require.NoError(t, im.Import(strings.NewReader(text)))
	require.Len(t, im.Warnings(), 1)
	assert.Contains(t, im.Warnings()[0], "never matched")
	assert.Equal(t, []string{
		"100,Core1,0,T,Task1,0,start",
		"100,Core1,0,T,Task1,0,wait",
	}, encodedLines(r))
}

func TestImportWarnsOnUnparseableLineAndContinues(t *testing.T) {
	text := header + strings.Join([]string{
		"not,a,valid,line",
		"100,Core1,0,T,Task1,0,start",
	}, "\n") + "\n"

	r := recorder.NewRecorder(recorder.NewConfig())
	im := btfimport.NewImporter(r)
	require.NoError(t, im.Import(strings.NewReader(text)))
	require.Len(t, im.Warnings(), 1)
	assert.Contains(t, im.Warnings()[0], "skipping unparseable line")
	assert.Equal(t, []string{"100,Core1,0,T,Task1,0,start"}, encodedLines(r))
}

func TestImportWarnsOnRejectedEvent(t *testing.T) {
	text := header + strings.Join([]string{
		"100,Core1,0,T,Task1,0,wait",
		"0,Core1,0,T,Task1,0,terminate",
	}, "\n") + "\n"

	r := recorder.NewRecorder(recorder.NewConfig())
	im := btfimport.NewImporter(r)
	require.NoError(t, im.Import(strings.NewReader(text)))
	require.Len(t, im.Warnings(), 1)
	assert.Contains(t, im.Warnings()[0], "rejected")
	assert.Equal(t, 1, r.NumEvents())
}

func TestImportReplaysComments(t *testing.T) {
	text := header + "# hand-authored note\n100,Core1,0,T,Task1,0,start\n"

	r := recorder.NewRecorder(recorder.NewConfig())
	im := btfimport.NewImporter(r)
	require.NoError(t, im.Import(strings.NewReader(text)))
	assert.Empty(t, im.Warnings())
	assert.Equal(t, []string{
		"# hand-authored note",
		"100,Core1,0,T,Task1,0,start",
	}, encodedLines(r))
}
