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
package btfformat_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectorgrp/btf-toolchain/btfformat"
	"github.com/vectorgrp/btf-toolchain/recorder"
)

func TestWriteHeader(t *testing.T) {
	var buf bytes.Buffer
	err := btfformat.WriteHeader(&buf, btfformat.Header{
		Timescale: recorder.TimeScaleNano,
		Custom:    []string{"note first run"},
	})
	require.NoError(t, err)
	assert.Equal(t, "#version 2.2.1\n#creator libBtf\n#timescale ns\n#note first run\n", buf.String())
}

func TestEncodeRecordComment(t *testing.T) {
	r := recorder.NewRecorder(recorder.NewConfig())
	r.Comment("hand-authored trace")
	recs := r.AllEvents()
	require.Len(t, recs, 1)
	assert.Equal(t, "# hand-authored trace", btfformat.EncodeRecord(r, recs[0]))
}

func TestEncodeRecordSemaphoreCarriesZeroNote(t *testing.T) {
	r := recorder.NewRecorder(recorder.NewConfig())
	require.True(t, r.SemaphoreEvent(0, "Sem1", "Sem1", recorder.SemaphoreFree, 0).OK())
	recs := r.AllEvents()
	require.Len(t, recs, 1)
	assert.Equal(t, "0,Sem1,0,SEM,Sem1,0,free,0", btfformat.EncodeRecord(r, recs[0]))
}

func TestEncodeRecordSignalReadOmitsNote(t *testing.T) {
	r := recorder.NewRecorder(recorder.NewConfig(recorder.WithSourceIsCore(true)))
	require.True(t, r.ProcessEvent(0, "Core1", "Task1", 0, recorder.ProcessStart, false).OK())
	require.True(t, r.SignalEvent(1, "Core1", "Sig1", recorder.SignalRead, "ignored").OK())
	recs := r.AllEvents()
	require.Len(t, recs, 2)
	assert.Equal(t, "1,Task1,0,SIG,Sig1,0,read", btfformat.EncodeRecord(r, recs[1]))
}

func TestWriteFileRoundTripsThroughDecodeLine(t *testing.T) {
	r := recorder.NewRecorder(recorder.NewConfig(recorder.WithSourceIsCore(true)))
	require.True(t, r.CoreEvent(0, "Core1", recorder.CoreExecute).OK())
	require.True(t, r.ProcessEvent(10, "Core1", "Task1", 0, recorder.ProcessStart, false).OK())

	var buf bytes.Buffer
	require.NoError(t, btfformat.WriteFile(&buf, btfformat.Header{Timescale: recorder.TimeScaleNano}, r, r.AllEvents()))

	lines := bytes.Split(bytes.TrimRight(buf.Bytes(), "\n"), []byte("\n"))
	require.Len(t, lines, 5) // 3 header lines + 2 events

	version, ok := btfformat.ParseVersionLine(string(lines[0]))
	require.True(t, ok)
	assert.Equal(t, btfformat.Version, version)

	creator, ok := btfformat.ParseCreatorLine(string(lines[1]))
	require.True(t, ok)
	assert.Equal(t, btfformat.Creator, creator)

	ts, ok := btfformat.ParseTimescaleLine(string(lines[2]))
	require.True(t, ok)
	assert.Equal(t, recorder.TimeScaleNano, ts)

	pl, err := btfformat.DecodeLine(string(lines[4]), btfformat.DefaultDelimiter)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), pl.Time)
	assert.Equal(t, "Core1", pl.SourceName)
	assert.Equal(t, "T", pl.Type)
	assert.Equal(t, "Task1", pl.TargetName)
	assert.Equal(t, "start", pl.EventToken)
	assert.False(t, pl.HasNote)
}

func TestDecodeLineWithNote(t *testing.T) {
	pl, err := btfformat.DecodeLine("5,Sem1,0,SEM,Sem1,0,free,0", btfformat.DefaultDelimiter)
	require.NoError(t, err)
	assert.True(t, pl.HasNote)
	assert.Equal(t, "0", pl.Note)
}

func TestDecodeLineRejectsShortLine(t *testing.T) {
	_, err := btfformat.DecodeLine("1,Core1,0,C,Core1", btfformat.DefaultDelimiter)
	assert.Error(t, err)
}

func TestDecodeLineRejectsBadTime(t *testing.T) {
	_, err := btfformat.DecodeLine("nope,Core1,0,C,Core1,0,execute", btfformat.DefaultDelimiter)
	assert.Error(t, err)
}

func TestDecodeComment(t *testing.T) {
	text, ok := btfformat.DecodeComment("# hello world")
	require.True(t, ok)
	assert.Equal(t, "hello world", text)

	_, ok = btfformat.DecodeComment("0,Core1,0,C,Core1,0,execute")
	assert.False(t, ok)
}

func TestParseSemaphoreNote(t *testing.T) {
	v, err := btfformat.ParseSemaphoreNote("3")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), v)

	_, err = btfformat.ParseSemaphoreNote("not-a-number")
	assert.Error(t, err)
}

func TestTypeTokenKindForTokenRoundTrip(t *testing.T) {
	kinds := []recorder.Kind{
		recorder.KindCore, recorder.KindOSEvent, recorder.KindTask, recorder.KindISR,
		recorder.KindStimulus, recorder.KindScheduler, recorder.KindSemaphore,
		recorder.KindRunnable, recorder.KindSignal, recorder.KindSimulation,
		recorder.KindSyscall, recorder.KindThread,
	}
	for _, k := range kinds {
		tok := btfformat.TypeToken(k)
		require.NotEmpty(t, tok)
		got, ok := btfformat.KindForToken(tok)
		require.True(t, ok)
		assert.Equal(t, k, got)
	}
}
