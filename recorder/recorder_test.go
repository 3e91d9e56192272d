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
package recorder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectorgrp/btf-toolchain/btfformat"
	"github.com/vectorgrp/btf-toolchain/recorder"
)

// encodedLines renders every accepted event as its BTF wire line, for
// comparison against the concrete scenarios of spec section 8.
func encodedLines(t *testing.T, r *recorder.Recorder) []string {
	t.Helper()
	recs := r.AllEvents()
	lines := make([]string, len(recs))
	for i, rec := range recs {
		lines[i] = btfformat.EncodeRecord(r, rec)
	}
	return lines
}

// TestSimpleLifecycle exercises scenario A: one core executing one task
// through a start/terminate lifecycle, with one nested runnable.
func TestSimpleLifecycle(t *testing.T) {
	r := recorder.NewRecorder(recorder.NewConfig(recorder.WithSourceIsCore(true)))

	require.True(t, r.CoreEvent(100, "Core1", recorder.CoreExecute).OK())
	require.True(t, r.ProcessEvent(200, "Core1", "Task1", 0, recorder.ProcessStart, false).OK())
	require.True(t, r.RunnableEvent(300, "Core1", "R1", recorder.RunnableStart).OK())
	require.True(t, r.RunnableEvent(400, "Core1", "R1", recorder.RunnableTerminate).OK())
	require.True(t, r.ProcessEvent(500, "Core1", "Task1", 0, recorder.ProcessTerminate, false).OK())
	require.True(t, r.CoreEvent(600, "Core1", recorder.CoreIdle).OK())

	want := []string{
		"100,Core1,0,C,Core1,0,execute",
		"200,Core1,0,T,Task1,0,start",
		"300,Task1,0,R,R1,0,start",
		"400,Task1,0,R,R1,0,terminate",
		"500,Core1,0,T,Task1,0,terminate",
		"600,Core1,0,C,Core1,0,idle",
	}
	assert.Equal(t, want, encodedLines(t, r))
}

// TestMigrationPairing exercises scenario D: a migration between cores
// expands to an enforced_migration/full_migration pair at the same time.
func TestMigrationPairing(t *testing.T) {
	r := recorder.NewRecorder(recorder.NewConfig(recorder.WithSourceIsCore(true)))

	require.True(t, r.ProcessEvent(100, "Core1", "Task1", 0, recorder.ProcessStart, false).OK())
	require.True(t, r.ProcessEvent(100, "Core1", "Task1", 0, recorder.ProcessWait, false).OK())
	require.True(t, r.TaskMigrationEvent(100, "Core1", "Core2", "Task1", 0).OK())
	require.True(t, r.ProcessEvent(100, "Core2", "Task1", 0, recorder.ProcessRelease, false).OK())
	require.True(t, r.ProcessEvent(100, "Core2", "Task1", 0, recorder.ProcessResume, false).OK())
	require.True(t, r.ProcessEvent(100, "Core2", "Task1", 0, recorder.ProcessTerminate, false).OK())

	want := []string{
		"100,Core1,0,T,Task1,0,start",
		"100,Core1,0,T,Task1,0,wait",
		"100,Core1,0,T,Task1,0,enforcedmigration",
		"100,Core2,0,T,Task1,0,fullmigration",
		"100,Core2,0,T,Task1,0,release",
		"100,Core2,0,T,Task1,0,resume",
		"100,Core2,0,T,Task1,0,terminate",
	}
	assert.Equal(t, want, encodedLines(t, r))
}

// TestAutoSuspendSiblings exercises scenario B: starting a second, sibling
// runnable under the same task auto-suspends the first and auto-resumes it
// on the second's terminate, when auto_suspend_parent_runnable is set.
func TestAutoSuspendSiblings(t *testing.T) {
	r := recorder.NewRecorder(recorder.NewConfig(
		recorder.WithSourceIsCore(true),
		recorder.WithAutoSuspendParentRunnable(true),
	))

	require.True(t, r.ProcessEvent(0, "Core1", "Task1", 0, recorder.ProcessStart, false).OK())
	require.True(t, r.RunnableEvent(10, "Core1", "R1", recorder.RunnableStart).OK())
	require.True(t, r.RunnableEvent(20, "Core1", "R2", recorder.RunnableStart).OK())
	require.True(t, r.RunnableEvent(30, "Core1", "R2", recorder.RunnableTerminate).OK())

	want := []string{
		"0,Core1,0,T,Task1,0,start",
		"10,Task1,0,R,R1,0,start",
		"20,Task1,0,R,R1,0,suspend",
		"20,Task1,0,R,R2,0,start",
		"30,Task1,0,R,R2,0,terminate",
		"30,Task1,0,R,R1,0,resume",
	}
	assert.Equal(t, want, encodedLines(t, r))
}

// TestOSAutoWaitResume exercises scenario E: with auto_wait_resume_os_events
// set, an OS wait_event on a running task also emits Process::wait, freeing
// its core; the matching set_event, reported from a second core's ISR, then
// emits release then resume for the waiting instance.
func TestOSAutoWaitResume(t *testing.T) {
	r := recorder.NewRecorder(recorder.NewConfig(
		recorder.WithSourceIsCore(true),
		recorder.WithAutoWaitResumeOSEvents(true),
	))

	require.True(t, r.ProcessEvent(0, "Core1", "Task1", 0, recorder.ProcessStart, false).OK())
	require.True(t, r.OSEvent(10, "Core1", "OS1", recorder.OSWaitEvent).OK())
	require.True(t, r.ProcessEvent(15, "Core2", "ISR1", 0, recorder.ProcessStart, true).OK())
	require.True(t, r.OSEvent(20, "Core2", "OS1", recorder.OSSetEvent).OK())

	want := []string{
		"0,Core1,0,T,Task1,0,start",
		"10,Task1,0,EVENT,OS1,0,wait_event",
		"10,Core1,0,T,Task1,0,wait",
		"15,Core2,0,I,ISR1,0,start",
		"20,ISR1,0,EVENT,OS1,0,set_event",
		"20,Core1,0,T,Task1,0,release",
		"20,Core1,0,T,Task1,0,resume",
	}
	assert.Equal(t, want, encodedLines(t, r))
}

// TestPreemptSuspendsNestedRunnablesInnerToOuter exercises scenario C: a
// preempt on a task running two nested runnables suspends them innermost
// first, and the later resume restores them outermost first.
func TestPreemptSuspendsNestedRunnablesInnerToOuter(t *testing.T) {
	r := recorder.NewRecorder(recorder.NewConfig(recorder.WithSourceIsCore(true)))

	require.True(t, r.ProcessEvent(0, "Core1", "Task1", 0, recorder.ProcessStart, false).OK())
	require.True(t, r.RunnableEvent(10, "Core1", "R1", recorder.RunnableStart).OK())
	require.True(t, r.RunnableEvent(20, "Core1", "R2", recorder.RunnableStart).OK())
	require.True(t, r.ProcessEvent(30, "Core1", "Task1", 0, recorder.ProcessPreempt, false).OK())
	require.True(t, r.ProcessEvent(40, "Core1", "Task1", 0, recorder.ProcessResume, false).OK())

	want := []string{
		"0,Core1,0,T,Task1,0,start",
		"10,Task1,0,R,R1,0,start",
		"20,Task1,0,R,R2,0,start",
		"30,Task1,0,R,R2,0,suspend",
		"30,Task1,0,R,R1,0,suspend",
		"30,Core1,0,T,Task1,0,preempt",
		"40,Core1,0,T,Task1,0,resume",
		"40,Task1,0,R,R1,0,resume",
		"40,Task1,0,R,R2,0,resume",
	}
	assert.Equal(t, want, encodedLines(t, r))
}

// TestDescendingTimestampRejected exercises scenario F: an event with a
// timestamp smaller than the last accepted one is rejected outright and
// leaves the event log untouched.
func TestDescendingTimestampRejected(t *testing.T) {
	r := recorder.NewRecorder(recorder.NewConfig(recorder.WithSourceIsCore(true)))

	require.True(t, r.ProcessEvent(100, "Core1", "Task1", 0, recorder.ProcessWait, false).OK())
	before := r.NumEvents()

	st := r.ProcessEvent(0, "Core1", "Task1", 0, recorder.ProcessTerminate, false)
	assert.Equal(t, recorder.DescendingTimestamp, st)
	assert.Equal(t, before, r.NumEvents())
}

func TestCoreEventRejectsDoubleAllocation(t *testing.T) {
	r := recorder.NewRecorder(recorder.NewConfig(recorder.WithSourceIsCore(true)))

	require.True(t, r.ProcessEvent(0, "Core1", "Task1", 0, recorder.ProcessStart, false).OK())
	st := r.ProcessEvent(1, "Core1", "Task2", 0, recorder.ProcessStart, false)
	assert.Equal(t, recorder.MultipleTasksRunning, st)
}

func TestCoreIdleWhileTaskRunningRejected(t *testing.T) {
	r := recorder.NewRecorder(recorder.NewConfig(recorder.WithSourceIsCore(true)))

	require.True(t, r.ProcessEvent(0, "Core1", "Task1", 0, recorder.ProcessStart, false).OK())
	st := r.CoreEvent(1, "Core1", recorder.CoreIdle)
	assert.Equal(t, recorder.CoreIdleTaskStillRunning, st)
}

func TestTypeStabilityRejectsKindMismatch(t *testing.T) {
	r := recorder.NewRecorder(recorder.NewConfig(recorder.WithSourceIsCore(true)))

	require.True(t, r.CoreEvent(0, "X1", recorder.CoreExecute).OK())
	st := r.ProcessEvent(1, "X1", "Task1", 0, recorder.ProcessStart, false)
	assert.True(t, st.OK())

	st = r.ProcessEvent(2, "X1", "X1", 0, recorder.ProcessStart, false)
	assert.Equal(t, recorder.InvalidType, st)
}

func TestStimulusRequiresEqualSourceAndTarget(t *testing.T) {
	r := recorder.NewRecorder(recorder.NewConfig())
	st := r.StimulusEvent(0, "Stim1", "Stim2", recorder.StimulusTrigger)
	assert.Equal(t, recorder.SourceAndTargetNotEqual, st)
}

func TestThreadEventUsesThreadKind(t *testing.T) {
	r := recorder.NewRecorder(recorder.NewConfig(recorder.WithSourceIsCore(true)))
	require.True(t, r.CoreEvent(0, "Core1", recorder.CoreExecute).OK())
	require.True(t, r.ThreadEvent(1, "Core1", "Thread1", 0, recorder.ProcessStart).OK())

	recs := r.EventsForEntity("Thread1")
	require.Len(t, recs, 1)
	assert.Equal(t, recorder.KindThread, recs[0].Kind)
}
