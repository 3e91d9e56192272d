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
// Package recorder implements the validating BTF event recorder: per-entity
// state machines, their cross-coupling, auto-derivation of implied events,
// and the append-only event log that backs the textual BTF file format.
package recorder

// Status is the closed error enumeration returned by every Recorder method.
// It is a value type, not a Go error: the recorder's contract is that each
// public operation returns exactly one Status, per the BTF validation rules.
type Status int

const (
	// Success indicates the event was accepted and appended (or, for
	// comment/header/finish operations, applied) without error.
	Success Status = iota
	// AlreadyInState indicates a transition to a state the entity's source
	// considers a no-op; the event is not appended.
	AlreadyInState
	// InvalidStateTransition indicates the event is not permitted from the
	// entity's current state.
	InvalidStateTransition
	// DescendingTimestamp indicates the event's time is smaller than the
	// last accepted event's time.
	DescendingTimestamp
	// InvalidType indicates an id was previously bound to a different
	// entity kind than this event asserts.
	InvalidType
	// InvalidEvent indicates the event kind itself is not valid in this
	// context (e.g. an aggregate semaphore event routed as an actor event).
	InvalidEvent
	// CoreIdleTaskStillRunning indicates a core was asked to go idle while
	// it still has a running process instance.
	CoreIdleTaskStillRunning
	// MultipleTasksRunning indicates a core already has a different
	// process instance running and a second allocating event arrived.
	MultipleTasksRunning
	// EventOnIdleCore indicates a process event with a core source arrived
	// while that core is idle and auto-core-events is disabled.
	EventOnIdleCore
	// NoTaskRunning indicates an operation required a running process
	// instance on a core where none exists.
	NoTaskRunning
	// RunnableSourceTaskNotRunning indicates a runnable event addressed a
	// frame that is not on the owning instance's runnable stack.
	RunnableSourceTaskNotRunning
	// TerminateOnRunnableWithRunningSubRunnable indicates a runnable
	// terminate was addressed at a frame with a running frame above it
	// that could not be resolved.
	TerminateOnRunnableWithRunningSubRunnable
	// TerminateOnTaskWithRunningRunnables indicates a process terminate
	// arrived while its runnable stack is non-empty.
	TerminateOnTaskWithRunningRunnables
	// AllocatedToDifferentCore indicates a process instance event arrived
	// for an instance currently allocated to a different core.
	AllocatedToDifferentCore
	// SourceAndTargetNotEqual indicates an aggregate-state event (e.g.
	// semaphore, stimulus) had differing source and target ids.
	SourceAndTargetNotEqual
	// AmountOfSemaphoreAccessesInvalid indicates a semaphore event's note
	// count violated its event-specific constraint.
	AmountOfSemaphoreAccessesInvalid
)

var statusNames = [...]string{
	"Success",
	"AlreadyInState",
	"InvalidStateTransition",
	"DescendingTimestamp",
	"InvalidType",
	"InvalidEvent",
	"CoreIdleTaskStillRunning",
	"MultipleTasksRunning",
	"EventOnIdleCore",
	"NoTaskRunning",
	"RunnableSourceTaskNotRunning",
	"TerminateOnRunnableWithRunningSubRunnable",
	"TerminateOnTaskWithRunningRunnables",
	"AllocatedToDifferentCore",
	"SourceAndTargetNotEqual",
	"AmountOfSemaphoreAccessesInvalid",
}

// String returns the Status's name, or "UnknownStatus" for out-of-range values.
func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "UnknownStatus"
	}
	return statusNames[s]
}

// OK reports whether s is Success.
func (s Status) OK() bool {
	return s == Success
}
