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
package recorder

// SemaphoreState is a semaphore's aggregate state.
type SemaphoreState int8

const (
	SemaphoreStateUnknown SemaphoreState = iota
	SemaphoreStateFree
	SemaphoreStateUsed
	SemaphoreStateFull
	SemaphoreStateOverfull
)

// semaphoreTransition is the Semaphore state machine: a pure total function
// of the current aggregate state and an incoming aggregate-state
// SemaphoreEvent (see isAggregateSemaphoreEvent). Note the asymmetric
// self-loops: overfull+overfull and used+used are real Success transitions,
// not AlreadyInState -- unlike every other self-referencing branch here,
// which does return AlreadyInState. This is not a generalizable rule; it is
// encoded per state exactly as the source state machine does it.
func semaphoreTransition(state SemaphoreState, ev SemaphoreEvent) (SemaphoreState, Status) {
	switch state {
	case SemaphoreStateFree:
		switch ev {
		case SemaphoreUsed:
			return SemaphoreStateUsed, Success
		case SemaphoreLock:
			return SemaphoreStateFull, Success
		case SemaphoreFree, SemaphoreUnlock:
			return state, AlreadyInState
		}
	case SemaphoreStateFull:
		switch ev {
		case SemaphoreUnlock:
			return SemaphoreStateFree, Success
		case SemaphoreUnlockFull:
			return SemaphoreStateUsed, Success
		case SemaphoreOverfull:
			return SemaphoreStateOverfull, Success
		case SemaphoreFull, SemaphoreLock, SemaphoreLockUsed:
			return state, AlreadyInState
		}
	case SemaphoreStateOverfull:
		switch ev {
		case SemaphoreFull:
			return SemaphoreStateFull, Success
		case SemaphoreOverfull:
			// Real state-preserving transition, not a no-op: the
			// source machine re-assigns state_ = overfull here
			// rather than returning already_in_state.
			return SemaphoreStateOverfull, Success
		}
	case SemaphoreStateUsed:
		switch ev {
		case SemaphoreFree:
			return SemaphoreStateFree, Success
		case SemaphoreLockUsed:
			return SemaphoreStateFull, Success
		case SemaphoreUsed:
			// Likewise a real transition, not AlreadyInState.
			return SemaphoreStateUsed, Success
		case SemaphoreUnlockFull:
			return state, AlreadyInState
		}
	case SemaphoreStateUnknown:
		switch ev {
		case SemaphoreUsed, SemaphoreUnlockFull:
			return SemaphoreStateUsed, Success
		case SemaphoreFree, SemaphoreUnlock:
			return SemaphoreStateFree, Success
		case SemaphoreLock, SemaphoreLockUsed, SemaphoreFull:
			return SemaphoreStateFull, Success
		case SemaphoreOverfull:
			return SemaphoreStateOverfull, Success
		}
	}
	return state, InvalidStateTransition
}

// semaphoreNoteRequirement describes the note-count constraint an aggregate
// semaphore event enforces, per SPEC_FULL.md's carried-forward §4.4 rule.
type semaphoreNoteRequirement int8

const (
	noteUnconstrained semaphoreNoteRequirement = iota
	noteMustBeZero
	noteMustBeOne
	noteMustBePositive
)

// semaphoreNoteRule returns the note-count constraint for an aggregate
// semaphore event: free/unlock require 0, lock requires 1, unlock_full/used
// require > 0, the rest are unconstrained.
func semaphoreNoteRule(ev SemaphoreEvent) semaphoreNoteRequirement {
	switch ev {
	case SemaphoreFree, SemaphoreUnlock:
		return noteMustBeZero
	case SemaphoreLock:
		return noteMustBeOne
	case SemaphoreUnlockFull, SemaphoreUsed:
		return noteMustBePositive
	default:
		return noteUnconstrained
	}
}
