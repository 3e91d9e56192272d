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

// ProcessState is a process (task/ISR/thread) instance's lifecycle state.
type ProcessState int8

const (
	ProcessStateUnknown ProcessState = iota
	ProcessStateActive
	ProcessStateRunning
	ProcessStateReady
	ProcessStateWaiting
	ProcessStatePolling
	ProcessStateParking
	ProcessStateTerminated
)

// processTransition is the Process state machine: a pure total function of
// the current state and an incoming ProcessEvent. startsInstance reports
// whether this transition is a `start` event that should set the owning
// instance's was_started flag -- true only for the two branches where
// `start` is actually a state-changing transition (unknown/active ->
// running), matching the original's was_started_ = true side effect.
func processTransition(state ProcessState, ev ProcessEvent) (next ProcessState, st Status, startsInstance bool) {
	switch state {
	case ProcessStateUnknown:
		switch ev {
		case ProcessActivate:
			return ProcessStateActive, Success, false
		case ProcessStart:
			return ProcessStateRunning, Success, true
		case ProcessResume, ProcessRun:
			return ProcessStateRunning, Success, false
		case ProcessPreempt, ProcessReleaseParking, ProcessRelease:
			return ProcessStateReady, Success, false
		case ProcessTerminate:
			return ProcessStateTerminated, Success, false
		case ProcessPoll, ProcessPollParking:
			return ProcessStatePolling, Success, false
		case ProcessPark:
			return ProcessStateParking, Success, false
		case ProcessWait:
			return ProcessStateWaiting, Success, false
		case ProcessMtaLimitExceeded:
			// The original's unknown-state branch chain tests
			// (activate || mtalimitexceeded) first, so
			// mtalimitexceeded always resolves here -- the later
			// (terminate || mtalimitexceeded) branch is unreachable
			// dead code for this event. Ported to preserve actual
			// runtime behaviour, not the table cell's literal text.
			return ProcessStateActive, Success, false
		}
	case ProcessStateActive:
		switch ev {
		case ProcessActivate:
			return state, AlreadyInState, false
		case ProcessStart:
			return ProcessStateRunning, Success, true
		case ProcessInterruptSuspended:
			return ProcessStateActive, Success, false
		}
	case ProcessStateRunning:
		switch ev {
		case ProcessStart, ProcessResume, ProcessRun:
			return state, AlreadyInState, false
		case ProcessPreempt:
			return ProcessStateReady, Success, false
		case ProcessTerminate:
			return ProcessStateTerminated, Success, false
		case ProcessPoll:
			return ProcessStatePolling, Success, false
		case ProcessWait:
			return ProcessStateWaiting, Success, false
		case ProcessNoWait:
			// Genuine no-op: stays running, but a real Success, not
			// AlreadyInState -- the source did not ask to re-enter
			// running, it asked "don't wait", which running already
			// satisfies.
			return ProcessStateRunning, Success, false
		}
	case ProcessStateReady:
		switch ev {
		case ProcessPreempt, ProcessReleaseParking, ProcessRelease:
			return state, AlreadyInState, false
		case ProcessResume:
			return ProcessStateRunning, Success, false
		}
	case ProcessStateWaiting:
		switch ev {
		case ProcessWait:
			return state, AlreadyInState, false
		case ProcessRelease:
			return ProcessStateReady, Success, false
		}
	case ProcessStatePolling:
		switch ev {
		case ProcessPoll, ProcessPollParking:
			return state, AlreadyInState, false
		case ProcessRun:
			return ProcessStateRunning, Success, false
		case ProcessPark:
			return ProcessStateParking, Success, false
		}
	case ProcessStateParking:
		switch ev {
		case ProcessPark:
			return state, AlreadyInState, false
		case ProcessPollParking:
			return ProcessStatePolling, Success, false
		case ProcessReleaseParking:
			return ProcessStateReady, Success, false
		}
	case ProcessStateTerminated:
		switch ev {
		case ProcessActivate:
			return ProcessStateActive, Success, false
		case ProcessTerminate:
			return state, AlreadyInState, false
		case ProcessMtaLimitExceeded:
			return ProcessStateTerminated, Success, false
		}
	}
	return state, InvalidStateTransition, false
}
