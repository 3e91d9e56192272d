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

// RunnableState is a runnable instance's lifecycle state.
type RunnableState int8

const (
	RunnableStateUnknown RunnableState = iota
	RunnableStateRunning
	RunnableStateSuspended
	RunnableStateTerminated
)

// runnableTransition is the Runnable state machine: a pure total function of
// the current state and an incoming RunnableEvent.
func runnableTransition(state RunnableState, ev RunnableEvent) (RunnableState, Status) {
	switch state {
	case RunnableStateTerminated:
		switch ev {
		case RunnableTerminate:
			return state, AlreadyInState
		case RunnableStart:
			return RunnableStateRunning, Success
		}
	case RunnableStateRunning:
		switch ev {
		case RunnableStart, RunnableResume:
			return state, AlreadyInState
		case RunnableSuspend:
			return RunnableStateSuspended, Success
		case RunnableTerminate:
			return RunnableStateTerminated, Success
		}
	case RunnableStateSuspended:
		switch ev {
		case RunnableSuspend:
			return state, AlreadyInState
		case RunnableResume:
			return RunnableStateRunning, Success
		}
	case RunnableStateUnknown:
		switch ev {
		case RunnableStart, RunnableResume:
			return RunnableStateRunning, Success
		case RunnableTerminate:
			return RunnableStateTerminated, Success
		case RunnableSuspend:
			return RunnableStateSuspended, Success
		}
		return state, Success
	}
	return state, InvalidStateTransition
}
