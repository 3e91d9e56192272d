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

// CoreState is a Core entity's execution state.
type CoreState int8

const (
	CoreStateUnknown CoreState = iota
	CoreStateIdle
	CoreStateExecuting
)

// coreTransition is the Core state machine: a pure total function of the
// current state and an incoming CoreEvent.
func coreTransition(state CoreState, ev CoreEvent) (CoreState, Status) {
	switch ev {
	case CoreSetFrequence:
		// Pure annotation, accepted from any state, changes nothing.
		return state, Success
	case CoreIdle:
		switch state {
		case CoreStateIdle:
			return state, AlreadyInState
		case CoreStateExecuting, CoreStateUnknown:
			return CoreStateIdle, Success
		}
	case CoreExecute:
		switch state {
		case CoreStateExecuting:
			return state, AlreadyInState
		case CoreStateIdle, CoreStateUnknown:
			return CoreStateExecuting, Success
		}
	}
	return state, InvalidStateTransition
}
