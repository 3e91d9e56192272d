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

// expectedSourceKind returns the entity kind a process event's source must
// resolve to: stimulus for activate/mtalimitexceeded, scheduler for
// interrupt_suspended, core for every other transition event.
func expectedSourceKind(ev ProcessEvent) Kind {
	switch ev {
	case ProcessActivate, ProcessMtaLimitExceeded:
		return KindStimulus
	case ProcessInterruptSuspended:
		return KindScheduler
	default:
		return KindCore
	}
}

// isEventAllocatingCore reports whether ev assigns a process instance to a
// core's running slot.
func isEventAllocatingCore(ev ProcessEvent) bool {
	switch ev {
	case ProcessStart, ProcessResume, ProcessPollParking:
		return true
	}
	return false
}

// isEventDeallocatingCore reports whether ev releases a process instance
// from a core's running slot.
func isEventDeallocatingCore(ev ProcessEvent) bool {
	switch ev {
	case ProcessPreempt, ProcessWait, ProcessPark, ProcessTerminate:
		return true
	}
	return false
}
