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

// Timestamp is a BTF event time, in whatever unit Config.Timescale names.
type Timestamp uint64

// CoreEvent enumerates Core entity events.
type CoreEvent int8

const (
	CoreEventUnknown CoreEvent = iota
	CoreIdle
	CoreExecute
	CoreSetFrequence
)

var coreEventTokens = map[CoreEvent]string{
	CoreIdle:         "idle",
	CoreExecute:      "execute",
	CoreSetFrequence: "set_frequence",
}

// String returns ev's wire token, or "" if unknown.
func (ev CoreEvent) String() string { return coreEventTokens[ev] }

// ParseCoreEvent maps a wire token to a CoreEvent, or CoreEventUnknown.
func ParseCoreEvent(tok string) CoreEvent {
	for k, v := range coreEventTokens {
		if v == tok {
			return k
		}
	}
	return CoreEventUnknown
}

// OSEvent enumerates OS synchronization events.
type OSEvent int8

const (
	OSEventUnknown OSEvent = iota
	OSClearEvent
	OSSetEvent
	OSWaitEvent
)

var osEventTokens = map[OSEvent]string{
	OSClearEvent: "clear_event",
	OSSetEvent:   "set_event",
	OSWaitEvent:  "wait_event",
}

func (ev OSEvent) String() string { return osEventTokens[ev] }

func ParseOSEvent(tok string) OSEvent {
	for k, v := range osEventTokens {
		if v == tok {
			return k
		}
	}
	return OSEventUnknown
}

// ProcessEvent enumerates task/ISR lifecycle events.
type ProcessEvent int8

const (
	ProcessEventUnknown ProcessEvent = iota
	ProcessActivate
	ProcessStart
	ProcessPreempt
	ProcessResume
	ProcessTerminate
	ProcessPoll
	ProcessRun
	ProcessPark
	ProcessPollParking
	ProcessReleaseParking
	ProcessWait
	ProcessRelease
	ProcessFullMigration
	ProcessEnforcedMigration
	ProcessInterruptSuspended
	ProcessMtaLimitExceeded
	ProcessNoWait
)

var processEventTokens = map[ProcessEvent]string{
	ProcessActivate:           "activate",
	ProcessStart:              "start",
	ProcessPreempt:            "preempt",
	ProcessResume:             "resume",
	ProcessTerminate:          "terminate",
	ProcessPoll:               "poll",
	ProcessRun:                "run",
	ProcessPark:               "park",
	ProcessPollParking:        "poll_parking",
	ProcessReleaseParking:     "release_parking",
	ProcessWait:               "wait",
	ProcessRelease:            "release",
	ProcessFullMigration:      "fullmigration",
	ProcessEnforcedMigration:  "enforcedmigration",
	ProcessInterruptSuspended: "interrupt_suspended",
	ProcessMtaLimitExceeded:   "mtalimitexceeded",
	ProcessNoWait:             "nowait",
}

func (ev ProcessEvent) String() string { return processEventTokens[ev] }

func ParseProcessEvent(tok string) ProcessEvent {
	for k, v := range processEventTokens {
		if v == tok {
			return k
		}
	}
	return ProcessEventUnknown
}

// RunnableEvent enumerates runnable lifecycle events.
type RunnableEvent int8

const (
	RunnableEventUnknown RunnableEvent = iota
	RunnableStart
	RunnableTerminate
	RunnableSuspend
	RunnableResume
)

var runnableEventTokens = map[RunnableEvent]string{
	RunnableStart:     "start",
	RunnableTerminate: "terminate",
	RunnableSuspend:   "suspend",
	RunnableResume:    "resume",
}

func (ev RunnableEvent) String() string { return runnableEventTokens[ev] }

func ParseRunnableEvent(tok string) RunnableEvent {
	for k, v := range runnableEventTokens {
		if v == tok {
			return k
		}
	}
	return RunnableEventUnknown
}

// SchedulerEvent enumerates scheduler events.
type SchedulerEvent int8

const (
	SchedulerEventUnknown SchedulerEvent = iota
	SchedulerSchedule
	SchedulerSchedulePoint
)

var schedulerEventTokens = map[SchedulerEvent]string{
	SchedulerSchedule:      "schedule",
	SchedulerSchedulePoint: "schedulepoint",
}

func (ev SchedulerEvent) String() string { return schedulerEventTokens[ev] }

func ParseSchedulerEvent(tok string) SchedulerEvent {
	for k, v := range schedulerEventTokens {
		if v == tok {
			return k
		}
	}
	return SchedulerEventUnknown
}

// SemaphoreEvent enumerates semaphore events.
type SemaphoreEvent int8

const (
	SemaphoreEventUnknown SemaphoreEvent = iota
	SemaphoreAssigned
	SemaphoreDecrement
	SemaphoreFree
	SemaphoreFull
	SemaphoreIncrement
	SemaphoreLock
	SemaphoreLockUsed
	SemaphoreOverfull
	SemaphoreQueued
	SemaphoreReleased
	SemaphoreRequestSemaphore
	SemaphoreUnlock
	SemaphoreUnlockFull
	SemaphoreUsed
	SemaphoreWaiting
)

var semaphoreEventTokens = map[SemaphoreEvent]string{
	SemaphoreAssigned:         "assigned",
	SemaphoreDecrement:        "decrement",
	SemaphoreFree:             "free",
	SemaphoreFull:             "full",
	SemaphoreIncrement:        "increment",
	SemaphoreLock:             "lock",
	SemaphoreLockUsed:         "lock_used",
	SemaphoreOverfull:         "overfull",
	SemaphoreQueued:           "queued",
	SemaphoreReleased:         "released",
	SemaphoreRequestSemaphore: "requestsemaphore",
	SemaphoreUnlock:           "unlock",
	SemaphoreUnlockFull:       "unlock_full",
	SemaphoreUsed:             "used",
	SemaphoreWaiting:          "waiting",
}

func (ev SemaphoreEvent) String() string { return semaphoreEventTokens[ev] }

func ParseSemaphoreEvent(tok string) SemaphoreEvent {
	for k, v := range semaphoreEventTokens {
		if v == tok {
			return k
		}
	}
	return SemaphoreEventUnknown
}

// isAggregateSemaphoreEvent reports whether ev changes the semaphore's own
// aggregate state (source and target must then be the same semaphore id).
func isAggregateSemaphoreEvent(ev SemaphoreEvent) bool {
	switch ev {
	case SemaphoreFree, SemaphoreUnlock, SemaphoreLock, SemaphoreUnlockFull,
		SemaphoreUsed, SemaphoreFull, SemaphoreLockUsed, SemaphoreOverfull:
		return true
	}
	return false
}

// SignalEvent enumerates signal events.
type SignalEvent int8

const (
	SignalEventUnknown SignalEvent = iota
	SignalRead
	SignalWrite
)

var signalEventTokens = map[SignalEvent]string{
	SignalRead:  "read",
	SignalWrite: "write",
}

func (ev SignalEvent) String() string { return signalEventTokens[ev] }

func ParseSignalEvent(tok string) SignalEvent {
	for k, v := range signalEventTokens {
		if v == tok {
			return k
		}
	}
	return SignalEventUnknown
}

// SimulationEvent enumerates simulation annotation events.
type SimulationEvent int8

const (
	SimulationEventUnknown SimulationEvent = iota
	SimulationTag
)

var simulationEventTokens = map[SimulationEvent]string{
	SimulationTag: "tag",
}

func (ev SimulationEvent) String() string { return simulationEventTokens[ev] }

func ParseSimulationEvent(tok string) SimulationEvent {
	for k, v := range simulationEventTokens {
		if v == tok {
			return k
		}
	}
	return SimulationEventUnknown
}

// StimulusEvent enumerates stimulus events.
type StimulusEvent int8

const (
	StimulusEventUnknown StimulusEvent = iota
	StimulusTrigger
)

var stimulusEventTokens = map[StimulusEvent]string{
	StimulusTrigger: "trigger",
}

func (ev StimulusEvent) String() string { return stimulusEventTokens[ev] }

func ParseStimulusEvent(tok string) StimulusEvent {
	for k, v := range stimulusEventTokens {
		if v == tok {
			return k
		}
	}
	return StimulusEventUnknown
}

// Payload is the tagged union of kind-specific event data. Exactly one
// field is meaningful, selected by the owning EventRecord's Kind; this is
// the "polymorphic event union" of the design notes, modeled as a plain
// struct of typed fields rather than an interface{} so the kind tag -- not
// a type switch -- is authoritative.
type Payload struct {
	Core       CoreEvent
	OS         OSEvent
	Process    ProcessEvent
	Runnable   RunnableEvent
	Scheduler  SchedulerEvent
	Semaphore  SemaphoreEvent
	Signal     SignalEvent
	Simulation SimulationEvent
	Stimulus   StimulusEvent
}

// EventRecord is one accepted, appended entry in the event log.
type EventRecord struct {
	Time           Timestamp
	Kind           Kind
	SourceID       Identifier
	SourceInstance InstanceIndex
	TargetID       Identifier
	TargetInstance InstanceIndex
	Payload        Payload
	Note           string
}

// EventToken returns the wire token for the record's active payload event,
// selected by Kind.
func (e EventRecord) EventToken() string {
	switch e.Kind {
	case KindCore:
		return e.Payload.Core.String()
	case KindOSEvent:
		return e.Payload.OS.String()
	case KindTask, KindISR, KindThread:
		return e.Payload.Process.String()
	case KindRunnable, KindSyscall:
		return e.Payload.Runnable.String()
	case KindScheduler:
		return e.Payload.Scheduler.String()
	case KindSemaphore:
		return e.Payload.Semaphore.String()
	case KindSignal:
		return e.Payload.Signal.String()
	case KindSimulation:
		return e.Payload.Simulation.String()
	case KindStimulus:
		return e.Payload.Stimulus.String()
	default:
		return ""
	}
}
