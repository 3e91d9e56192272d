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

import (
	"strconv"

	"github.com/golang/glog"
)

// processKey identifies one process instance: a process (task/ISR/thread)
// id plus its activation's instance index.
type processKey struct {
	ID       Identifier
	Instance InstanceIndex
}

// runnableKey identifies one runnable instance.
type runnableKey struct {
	ID       Identifier
	Instance InstanceIndex
}

type processInstance struct {
	state       ProcessState
	wasStarted  bool
	waitingOnOS bool
}

type runnableInstance struct {
	state              RunnableState
	suspendedByPreempt bool
}

type osWaitKey struct {
	process processKey
	core    Identifier
	os      Identifier
}

// Recorder is the validating BTF event recorder: the orchestrator that
// consumes one typed event per call, enforces cross-entity constraints, and
// appends accepted events to its log (SPEC_FULL.md §1, spec §4.4).
type Recorder struct {
	cfg   Config
	names *nameTable
	types *typeRegistry
	log   *eventLog

	haveTime bool
	lastTime Timestamp

	coreState  map[Identifier]CoreState
	processes  map[processKey]*processInstance
	runnables  map[runnableKey]*runnableInstance
	semaphores map[Identifier]SemaphoreState

	currentRunning map[Identifier]processKey
	coreOccupied   map[Identifier]bool

	// didAllocDeallocOccur is keyed by core id when cfg.SourceIsCore, else by
	// process id -- mirroring did_de_allocated_task_event_occurred_on_core_.
	didAllocDeallocOccur map[Identifier]bool

	runnableStack map[processKey][]runnableKey
	preTaskStack  map[Identifier][]runnableKey
	preTaskBuffer map[Identifier][]int

	taskCoreMap map[Identifier]Identifier

	runnableInstanceCounter map[Identifier]uint64
	stimulusInstanceCounter map[Identifier]uint64
	haveStimulusInstance    map[Identifier]bool

	osWaiting map[osWaitKey]bool

	customHeader []string
	finished     bool
}

// NewRecorder constructs an empty Recorder under the given Config.
func NewRecorder(cfg Config) *Recorder {
	return &Recorder{
		cfg:                     cfg,
		names:                   newNameTable(),
		types:                   newTypeRegistry(),
		log:                     newEventLog(),
		coreState:               make(map[Identifier]CoreState),
		processes:               make(map[processKey]*processInstance),
		runnables:               make(map[runnableKey]*runnableInstance),
		semaphores:              make(map[Identifier]SemaphoreState),
		currentRunning:          make(map[Identifier]processKey),
		coreOccupied:            make(map[Identifier]bool),
		didAllocDeallocOccur:    make(map[Identifier]bool),
		runnableStack:           make(map[processKey][]runnableKey),
		preTaskStack:            make(map[Identifier][]runnableKey),
		preTaskBuffer:           make(map[Identifier][]int),
		taskCoreMap:             make(map[Identifier]Identifier),
		runnableInstanceCounter: make(map[Identifier]uint64),
		stimulusInstanceCounter: make(map[Identifier]uint64),
		haveStimulusInstance:    make(map[Identifier]bool),
		osWaiting:               make(map[osWaitKey]bool),
	}
}

// SetIgnoreMultipleTaskReleases toggles the one configuration switch spec §9
// permits mutating mid-run.
func (r *Recorder) SetIgnoreMultipleTaskReleases(v bool) {
	r.cfg.IgnoreMultipleTaskReleases = v
}

// SeedNames pre-populates the name table from externally computed ids,
// supporting replay of a log whose identifiers were not derived locally.
func (r *Recorder) SeedNames(names map[Identifier]string) {
	r.names.seed(names)
}

// NameOf returns the name bound to id, if any.
func (r *Recorder) NameOf(id Identifier) (string, bool) {
	n := r.names.nameByID(id)
	return n, n != ""
}

func (r *Recorder) resolve(name string) Identifier {
	return r.names.resolveAndBind(name)
}

func (r *Recorder) checkTime(t Timestamp) Status {
	if r.haveTime && t < r.lastTime {
		return DescendingTimestamp
	}
	r.lastTime = t
	r.haveTime = true
	return Success
}

func (r *Recorder) checkType(id Identifier, kind Kind) Status {
	return r.types.assertType(id, kind)
}

func (r *Recorder) clearRunning(core Identifier) {
	delete(r.currentRunning, core)
	r.coreOccupied[core] = false
}

func (r *Recorder) setRunning(core Identifier, key processKey) {
	r.currentRunning[core] = key
	r.coreOccupied[core] = true
}

// ---------------------------------------------------------------- Core ----

// CoreEvent records a core-entity transition, resolving core by name.
func (r *Recorder) CoreEvent(time Timestamp, core string, ev CoreEvent) Status {
	return r.coreEvent(time, r.resolve(core), ev)
}

func (r *Recorder) coreEvent(time Timestamp, core Identifier, ev CoreEvent) Status {
	if st := r.checkTime(time); !st.OK() {
		return st
	}
	if st := r.checkType(core, KindCore); !st.OK() {
		return st
	}

	if ev == CoreIdle {
		if cur, ok := r.currentRunning[core]; ok && r.coreOccupied[core] {
			_ = cur
			return CoreIdleTaskStillRunning
		}
	}

	next, st := coreTransition(r.coreState[core], ev)
	if !st.OK() {
		return st
	}
	r.coreState[core] = next

	r.log.append(EventRecord{
		Time: time, Kind: KindCore,
		SourceID: core, TargetID: core,
		Payload: Payload{Core: ev},
	}, core)
	return Success
}

// generateCoreExecuteEvent synthesises a Core::execute before an allocating
// process event, coalescing it with an immediately preceding idle-execute
// at the same timestamp (spec §4.4).
func (r *Recorder) generateCoreExecuteEvent(time Timestamp, core Identifier) {
	if last, idx, ok := r.log.lastForEntity(core); ok && last.Kind == KindCore && last.Payload.Core == CoreExecute {
		if last.Time == time {
			if r.log.popIfLast(core, idx) {
				return
			}
		}
	}
	if st := r.coreEvent(time, core, CoreExecute); !st.OK() {
		glog.Fatalf("recorder: could not auto-generate core execute: %v", st)
	}
}

func (r *Recorder) generateCoreIdleEvent(time Timestamp, core Identifier) {
	if st := r.coreEvent(time, core, CoreIdle); !st.OK() {
		glog.Fatalf("recorder: could not auto-generate core idle: %v", st)
	}
}

// -------------------------------------------------------------- Process ----

// ProcessEvent records a task or ISR lifecycle event, resolving source and
// process by name.
func (r *Recorder) ProcessEvent(time Timestamp, source, process string, instance InstanceIndex, ev ProcessEvent, isISR bool) Status {
	kind := KindTask
	if isISR {
		kind = KindISR
	}
	return r.processEvent(time, r.resolve(source), r.resolve(process), instance, ev, kind)
}

// ThreadEvent records a thread lifecycle event, against the Thread entity
// kind, using the same lifecycle vocabulary as ProcessEvent.
func (r *Recorder) ThreadEvent(time Timestamp, source, thread string, instance InstanceIndex, ev ProcessEvent) Status {
	return r.processEvent(time, r.resolve(source), r.resolve(thread), instance, ev, KindThread)
}

// kindOfProcess returns the entity kind already bound to id, defaulting to
// KindTask if unbound (id must already be typed by the time an
// auto-derivation rule re-enters processEvent on its behalf).
func (r *Recorder) kindOfProcess(id Identifier) Kind {
	if k, ok := r.types.kindOf(id); ok {
		return k
	}
	return KindTask
}

func (r *Recorder) processEvent(time Timestamp, source, process Identifier, instance InstanceIndex, ev ProcessEvent, kind Kind) Status {
	if st := r.checkTime(time); !st.OK() {
		return st
	}
	if st := r.checkType(process, kind); !st.OK() {
		return st
	}
	sourceKind := expectedSourceKind(ev)
	if st := r.checkType(source, sourceKind); !st.OK() {
		return st
	}

	key := processKey{ID: process, Instance: instance}
	allocating := isEventAllocatingCore(ev)
	deallocating := isEventDeallocatingCore(ev)

	if sourceKind == KindCore {
		if !r.cfg.AutoGenerateCoreEvents && r.coreState[source] == CoreStateIdle {
			return EventOnIdleCore
		}
		if cur, ok := r.currentRunning[source]; ok && r.coreOccupied[source] && allocating {
			if cur == key {
				return InvalidStateTransition
			}
			return MultipleTasksRunning
		}
		if r.didAllocDeallocOccur[r.occupancyKey(source, process)] && deallocating {
			if cur, ok := r.currentRunning[source]; !ok || cur != key {
				return InvalidStateTransition
			}
		}
	}

	for core, cur := range r.currentRunning {
		if core != source && r.coreOccupied[core] && cur == key {
			return AllocatedToDifferentCore
		}
	}

	if ev == ProcessTerminate && len(r.runnableStack[key]) > 0 {
		return TerminateOnTaskWithRunningRunnables
	}

	inst := r.processes[key]
	if inst == nil {
		inst = &processInstance{}
		r.processes[key] = inst
	}
	next, st, starts := processTransition(inst.state, ev)
	if !st.OK() {
		if r.cfg.IgnoreMultipleTaskReleases && st == AlreadyInState && ev == ProcessRelease {
			return Success
		}
		return st
	}
	inst.state = next
	if starts {
		inst.wasStarted = true
	}

	if r.cfg.AutoGenerateCoreEvents && sourceKind == KindCore && allocating && r.coreState[source] == CoreStateIdle {
		r.generateCoreExecuteEvent(time, source)
	}

	if deallocating {
		stack := r.runnableStack[key]
		for i := len(stack) - 1; i >= 0; i-- {
			rk := stack[i]
			if r.runnables[rk] != nil && r.runnables[rk].state == RunnableStateRunning {
				if st := r.runnableEventByKey(time, source, key, rk, RunnableSuspend); !st.OK() {
					glog.Fatalf("recorder: could not auto-suspend runnable: %v", st)
				}
				r.runnables[rk].suspendedByPreempt = true
			}
		}
	}

	var sourceInstance InstanceIndex
	r.log.append(EventRecord{
		Time: time, Kind: kind,
		SourceID: source, SourceInstance: sourceInstance,
		TargetID: process, TargetInstance: instance,
		Payload: Payload{Process: ev},
	}, process)

	occKey := r.occupancyKey(source, process)
	wasFirst := false
	if allocating || ev == ProcessPoll || ev == ProcessRun {
		if !r.didAllocDeallocOccur[occKey] {
			r.didAllocDeallocOccur[occKey] = true
			wasFirst = true
		}
	}
	if allocating {
		r.setRunning(source, key)
		r.taskCoreMap[process] = source
	}

	if deallocating {
		r.clearRunning(source)
		if !r.didAllocDeallocOccur[occKey] {
			r.didAllocDeallocOccur[occKey] = true
			wasFirst = true
		}
		if r.cfg.AutoGenerateCoreEvents {
			r.generateCoreIdleEvent(time, source)
		}
	}

	if wasFirst {
		bufKey := occKey
		for _, idx := range r.preTaskBuffer[bufKey] {
			r.log.rewriteSource(idx, process, instance)
		}
		r.preTaskBuffer[bufKey] = nil
		if stack := r.preTaskStack[bufKey]; len(stack) > 0 {
			r.runnableStack[key] = stack
			r.preTaskStack[bufKey] = nil
		}
	}

	if allocating {
		for _, rk := range r.runnableStack[key] {
			ri := r.runnables[rk]
			if ri != nil && ri.suspendedByPreempt {
				if st := r.runnableEventByKey(time, source, key, rk, RunnableResume); !st.OK() {
					glog.Fatalf("recorder: could not auto-resume runnable: %v", st)
				}
				ri.suspendedByPreempt = false
			}
		}
	}

	if ev == ProcessTerminate {
		delete(r.runnableStack, key)
	}

	return Success
}

// occupancyKey picks the context id used to key "first allocation/
// deallocation on this core/process" bookkeeping, per cfg.SourceIsCore.
func (r *Recorder) occupancyKey(core, process Identifier) Identifier {
	if r.cfg.SourceIsCore {
		return core
	}
	return process
}

// TaskMigrationEvent moves a process instance between cores, appending the
// enforced/full migration pair (spec §4.4).
func (r *Recorder) TaskMigrationEvent(time Timestamp, fromCore, toCore, process string, instance InstanceIndex) Status {
	return r.taskMigrationEvent(time, r.resolve(fromCore), r.resolve(toCore), r.resolve(process), instance)
}

func (r *Recorder) taskMigrationEvent(time Timestamp, fromCore, toCore, process Identifier, instance InstanceIndex) Status {
	if st := r.checkTime(time); !st.OK() {
		return st
	}
	if st := r.checkType(fromCore, KindCore); !st.OK() {
		return st
	}
	if st := r.checkType(toCore, KindCore); !st.OK() {
		return st
	}
	if st := r.checkType(process, KindTask); !st.OK() {
		return st
	}

	key := processKey{ID: process, Instance: instance}
	for core, cur := range r.currentRunning {
		if r.coreOccupied[core] && cur == key {
			return InvalidStateTransition
		}
	}
	if inst := r.processes[key]; inst != nil && inst.state == ProcessStateTerminated {
		return InvalidStateTransition
	}

	r.log.append(EventRecord{
		Time: time, Kind: KindTask,
		SourceID: fromCore, TargetID: process, TargetInstance: instance,
		Payload: Payload{Process: ProcessEnforcedMigration},
	}, process)
	r.log.append(EventRecord{
		Time: time, Kind: KindTask,
		SourceID: toCore, TargetID: process, TargetInstance: instance,
		Payload: Payload{Process: ProcessFullMigration},
	}, process)
	return Success
}

// ------------------------------------------------------------------ OS ----

// OSEvent records an OS synchronisation event. context denotes a core when
// cfg.SourceIsCore, else a process mapped to its current core.
func (r *Recorder) OSEvent(time Timestamp, context, os string, ev OSEvent) Status {
	var core Identifier
	if r.cfg.SourceIsCore {
		core = r.resolve(context)
	} else {
		core = r.taskCoreMap[r.resolve(context)]
	}
	return r.osEvent(time, core, r.resolve(os), ev)
}

func (r *Recorder) osEvent(time Timestamp, core, os Identifier, ev OSEvent) Status {
	if st := r.checkTime(time); !st.OK() {
		return st
	}
	if st := r.checkType(core, KindCore); !st.OK() {
		return st
	}
	if st := r.checkType(os, KindOSEvent); !st.OK() {
		return st
	}

	key, ok := r.currentRunning[core]
	if !ok || !r.coreOccupied[core] {
		return NoTaskRunning
	}

	r.log.append(EventRecord{
		Time: time, Kind: KindOSEvent,
		SourceID: key.ID, SourceInstance: key.Instance,
		TargetID: os,
		Payload:  Payload{OS: ev},
	}, os)

	if r.cfg.AutoWaitResumeOSEvents {
		switch ev {
		case OSWaitEvent:
			wk := osWaitKey{process: key, core: core, os: os}
			r.osWaiting[wk] = true
			if st := r.processEvent(time, core, key.ID, key.Instance, ProcessWait, r.kindOfProcess(key.ID)); !st.OK() {
				glog.Warningf("recorder: could not auto-generate process wait: %v", st)
			}
			if inst := r.processes[key]; inst != nil {
				inst.waitingOnOS = true
			}
		case OSSetEvent:
			for wk, waiting := range r.osWaiting {
				if !waiting || wk.os != os {
					continue
				}
				pkind := r.kindOfProcess(wk.process.ID)
				if st := r.processEvent(time, wk.core, wk.process.ID, wk.process.Instance, ProcessRelease, pkind); !st.OK() {
					glog.Warningf("recorder: could not auto-generate process release: %v", st)
				}
				if st := r.processEvent(time, wk.core, wk.process.ID, wk.process.Instance, ProcessResume, pkind); !st.OK() {
					glog.Warningf("recorder: could not auto-generate process resume: %v", st)
				}
				r.osWaiting[wk] = false
				if inst := r.processes[wk.process]; inst != nil {
					inst.waitingOnOS = false
				}
			}
		}
	}
	return Success
}

// ------------------------------------------------------------- Runnable ----

// RunnableEvent records a runnable lifecycle event. context denotes a core
// or a process per cfg.SourceIsCore.
func (r *Recorder) RunnableEvent(time Timestamp, context, runnable string, ev RunnableEvent) Status {
	runnableID := r.resolve(runnable)
	var core, process Identifier
	if r.cfg.SourceIsCore {
		core = r.resolve(context)
		if cur, ok := r.currentRunning[core]; ok {
			process = cur.ID
		}
	} else {
		process = r.resolve(context)
		core = r.taskCoreMap[process]
	}
	return r.runnableEvent(time, core, process, runnableID, ev)
}

func (r *Recorder) runnableEvent(time Timestamp, core, process, runnableID Identifier, ev RunnableEvent) Status {
	if st := r.checkTime(time); !st.OK() {
		return st
	}
	if st := r.checkType(runnableID, KindRunnable); !st.OK() {
		return st
	}
	if st := r.checkType(core, KindCore); !st.OK() {
		return st
	}

	occKey := r.occupancyKey(core, process)
	isPreTask := !r.didAllocDeallocOccur[occKey]

	var key processKey
	if !isPreTask {
		cur, ok := r.currentRunning[core]
		if !ok || !r.coreOccupied[core] {
			return NoTaskRunning
		}
		key = cur
	}

	stackOf := func() []runnableKey {
		if isPreTask {
			return r.preTaskStack[occKey]
		}
		return r.runnableStack[key]
	}
	setStack := func(s []runnableKey) {
		if isPreTask {
			r.preTaskStack[occKey] = s
		} else {
			r.runnableStack[key] = s
		}
	}

	var instance InstanceIndex
	getNewInstance := false
	var searchErr Status = Success

	switch ev {
	case RunnableStart:
		getNewInstance = true
	case RunnableTerminate:
		stack := stackOf()
		if len(stack) == 0 {
			searchErr = RunnableSourceTaskNotRunning
		} else if stack[len(stack)-1].ID == runnableID {
			instance = stack[len(stack)-1].Instance
		} else {
			found := -1
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i].ID == runnableID {
					found = i
					break
				}
			}
			if found < 0 {
				searchErr = RunnableSourceTaskNotRunning
			} else {
				// best-effort: synthesise terminate for every frame above
				// the addressed one, without checking return codes (spec §9
				// Open Question, original btf.cpp runnableEvent).
				snapshot := append([]runnableKey(nil), stack...)
				for i := len(snapshot); i > found+1; i-- {
					r.runnableEvent(time, core, process, snapshot[i-1].ID, RunnableTerminate)
				}
				instance = snapshot[found].Instance
			}
		}
	case RunnableResume:
		stack := stackOf()
		if len(stack) == 0 {
			searchErr = RunnableSourceTaskNotRunning
		} else if r.cfg.AutoSuspendParentRunnable {
			if stack[len(stack)-1].ID == runnableID {
				instance = stack[len(stack)-1].Instance
			} else {
				searchErr = RunnableSourceTaskNotRunning
			}
		} else {
			matched := false
			for _, rk := range stack {
				ri := r.runnables[rk]
				if ri == nil || !ri.isRunningState() {
					if rk.ID == runnableID {
						instance = rk.Instance
						matched = true
					} else {
						searchErr = RunnableSourceTaskNotRunning
					}
					break
				}
			}
			_ = matched
		}
	case RunnableSuspend:
		stack := stackOf()
		if len(stack) == 0 {
			searchErr = RunnableSourceTaskNotRunning
		} else {
			found := false
			for i := len(stack) - 1; i >= 0; i-- {
				ri := r.runnables[stack[i]]
				if ri != nil && ri.isRunningState() {
					if stack[i].ID == runnableID {
						instance = stack[i].Instance
						found = true
					} else {
						searchErr = RunnableSourceTaskNotRunning
					}
					break
				}
			}
			_ = found
		}
	}

	if searchErr != Success {
		if isPreTask {
			getNewInstance = true
		} else {
			return searchErr
		}
	}

	if getNewInstance {
		instance = InstanceIndex(r.runnableInstanceCounter[runnableID])
		r.runnableInstanceCounter[runnableID]++
	}

	rk := runnableKey{ID: runnableID, Instance: instance}

	if ev == RunnableTerminate {
		stack := stackOf()
		wasStarted := !isPreTask && r.processes[key] != nil && r.processes[key].wasStarted
		if wasStarted || (!isPreTask && r.processes[key] == nil) {
			if len(stack) == 0 || stack[len(stack)-1] != rk {
				if !isPreTask {
					return TerminateOnRunnableWithRunningSubRunnable
				}
			}
		} else if len(stack) > 0 && stack[len(stack)-1] != rk {
			return TerminateOnRunnableWithRunningSubRunnable
		}
	}

	ri := r.runnables[rk]
	if ri == nil {
		ri = &runnableInstance{}
		r.runnables[rk] = ri
	}
	next, st := runnableTransition(ri.state, ev)
	if !st.OK() {
		return st
	}
	ri.state = next

	if ev == RunnableStart {
		stack := stackOf()
		if r.cfg.AutoSuspendParentRunnable && len(stack) > 0 {
			parent := stack[len(stack)-1]
			if pi := r.runnables[parent]; pi != nil && pi.isRunningState() {
				r.runnableEvent(time, core, process, parent.ID, RunnableSuspend)
			}
		}
		stack = stackOf()
		setStack(append(stack, rk))
	}

	if ev == RunnableResume || ev == RunnableSuspend {
		if isPreTask || (r.processes[key] != nil && !r.processes[key].wasStarted) || r.processes[key] == nil {
			stack := stackOf()
			present := false
			for _, e := range stack {
				if e == rk {
					present = true
					break
				}
			}
			if !present {
				setStack(append(stack, rk))
			}
		}
	}

	var srcID Identifier
	var srcInst InstanceIndex
	if !isPreTask {
		srcID, srcInst = key.ID, key.Instance
	}
	idx := r.log.append(EventRecord{
		Time: time, Kind: KindRunnable,
		SourceID: srcID, SourceInstance: srcInst,
		TargetID: runnableID, TargetInstance: instance,
		Payload: Payload{Runnable: ev},
	}, runnableID)
	if isPreTask {
		r.preTaskBuffer[occKey] = append(r.preTaskBuffer[occKey], idx)
	}

	if ev == RunnableTerminate {
		stack := stackOf()
		if len(stack) > 0 && stack[len(stack)-1] == rk {
			setStack(stack[:len(stack)-1])
		}
		if r.cfg.AutoSuspendParentRunnable {
			stack = stackOf()
			if len(stack) > 0 {
				prev := stack[len(stack)-1]
				r.runnableEvent(time, core, process, prev.ID, RunnableResume)
			}
		}
	}

	return Success
}

func (ri *runnableInstance) isRunningState() bool { return ri.state == RunnableStateRunning }

// runnableEventByKey emits an internal runnable event on behalf of a known
// owning process instance, used by auto-suspend/resume derivation.
func (r *Recorder) runnableEventByKey(time Timestamp, core Identifier, key processKey, rk runnableKey, ev RunnableEvent) Status {
	return r.runnableEvent(time, core, key.ID, rk.ID, ev)
}

// ------------------------------------------------------------ Scheduler ----

// SchedulerEvent records a schedule/schedulepoint event.
func (r *Recorder) SchedulerEvent(time Timestamp, source, scheduler string, ev SchedulerEvent) Status {
	switch ev {
	case SchedulerSchedule:
		id := r.resolve(scheduler)
		return r.schedulerScheduleEvent(time, id)
	case SchedulerSchedulePoint:
		var core Identifier
		if r.cfg.SourceIsCore {
			core = r.resolve(source)
		} else {
			core = r.taskCoreMap[r.resolve(source)]
		}
		return r.schedulerSchedulePointEvent(time, core, r.resolve(scheduler))
	default:
		return InvalidEvent
	}
}

func (r *Recorder) schedulerScheduleEvent(time Timestamp, scheduler Identifier) Status {
	if st := r.checkTime(time); !st.OK() {
		return st
	}
	if st := r.checkType(scheduler, KindScheduler); !st.OK() {
		return st
	}
	r.log.append(EventRecord{
		Time: time, Kind: KindScheduler,
		SourceID: scheduler, TargetID: scheduler,
		Payload: Payload{Scheduler: SchedulerSchedule},
	}, scheduler)
	return Success
}

func (r *Recorder) schedulerSchedulePointEvent(time Timestamp, core, scheduler Identifier) Status {
	if st := r.checkTime(time); !st.OK() {
		return st
	}
	if st := r.checkType(core, KindCore); !st.OK() {
		return st
	}
	if st := r.checkType(scheduler, KindScheduler); !st.OK() {
		return st
	}
	key, ok := r.currentRunning[core]
	if !ok || !r.coreOccupied[core] {
		return NoTaskRunning
	}
	r.log.append(EventRecord{
		Time: time, Kind: KindScheduler,
		SourceID: key.ID, SourceInstance: key.Instance,
		TargetID: scheduler,
		Payload:  Payload{Scheduler: SchedulerSchedulePoint},
	}, scheduler)
	return Success
}

// ------------------------------------------------------------- Semaphore ----

// SemaphoreEvent records a semaphore event; note carries the access count.
func (r *Recorder) SemaphoreEvent(time Timestamp, source, target string, ev SemaphoreEvent, note uint64) Status {
	if isAggregateSemaphoreEvent(ev) {
		if source != target {
			return SourceAndTargetNotEqual
		}
		return r.semaphoreAggregateEvent(time, r.resolve(target), ev, note)
	}
	var core Identifier
	if r.cfg.SourceIsCore {
		core = r.resolve(source)
	} else {
		core = r.taskCoreMap[r.resolve(source)]
	}
	return r.semaphoreActorEvent(time, core, r.resolve(target), ev, note)
}

func (r *Recorder) semaphoreAggregateEvent(time Timestamp, sem Identifier, ev SemaphoreEvent, note uint64) Status {
	if st := r.checkTime(time); !st.OK() {
		return st
	}
	if st := r.checkType(sem, KindSemaphore); !st.OK() {
		return st
	}
	if st := checkSemaphoreNote(ev, note); !st.OK() {
		return st
	}
	next, st := semaphoreTransition(r.semaphores[sem], ev)
	if !st.OK() {
		return st
	}
	r.semaphores[sem] = next
	r.log.append(EventRecord{
		Time: time, Kind: KindSemaphore,
		SourceID: sem, TargetID: sem,
		Payload: Payload{Semaphore: ev},
		Note:    noteString(note),
	}, sem)
	return Success
}

func (r *Recorder) semaphoreActorEvent(time Timestamp, core, sem Identifier, ev SemaphoreEvent, note uint64) Status {
	if st := r.checkTime(time); !st.OK() {
		return st
	}
	if st := r.checkType(core, KindCore); !st.OK() {
		return st
	}
	if st := r.checkType(sem, KindSemaphore); !st.OK() {
		return st
	}
	key, ok := r.currentRunning[core]
	switch ev {
	case SemaphoreDecrement, SemaphoreIncrement, SemaphoreReleased, SemaphoreRequestSemaphore:
		if !ok || !r.coreOccupied[core] {
			return NoTaskRunning
		}
	case SemaphoreAssigned, SemaphoreQueued, SemaphoreWaiting:
		// no occupancy requirement
	default:
		return InvalidEvent
	}
	r.semaphores[sem], _ = semaphoreTransition(r.semaphores[sem], ev)
	r.log.append(EventRecord{
		Time: time, Kind: KindSemaphore,
		SourceID: key.ID, SourceInstance: key.Instance,
		TargetID: sem,
		Payload:  Payload{Semaphore: ev},
		Note:     noteString(note),
	}, sem)
	return Success
}

func checkSemaphoreNote(ev SemaphoreEvent, note uint64) Status {
	switch semaphoreNoteRule(ev) {
	case noteMustBeZero:
		if note != 0 {
			return AmountOfSemaphoreAccessesInvalid
		}
	case noteMustBeOne:
		if note != 1 {
			return AmountOfSemaphoreAccessesInvalid
		}
	case noteMustBePositive:
		if note == 0 {
			return AmountOfSemaphoreAccessesInvalid
		}
	}
	return Success
}

func noteString(note uint64) string {
	return strconv.FormatUint(note, 10)
}

// ----------------------------------------------------------------- Signal ----

// SignalEvent records a read/write signal event; value is only retained for
// write, with newlines stripped.
func (r *Recorder) SignalEvent(time Timestamp, source, signal string, ev SignalEvent, value string) Status {
	var core Identifier
	if r.cfg.SourceIsCore {
		core = r.resolve(source)
	} else {
		core = r.taskCoreMap[r.resolve(source)]
	}
	return r.signalEvent(time, core, r.resolve(signal), ev, value)
}

func (r *Recorder) signalEvent(time Timestamp, core, signal Identifier, ev SignalEvent, value string) Status {
	if st := r.checkTime(time); !st.OK() {
		return st
	}
	if st := r.checkType(signal, KindSignal); !st.OK() {
		return st
	}
	if st := r.checkType(core, KindCore); !st.OK() {
		return st
	}
	key, ok := r.currentRunning[core]
	if !ok || !r.coreOccupied[core] {
		return NoTaskRunning
	}
	note := ""
	if ev == SignalWrite {
		note = stripNewlines(value)
	}
	r.log.append(EventRecord{
		Time: time, Kind: KindSignal,
		SourceID: key.ID, SourceInstance: key.Instance,
		TargetID: signal,
		Payload:  Payload{Signal: ev},
		Note:     note,
	}, signal)
	return Success
}

func stripNewlines(s string) string {
	out := make([]rune, 0, len(s))
	for _, c := range s {
		if c != '\r' && c != '\n' {
			out = append(out, c)
		}
	}
	return string(out)
}

// --------------------------------------------------------------- Stimulus ----

// StimulusEvent records a stimulus event; source and target must share an id.
func (r *Recorder) StimulusEvent(time Timestamp, source, target string, ev StimulusEvent) Status {
	if source != target {
		return SourceAndTargetNotEqual
	}
	return r.stimulusEvent(time, r.resolve(source), ev)
}

func (r *Recorder) stimulusEvent(time Timestamp, stimulus Identifier, ev StimulusEvent) Status {
	if st := r.checkTime(time); !st.OK() {
		return st
	}
	if st := r.checkType(stimulus, KindStimulus); !st.OK() {
		return st
	}
	instance := InstanceIndex(r.stimulusInstanceCounter[stimulus])
	if r.haveStimulusInstance[stimulus] {
		r.stimulusInstanceCounter[stimulus]++
		instance = InstanceIndex(r.stimulusInstanceCounter[stimulus])
	}
	r.haveStimulusInstance[stimulus] = true
	r.log.append(EventRecord{
		Time: time, Kind: KindStimulus,
		SourceID: stimulus, SourceInstance: instance,
		TargetID: stimulus, TargetInstance: instance,
		Payload: Payload{Stimulus: ev},
	}, stimulus)
	return Success
}

// ------------------------------------------------------------- Simulation ----

// SimulationProcessName appends a COMM: tag for process.
func (r *Recorder) SimulationProcessName(time Timestamp, process, name string) Status {
	return r.simulationTag(time, r.resolve(process), KindTask, "COMM:"+name)
}

// SimulationProcessCreation appends PID:/PPID: tags for process.
func (r *Recorder) SimulationProcessCreation(time Timestamp, process string, pid, ppid uint64) Status {
	id := r.resolve(process)
	if st := r.simulationTag(time, id, KindTask, "PID:"+strconv.FormatUint(pid, 10)); !st.OK() {
		return st
	}
	return r.simulationTag(time, id, KindTask, "PPID:"+strconv.FormatUint(ppid, 10))
}

// SimulationThreadName appends a COMM: tag for a thread.
func (r *Recorder) SimulationThreadName(time Timestamp, thread, name string) Status {
	return r.simulationTag(time, r.resolve(thread), KindThread, "COMM:"+name)
}

// SimulationThreadCreation appends TID:/PID: tags for a thread.
func (r *Recorder) SimulationThreadCreation(time Timestamp, thread string, tid, pid uint64) Status {
	id := r.resolve(thread)
	if st := r.simulationTag(time, id, KindThread, "TID:"+strconv.FormatUint(tid, 10)); !st.OK() {
		return st
	}
	return r.simulationTag(time, id, KindThread, "PID:"+strconv.FormatUint(pid, 10))
}

// SimulationTag appends a raw simulation tag note for subject, inferring
// its already-bound entity kind (task or thread) rather than asserting one;
// used by the import driver to replay a serialised "tag" line without
// knowing in advance which of the two the subject is.
func (r *Recorder) SimulationTag(time Timestamp, subject, note string) Status {
	id := r.resolve(subject)
	kind, bound := r.types.kindOf(id)
	if !bound {
		kind = KindTask
	} else if kind != KindTask && kind != KindThread {
		return InvalidType
	}
	return r.simulationTag(time, id, kind, note)
}

func (r *Recorder) simulationTag(time Timestamp, subject Identifier, expect Kind, note string) Status {
	if st := r.checkTime(time); !st.OK() {
		return st
	}
	if st := r.checkType(subject, expect); !st.OK() {
		return st
	}
	sim := r.resolve("SIM")
	r.log.append(EventRecord{
		Time: time, Kind: KindSimulation,
		SourceID: subject, TargetID: sim,
		Payload: Payload{Simulation: SimulationTag},
		Note:    note,
	}, subject)
	return Success
}

// ----------------------------------------------------- Comments & header ----

// Comment appends a comment record; comments carry no timestamp.
func (r *Recorder) Comment(text string) {
	r.log.append(EventRecord{
		Kind: KindComment,
		Note: stripNewlines(text),
	})
}

// HeaderEntry stores a custom header line, emitted verbatim before the
// first event when the textual file is written.
func (r *Recorder) HeaderEntry(entry string) {
	entry = stripNewlines(entry)
	if len(entry) > 0 && entry[0] == '#' {
		entry = entry[1:]
	}
	if entry != "" {
		r.customHeader = append(r.customHeader, entry)
	}
}

// CustomHeaderEntries returns the custom header lines recorded so far.
func (r *Recorder) CustomHeaderEntries() []string {
	out := make([]string, len(r.customHeader))
	copy(out, r.customHeader)
	return out
}

// ------------------------------------------------------------ Read paths ----

// EventsForEntity returns every accepted record indexed under the named
// entity, in append order (SPEC_FULL.md §4, supplementing the original's
// getEventsForEntity).
func (r *Recorder) EventsForEntity(name string) []EventRecord {
	return r.log.forEntity(r.resolve(name))
}

// AllEvents returns every accepted record, in append order.
func (r *Recorder) AllEvents() []EventRecord {
	return r.log.all()
}

// ProcessStateView is a read-only snapshot of one process instance's
// lifecycle state, surfaced alongside EventsForEntity (SPEC_FULL.md §4 #4).
type ProcessStateView struct {
	State            ProcessState
	WasStarted       bool
	WaitingOnOSEvent bool
}

// ProcessState returns the current lifecycle view of the named process
// instance. The second return value is false if that instance has never
// been touched by a ProcessEvent/ThreadEvent call.
func (r *Recorder) ProcessState(name string, instance InstanceIndex) (ProcessStateView, bool) {
	inst, ok := r.processes[processKey{ID: resolve(name), Instance: instance}]
	if !ok {
		return ProcessStateView{}, false
	}
	return ProcessStateView{
		State:            inst.state,
		WasStarted:       inst.wasStarted,
		WaitingOnOSEvent: inst.waitingOnOS,
	}, true
}

// NumEvents returns the number of accepted records.
func (r *Recorder) NumEvents() int { return r.log.len() }

// Finished reports whether MarkFinished has already been called.
func (r *Recorder) Finished() bool { return r.finished }

// MarkFinished releases large in-memory tables after the textual file has
// been written, per spec §5: finish may be called at most once.
func (r *Recorder) MarkFinished() {
	r.finished = true
	r.processes = nil
	r.runnables = nil
	r.semaphores = nil
	r.currentRunning = nil
	r.coreOccupied = nil
	r.didAllocDeallocOccur = nil
	r.runnableStack = nil
	r.preTaskStack = nil
	r.preTaskBuffer = nil
	r.taskCoreMap = nil
}

