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

// eventLog is the append-only ordered sequence of accepted EventRecords,
// plus a per-entity secondary index of slice positions into it. Indices are
// stable across appends (append never reorders or removes earlier slots,
// save for the single targeted popIfLast rollback used by core-execute
// coalescing), unlike a pointer into a growing slice.
type eventLog struct {
	records  []EventRecord
	byEntity map[Identifier][]int
}

func newEventLog() *eventLog {
	return &eventLog{byEntity: make(map[Identifier][]int)}
}

// append adds rec to the log and indexes it under every given entity id,
// returning its position.
func (l *eventLog) append(rec EventRecord, entityIDs ...Identifier) int {
	idx := len(l.records)
	l.records = append(l.records, rec)
	for _, id := range entityIDs {
		l.byEntity[id] = append(l.byEntity[id], idx)
	}
	return idx
}

// lastForEntity returns the most recently appended record indexed under id.
func (l *eventLog) lastForEntity(id Identifier) (EventRecord, int, bool) {
	idxs := l.byEntity[id]
	if len(idxs) == 0 {
		return EventRecord{}, -1, false
	}
	idx := idxs[len(idxs)-1]
	return l.records[idx], idx, true
}

// popIfLast removes the record at idx indexed under id, but only if idx is
// both the log's and id's most recently appended position -- i.e. nothing
// else was appended since. Used by generateCoreExecuteEvent to drop an
// earlier Core::execute recorded for the same core at the same timestamp.
func (l *eventLog) popIfLast(id Identifier, idx int) bool {
	if idx != len(l.records)-1 {
		return false
	}
	idxs := l.byEntity[id]
	if len(idxs) == 0 || idxs[len(idxs)-1] != idx {
		return false
	}
	l.records = l.records[:idx]
	l.byEntity[id] = idxs[:len(idxs)-1]
	return true
}

// rewriteSource retroactively changes the source id/instance of the record
// at idx, used to flush the pre-task runnable buffer once the owning
// process instance becomes known.
func (l *eventLog) rewriteSource(idx int, id Identifier, instance InstanceIndex) {
	l.records[idx].SourceID = id
	l.records[idx].SourceInstance = instance
}

// forEntity returns a copy of every record indexed under id, in append order.
func (l *eventLog) forEntity(id Identifier) []EventRecord {
	idxs := l.byEntity[id]
	out := make([]EventRecord, len(idxs))
	for i, idx := range idxs {
		out[i] = l.records[idx]
	}
	return out
}

// all returns every accepted record, in append order.
func (l *eventLog) all() []EventRecord {
	out := make([]EventRecord, len(l.records))
	copy(out, l.records)
	return out
}

func (l *eventLog) len() int { return len(l.records) }
