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

import "hash/fnv"

// Kind is the closed enumeration of BTF entity kinds.
type Kind int8

const (
	KindUnknown Kind = iota
	KindCore
	KindOSEvent
	KindTask
	KindISR
	KindStimulus
	KindScheduler
	KindSemaphore
	KindRunnable
	KindSignal
	KindSimulation
	KindSyscall
	KindThread
	KindComment
)

var kindNames = [...]string{
	"unknown",
	"core",
	"os_event",
	"task",
	"isr",
	"stimulus",
	"scheduler",
	"semaphore",
	"runnable",
	"signal",
	"simulation",
	"syscall",
	"thread",
	"comment",
}

// String returns the Kind's canonical lower-case name.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Identifier is an opaque, deterministic handle for a named entity. Two
// distinct names are not guaranteed distinct identifiers (spec: "two names
// that collide are not supported -- behaviour is implementation-defined");
// resolve() is a pure function of the name so that repeated resolution of
// the same name always yields the same Identifier within and across runs.
type Identifier uint64

// InstanceIndex disambiguates repeated activations of the same process or
// runnable.
type InstanceIndex uint64

// resolve computes the deterministic Identifier for a name. It is a pure
// function: the same name always resolves to the same id, with no state
// and no possibility of failure. FNV-1a is used for its 64-bit width and
// stdlib availability; this system documents, rather than attempts to
// eliminate, the resulting collision risk (see DESIGN.md).
func resolve(name string) Identifier {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return Identifier(h.Sum64())
}

// nameTable is a bidirectional id<->name map. Once an id is bound to a name
// it is never rebound; bind is idempotent under an equal name. This mirrors
// analysis/string_bank.go's stringBank, generalized from sequential
// stringIDs to the deterministic, name-derived Identifier the BTF data
// model requires.
type nameTable struct {
	names map[Identifier]string
}

func newNameTable() *nameTable {
	return &nameTable{names: make(map[Identifier]string)}
}

// resolveAndBind resolves name to its Identifier and records the reverse
// mapping if this is the first time the id has been seen.
func (nt *nameTable) resolveAndBind(name string) Identifier {
	id := resolve(name)
	if _, ok := nt.names[id]; !ok {
		nt.names[id] = name
	}
	return id
}

// nameByID returns the name bound to id, or "" if unbound.
func (nt *nameTable) nameByID(id Identifier) string {
	return nt.names[id]
}

// seed pre-populates the name table from an external id->name map, without
// overwriting any name already bound. This supports replaying a log whose
// identifiers were computed externally (see SPEC_FULL.md §4.2).
func (nt *nameTable) seed(names map[Identifier]string) {
	for id, name := range names {
		if _, ok := nt.names[id]; !ok {
			nt.names[id] = name
		}
	}
}

// typeRegistry records the Kind first claimed for each Identifier and
// rejects subsequent events that assert a different Kind for the same id.
type typeRegistry struct {
	kinds map[Identifier]Kind
}

func newTypeRegistry() *typeRegistry {
	return &typeRegistry{kinds: make(map[Identifier]Kind)}
}

// assertType binds id to kind if unbound, or verifies the existing binding
// matches kind. Returns InvalidType on mismatch, Success otherwise.
func (tr *typeRegistry) assertType(id Identifier, kind Kind) Status {
	if existing, ok := tr.kinds[id]; ok {
		if existing != kind {
			return InvalidType
		}
		return Success
	}
	tr.kinds[id] = kind
	return Success
}

// kindOf returns the kind bound to id and whether it is bound.
func (tr *typeRegistry) kindOf(id Identifier) (Kind, bool) {
	k, ok := tr.kinds[id]
	return k, ok
}
