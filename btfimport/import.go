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
// Package btfimport replays a textual BTF file through a recorder.Recorder,
// reconstructing the typed events the text encodes. Unparseable lines and
// rejected events become warnings, never errors (spec §4.5, §7): a bad line
// is skipped and the next is tried.
//
// The target Recorder must be constructed with source_is_core=false and
// every auto-derivation switch off (recorder.NewConfig()'s zero value
// already satisfies this): the source field of a serialised OS/runnable/
// scheduler-point/signal/semaphore-actor line is always the owning process
// instance's name, never a core's, and every auto-derived event the
// original emission may have produced is already present as an explicit
// line in the text.
package btfimport

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/golang/glog"

	"github.com/vectorgrp/btf-toolchain/btfformat"
	"github.com/vectorgrp/btf-toolchain/recorder"
)

// Importer replays one BTF text stream against a Recorder.
type Importer struct {
	Recorder  *recorder.Recorder
	Delimiter string

	headerLinesSeen int
	pendingMigrate  *pendingMigration
	warnings        []string
}

type pendingMigration struct {
	time     uint64
	fromCore string
	process  string
	instance uint64
}

// NewImporter constructs an Importer targeting r, using the default ","
// field delimiter.
func NewImporter(r *recorder.Recorder) *Importer {
	return &Importer{Recorder: r, Delimiter: btfformat.DefaultDelimiter}
}

// Warnings returns every warning accumulated by Import calls on im so far;
// the list is never reset.
func (im *Importer) Warnings() []string {
	out := make([]string, len(im.warnings))
	copy(out, im.warnings)
	return out
}

func (im *Importer) warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	im.warnings = append(im.warnings, msg)
	glog.Warning("btfimport: ", msg)
}

// Import reads src line by line, skips the three standard header lines, and
// replays every other line against im.Recorder. It returns only on an I/O
// error from the reader; malformed or rejected lines are recorded as
// warnings and do not stop the import.
func (im *Importer) Import(src io.Reader) error {
	scanner := bufio.NewScanner(src)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		im.importLine(line)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	im.flushPendingMigration()
	return nil
}

func (im *Importer) importLine(line string) {
	if im.headerLinesSeen < 3 {
		im.headerLinesSeen++
		return
	}
	if strings.HasPrefix(line, "#") {
		im.flushPendingMigration()
		text, _ := btfformat.DecodeComment(line)
		im.Recorder.Comment(text)
		return
	}

	pl, err := btfformat.DecodeLine(line, im.Delimiter)
	if err != nil {
		im.flushPendingMigration()
		im.warn("skipping unparseable line %q: %v", line, err)
		return
	}

	if im.pendingMigrate != nil {
		if pl.Type == "T" && pl.EventToken == "fullmigration" &&
			pl.TargetName == im.pendingMigrate.process &&
			pl.TargetInstance == im.pendingMigrate.instance &&
			pl.Time == im.pendingMigrate.time {
			fromCore := im.pendingMigrate.fromCore
			st := im.Recorder.TaskMigrationEvent(recorder.Timestamp(pl.Time), fromCore, pl.SourceName, pl.TargetName, recorder.InstanceIndex(pl.TargetInstance))
			im.pendingMigrate = nil
			if !st.OK() {
				im.warn("migration %s->%s on %s/%d rejected: %v", fromCore, pl.SourceName, pl.TargetName, pl.TargetInstance, st)
			}
			return
		}
		im.warn("enforced_migration on %s/%d at %d not immediately followed by full_migration: dropping", im.pendingMigrate.process, im.pendingMigrate.instance, im.pendingMigrate.time)
		im.pendingMigrate = nil
	}

	if pl.Type == "T" && pl.EventToken == "enforcedmigration" {
		im.pendingMigrate = &pendingMigration{
			time:     pl.Time,
			fromCore: pl.SourceName,
			process:  pl.TargetName,
			instance: pl.TargetInstance,
		}
		return
	}
	if pl.Type == "T" && pl.EventToken == "fullmigration" {
		im.warn("full_migration on %s/%d at %d with no preceding enforced_migration: dropping", pl.TargetName, pl.TargetInstance, pl.Time)
		return
	}

	im.dispatch(pl)
}

func (im *Importer) flushPendingMigration() {
	if im.pendingMigrate == nil {
		return
	}
	im.warn("enforced_migration on %s/%d at %d never matched: dropping", im.pendingMigrate.process, im.pendingMigrate.instance, im.pendingMigrate.time)
	im.pendingMigrate = nil
}

func (im *Importer) dispatch(pl btfformat.ParsedLine) {
	kind, ok := btfformat.KindForToken(pl.Type)
	if !ok {
		im.warn("unknown type token %q: dropping line", pl.Type)
		return
	}
	time := recorder.Timestamp(pl.Time)
	targetInstance := recorder.InstanceIndex(pl.TargetInstance)

	var st recorder.Status
	switch kind {
	case recorder.KindCore:
		st = im.Recorder.CoreEvent(time, pl.SourceName, recorder.ParseCoreEvent(pl.EventToken))
	case recorder.KindOSEvent:
		st = im.Recorder.OSEvent(time, pl.SourceName, pl.TargetName, recorder.ParseOSEvent(pl.EventToken))
	case recorder.KindTask:
		st = im.Recorder.ProcessEvent(time, pl.SourceName, pl.TargetName, targetInstance, recorder.ParseProcessEvent(pl.EventToken), false)
	case recorder.KindISR:
		st = im.Recorder.ProcessEvent(time, pl.SourceName, pl.TargetName, targetInstance, recorder.ParseProcessEvent(pl.EventToken), true)
	case recorder.KindThread:
		st = im.Recorder.ThreadEvent(time, pl.SourceName, pl.TargetName, targetInstance, recorder.ParseProcessEvent(pl.EventToken))
	case recorder.KindRunnable, recorder.KindSyscall:
		st = im.Recorder.RunnableEvent(time, pl.SourceName, pl.TargetName, recorder.ParseRunnableEvent(pl.EventToken))
	case recorder.KindScheduler:
		st = im.Recorder.SchedulerEvent(time, pl.SourceName, pl.TargetName, recorder.ParseSchedulerEvent(pl.EventToken))
	case recorder.KindSemaphore:
		var note uint64
		if pl.HasNote {
			var err error
			note, err = btfformat.ParseSemaphoreNote(pl.Note)
			if err != nil {
				im.warn("skipping semaphore line with bad note: %v", err)
				return
			}
		}
		st = im.Recorder.SemaphoreEvent(time, pl.SourceName, pl.TargetName, recorder.ParseSemaphoreEvent(pl.EventToken), note)
	case recorder.KindSignal:
		st = im.Recorder.SignalEvent(time, pl.SourceName, pl.TargetName, recorder.ParseSignalEvent(pl.EventToken), pl.Note)
	case recorder.KindStimulus:
		st = im.Recorder.StimulusEvent(time, pl.SourceName, pl.TargetName, recorder.ParseStimulusEvent(pl.EventToken))
	case recorder.KindSimulation:
		st = im.Recorder.SimulationTag(time, pl.SourceName, pl.Note)
	default:
		im.warn("unsupported type token %q: dropping line", pl.Type)
		return
	}
	if !st.OK() {
		im.warn("event on line %q rejected: %v", pl.EventToken, st)
	}
}
