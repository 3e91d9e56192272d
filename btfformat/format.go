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
// Package btfformat implements the textual BTF wire grammar: the three-line
// header, the comma-delimited event line, and the type-token table that
// maps between recorder.Kind values and their wire tokens. Event tokens come
// from recorder's own per-kind tables (EventRecord.EventToken).
package btfformat

import (
	"fmt"
	"io"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vectorgrp/btf-toolchain/recorder"
)

// Version and Creator are the fixed values of the first two header lines.
const (
	Version = "2.2.1"
	Creator = "libBtf"
)

var typeTokens = map[recorder.Kind]string{
	recorder.KindCore:       "C",
	recorder.KindOSEvent:    "EVENT",
	recorder.KindTask:       "T",
	recorder.KindISR:        "I",
	recorder.KindStimulus:   "STI",
	recorder.KindScheduler:  "SCHED",
	recorder.KindSemaphore:  "SEM",
	recorder.KindRunnable:   "R",
	recorder.KindSignal:     "SIG",
	recorder.KindSimulation: "SIM",
	recorder.KindSyscall:    "SYSC",
	recorder.KindThread:     "THR",
}

var tokenKinds = func() map[string]recorder.Kind {
	m := make(map[string]recorder.Kind, len(typeTokens))
	for k, v := range typeTokens {
		m[v] = k
	}
	return m
}()

// TypeToken returns the wire type token for an entity kind, or "" if k is
// not a BTF entity kind (e.g. KindUnknown, KindComment).
func TypeToken(k recorder.Kind) string { return typeTokens[k] }

// KindForToken maps a wire type token back to its entity kind.
func KindForToken(tok string) (recorder.Kind, bool) {
	k, ok := tokenKinds[tok]
	return k, ok
}

// noteEligible reports whether rec's kind ever carries a note column: signal
// write, simulation tag, and every semaphore event (spec §6 note rules).
func noteEligible(rec recorder.EventRecord) bool {
	switch rec.Kind {
	case recorder.KindSemaphore, recorder.KindSimulation:
		return true
	case recorder.KindSignal:
		return rec.Payload.Signal == recorder.SignalWrite
	}
	return false
}

// Header holds the fields a BTF file's textual header is derived from.
type Header struct {
	Timescale recorder.TimeScale
	Custom    []string
}

// WriteHeader emits the three mandatory lines followed by any custom header
// lines, each newline-terminated and `#`-prefixed.
func WriteHeader(w io.Writer, h Header) error {
	if _, err := fmt.Fprintf(w, "#version %s\n#creator %s\n#timescale %s\n", Version, Creator, h.Timescale.String()); err != nil {
		return status.Errorf(codes.Unavailable, "btfformat: write header: %v", err)
	}
	for _, c := range h.Custom {
		if _, err := fmt.Fprintf(w, "#%s\n", c); err != nil {
			return status.Errorf(codes.Unavailable, "btfformat: write custom header %q: %v", c, err)
		}
	}
	return nil
}

// NameLookup resolves an entity id to its bound name; *recorder.Recorder
// satisfies it via NameOf.
type NameLookup interface {
	NameOf(id recorder.Identifier) (string, bool)
}

// EncodeRecord renders a single accepted record as its BTF wire line,
// without a trailing newline. Comment records render as "# <text>" with no
// timestamp; every other kind renders the seven required comma-delimited
// fields plus an optional note tail.
func EncodeRecord(names NameLookup, rec recorder.EventRecord) string {
	if rec.Kind == recorder.KindComment {
		return "# " + rec.Note
	}
	srcName, _ := names.NameOf(rec.SourceID)
	tgtName, _ := names.NameOf(rec.TargetID)
	line := fmt.Sprintf("%d,%s,%d,%s,%s,%d,%s",
		rec.Time, srcName, rec.SourceInstance, typeTokens[rec.Kind],
		tgtName, rec.TargetInstance, rec.EventToken())
	if noteEligible(rec) && rec.Note != "" {
		line += "," + rec.Note
	}
	return line
}

// WriteEvents renders and writes every record in order, one per line.
func WriteEvents(w io.Writer, names NameLookup, records []recorder.EventRecord) error {
	for _, rec := range records {
		if _, err := fmt.Fprintln(w, EncodeRecord(names, rec)); err != nil {
			return status.Errorf(codes.Unavailable, "btfformat: write event: %v", err)
		}
	}
	return nil
}

// WriteFile renders a complete BTF textual file: header, then every record.
func WriteFile(w io.Writer, h Header, names NameLookup, records []recorder.EventRecord) error {
	if err := WriteHeader(w, h); err != nil {
		return err
	}
	return WriteEvents(w, names, records)
}
