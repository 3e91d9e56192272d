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
package btfformat

import (
	"strconv"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vectorgrp/btf-toolchain/recorder"
)

// DefaultDelimiter is the field separator assumed unless the importer is
// configured otherwise.
const DefaultDelimiter = ","

// ParseVersionLine extracts the version token from a "#version ..." line.
func ParseVersionLine(line string) (string, bool) {
	const prefix = "#version "
	if !strings.HasPrefix(line, prefix) {
		return "", false
	}
	return strings.TrimPrefix(line, prefix), true
}

// ParseCreatorLine extracts the creator token from a "#creator ..." line.
func ParseCreatorLine(line string) (string, bool) {
	const prefix = "#creator "
	if !strings.HasPrefix(line, prefix) {
		return "", false
	}
	return strings.TrimPrefix(line, prefix), true
}

// ParseTimescaleLine extracts the TimeScale from a "#timescale ..." line.
func ParseTimescaleLine(line string) (recorder.TimeScale, bool) {
	const prefix = "#timescale "
	if !strings.HasPrefix(line, prefix) {
		return recorder.TimeScaleUnknown, false
	}
	ts := recorder.ParseTimeScale(strings.TrimPrefix(line, prefix))
	return ts, ts != recorder.TimeScaleUnknown
}

// DecodeComment extracts the note text from a "# <text>" comment line. Any
// `#`-prefixed line that is not one of the three header lines is a comment.
func DecodeComment(line string) (string, bool) {
	if !strings.HasPrefix(line, "#") {
		return "", false
	}
	return strings.TrimPrefix(strings.TrimPrefix(line, "#"), " "), true
}

// ParsedLine is a tokenised, not-yet-typed event line: the seven required
// fields plus an optional note tail.
type ParsedLine struct {
	Time           uint64
	SourceName     string
	SourceInstance uint64
	Type           string
	TargetName     string
	TargetInstance uint64
	EventToken     string
	Note           string
	HasNote        bool
}

// DecodeLine splits a non-comment BTF line on delim into a ParsedLine.
// Malformed fields produce an error; callers treat this as an import
// warning, never a fatal condition (spec §4.5, §7).
func DecodeLine(line, delim string) (ParsedLine, error) {
	parts := strings.SplitN(line, delim, 8)
	if len(parts) < 7 {
		return ParsedLine{}, status.Errorf(codes.InvalidArgument, "btfformat: expected at least 7 fields, got %d: %q", len(parts), line)
	}
	time, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return ParsedLine{}, status.Errorf(codes.InvalidArgument, "btfformat: bad time %q: %v", parts[0], err)
	}
	srcInstance, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return ParsedLine{}, status.Errorf(codes.InvalidArgument, "btfformat: bad source instance %q: %v", parts[2], err)
	}
	tgtInstance, err := strconv.ParseUint(parts[5], 10, 64)
	if err != nil {
		return ParsedLine{}, status.Errorf(codes.InvalidArgument, "btfformat: bad target instance %q: %v", parts[5], err)
	}
	pl := ParsedLine{
		Time:           time,
		SourceName:     parts[1],
		SourceInstance: srcInstance,
		Type:           parts[3],
		TargetName:     parts[4],
		TargetInstance: tgtInstance,
		EventToken:     parts[6],
	}
	if len(parts) == 8 {
		pl.Note = parts[7]
		pl.HasNote = true
	}
	return pl, nil
}

// ParseSemaphoreNote parses a semaphore note field as a decimal integer
// (spec §4.5 "semaphore notes are parsed as decimal integers").
func ParseSemaphoreNote(note string) (uint64, error) {
	v, err := strconv.ParseUint(note, 10, 64)
	if err != nil {
		return 0, status.Errorf(codes.InvalidArgument, "btfformat: bad semaphore note %q: %v", note, err)
	}
	return v, nil
}
