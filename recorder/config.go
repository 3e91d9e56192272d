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

// TimeScale names the opaque unit a Recorder's timestamps are expressed in;
// it is emitted in the BTF header and otherwise unused by the recorder.
type TimeScale int8

const (
	TimeScaleUnknown TimeScale = iota
	TimeScalePico
	TimeScaleNano
	TimeScaleMicro
	TimeScaleMilli
)

var timeScaleTokens = map[TimeScale]string{
	TimeScalePico:  "ps",
	TimeScaleNano:  "ns",
	TimeScaleMicro: "us",
	TimeScaleMilli: "ms",
}

func (t TimeScale) String() string { return timeScaleTokens[t] }

// ParseTimeScale maps a wire token ("ps"/"ns"/"us"/"ms") to a TimeScale, or
// TimeScaleUnknown.
func ParseTimeScale(tok string) TimeScale {
	for k, v := range timeScaleTokens {
		if v == tok {
			return k
		}
	}
	return TimeScaleUnknown
}

// Config carries the six recognised configuration switches (SPEC_FULL.md
// §2.3). It is built once via NewConfig options and, per spec §9, never
// mutated mid-run except IgnoreMultipleTaskReleases, which SetIgnoreMultipleTaskReleases
// toggles on a live Recorder.
type Config struct {
	Timescale                  TimeScale
	AutoSuspendParentRunnable  bool
	SourceIsCore               bool
	AutoGenerateCoreEvents     bool
	AutoWaitResumeOSEvents     bool
	IgnoreMultipleTaskReleases bool
}

// Option mutates a Config under construction, following the functional-options
// idiom already used by the teacher's collection options.
type Option func(*Config)

func WithTimescale(t TimeScale) Option {
	return func(c *Config) { c.Timescale = t }
}

func WithAutoSuspendParentRunnable(v bool) Option {
	return func(c *Config) { c.AutoSuspendParentRunnable = v }
}

func WithSourceIsCore(v bool) Option {
	return func(c *Config) { c.SourceIsCore = v }
}

func WithAutoGenerateCoreEvents(v bool) Option {
	return func(c *Config) { c.AutoGenerateCoreEvents = v }
}

func WithAutoWaitResumeOSEvents(v bool) Option {
	return func(c *Config) { c.AutoWaitResumeOSEvents = v }
}

func WithIgnoreMultipleTaskReleases(v bool) Option {
	return func(c *Config) { c.IgnoreMultipleTaskReleases = v }
}

// NewConfig builds a Config from zero or more Options, defaulting to
// TimeScaleNano with every switch off.
func NewConfig(opts ...Option) Config {
	cfg := Config{Timescale: TimeScaleNano}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}
