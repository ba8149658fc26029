// Copyright 2018 Google Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package tracer provides a verbosity-leveled event channel for the
// pipeline's trace messages. The pipeline currently emits one message on
// entry to each stage (see Stage).
package tracer

import (
	"io"
	"time"
)

// Arguments encapsulates the elements passed to the tracer.
type Arguments struct {
	Msgs []string
}

// event encapsulates a single tracing event.
type event struct {
	w          io.Writer
	t          time.Time
	tracerArgs func() *Arguments
}

// MessageTracer encapsulates the intrinsic verbosity of a given tracing message.
type MessageTracer struct {
	verbosity int
}

// tracerVerbosity is the global verbosity level of the current tracer.
// Level 1 means minimum verbosity (printing only what is crucial) while
// level 3 means maximum verbosity (printing all available tracing
// messages).
var tracerVerbosity int

// events is the channel through which all the tracing events are sent for
// later consumption and writing to the output.
var events chan *event

func init() {
	tracerVerbosity = 1
	events = make(chan *event, 10000)

	go func() {
		for e := range events {
			for _, msg := range e.tracerArgs().Msgs {
				e.w.Write([]byte("["))
				e.w.Write([]byte(e.t.Format(time.RFC3339Nano)))
				e.w.Write([]byte("] "))
				e.w.Write([]byte(msg))
				e.w.Write([]byte("\n"))
			}
		}
	}()
}

// SetVerbosity sets the global verbosity of the current tracer, truncated
// to [1, 3], and returns the value actually set.
func SetVerbosity(verbosity int) int {
	if verbosity < 1 {
		verbosity = 1
	} else if verbosity > 3 {
		verbosity = 3
	}
	tracerVerbosity = verbosity
	return tracerVerbosity
}

// V returns a MessageTracer at the given verbosity level, truncated to
// [1, 3]. Level 1 messages always print; level 3 messages print only when
// the global tracer is at maximum verbosity.
func V(verbosity int) MessageTracer {
	if verbosity < 1 {
		verbosity = 1
	} else if verbosity > 3 {
		verbosity = 3
	}
	return MessageTracer{verbosity}
}

func (t MessageTracer) isTraceable() bool {
	return t.verbosity <= tracerVerbosity
}

// Trace attempts to write a trace if w is non-nil and the current
// verbosity allows it. tracerArgs is only called when tracing will
// actually happen, so callers can defer expensive formatting.
func (t MessageTracer) Trace(w io.Writer, tracerArgs func() *Arguments) {
	if w == nil || !t.isTraceable() {
		return
	}
	events <- &event{w, time.Now(), tracerArgs}
}

// Stage is a convenience wrapper around V(1).Trace for the pipeline-stage
// entry messages quarry.Execute emits, one as each stage starts (infer ->
// rewrite -> emit -> static-select -> backpropagate -> plan -> ts-execute
// -> integrate). No message is emitted when a stage ends.
func Stage(w io.Writer, name string) {
	V(1).Trace(w, func() *Arguments {
		return &Arguments{Msgs: []string{"stage: " + name}}
	})
}
