// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package tracekit mints trace and span identifiers for commands that
// carry no inbound trace context of their own.
package tracekit

import (
	"crypto/rand"

	"go.opentelemetry.io/otel/trace"
)

// RandomTraceID generates a new random 16-byte trace id.
func RandomTraceID() trace.TraceID {
	var b [16]byte
	rand.Read(b[:])
	return b
}

// RandomSpanID generates a new random 8-byte span id.
func RandomSpanID() trace.SpanID {
	var b [8]byte
	rand.Read(b[:])
	return b
}
