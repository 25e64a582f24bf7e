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

// Package rerr defines the error-kind taxonomy shared across endpoint,
// pool, queue and the client façade, so a caller can branch on kind
// regardless of which layer produced the failure.
package rerr

import "github.com/pkg/errors"

// Kind classifies a client-visible failure. Distinct from resp's
// MalformedKind, which only ever appears wrapped as Kind Protocol.
type Kind int

const (
	// Protocol wraps a resp.MalformedError. Fatal to the Endpoint.
	Protocol Kind = iota
	// Server is an Error frame returned by the datastore itself; never
	// fatal to the connection.
	Server
	// Transport is a socket read/write failure, EOF mid-frame, or
	// handshake failure. Fatal to the Endpoint.
	Transport
	// Timeout is a pending command or acquire call exceeding its
	// configured deadline.
	Timeout
	// Cancelled is caller-requested cancellation.
	Cancelled
	// QueueFull is returned by Reject full-mode submissions.
	QueueFull
	// Dropped is the resolution given to a command evicted by
	// DropOldest full-mode.
	Dropped
	// NoHealthyEndpoint is returned by Pool.Acquire when every Endpoint
	// is non-Ready and acquire_timeout has elapsed.
	NoHealthyEndpoint
	// Disposed is returned for submissions made after client shutdown.
	Disposed
	// Unknown is never constructed directly; KindOf falls back to it for
	// an error that didn't originate as an *Error.
	Unknown
)

func (k Kind) String() string {
	switch k {
	case Protocol:
		return "Protocol"
	case Server:
		return "Server"
	case Transport:
		return "Transport"
	case Timeout:
		return "Timeout"
	case Cancelled:
		return "Cancelled"
	case QueueFull:
		return "QueueFull"
	case Dropped:
		return "Dropped"
	case NoHealthyEndpoint:
		return "NoHealthyEndpoint"
	case Disposed:
		return "Disposed"
	case Unknown:
		return "Unknown"
	default:
		return "Unknown"
	}
}

// Error is the concrete error value carried by a rejected or faulted
// reply future. Category is only populated for Kind Server, holding
// the leading token of the server's message (e.g. "WRONGTYPE").
type Error struct {
	Kind     Kind
	Category string
	cause    error
}

func (e *Error) Error() string {
	if e.Category != "" {
		return "respio: " + e.Kind.String() + " (" + e.Category + "): " + e.cause.Error()
	}
	return "respio: " + e.Kind.String() + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New builds an Error of the given Kind wrapping msg.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, cause: errors.Errorf(format, args...)}
}

// Wrap builds an Error of the given Kind wrapping an existing error.
func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, cause: err}
}

// WrapServer builds a Kind Server Error, splitting the server message's
// leading category token the same way resp.Frame.Category does.
func WrapServer(message string) *Error {
	category := message
	for i, c := range message {
		if c == ' ' {
			category = message[:i]
			break
		}
	}
	return &Error{Kind: Server, Category: category, cause: errors.New(message)}
}

// Is reports whether err is an *Error of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// KindOf extracts the Kind from err, for callers that only need to
// label or branch on it (e.g. a metrics exporter) rather than check
// against one specific Kind.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return Unknown
	}
	return e.Kind
}
