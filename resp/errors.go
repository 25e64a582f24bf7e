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

package resp

import (
	"github.com/pkg/errors"
)

// MalformedKind classifies why a frame failed to parse. Fatal to the
// owning Endpoint, whose reader faults on it.
type MalformedKind int

const (
	UnknownType MalformedKind = iota
	BadLength
	DepthExceeded
	InvalidNumeric
	UnexpectedTerminator
)

func (k MalformedKind) String() string {
	switch k {
	case UnknownType:
		return "UnknownType"
	case BadLength:
		return "BadLength"
	case DepthExceeded:
		return "DepthExceeded"
	case InvalidNumeric:
		return "InvalidNumeric"
	case UnexpectedTerminator:
		return "UnexpectedTerminator"
	default:
		return "Unknown"
	}
}

// MalformedError reports a protocol-level parse failure. It is fatal
// to the Endpoint that produced it.
type MalformedError struct {
	Kind MalformedKind
	msg  string
}

func (e *MalformedError) Error() string {
	return "resp: malformed (" + e.Kind.String() + "): " + e.msg
}

func malformed(kind MalformedKind, format string, args ...any) error {
	return &MalformedError{Kind: kind, msg: errors.Errorf(format, args...).Error()}
}

// ErrNeedMore is returned by TryRead when buf does not yet
// contain a complete frame. It carries no side effects: the same
// buffer plus additional bytes must reparse identically.
var ErrNeedMore = errors.New("resp: need more data")
