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
	"strconv"
)

// maxDepth bounds aggregate nesting (spec: 128 levels ok, 129 fails).
// The top-level frame itself counts as depth 1.
const maxDepth = 128

// TryRead attempts to decode one frame from the head of buf. On
// success it returns the Frame and the number of bytes consumed. If
// buf does not yet hold a complete frame it returns ErrNeedMore and
// zero consumed bytes, with no other side effects — the caller should
// read more bytes and call TryRead again over the same (now longer)
// buffer.
//
// Bytes fields in the returned Frame (and its Elems) alias buf: the
// caller must copy them out (Frame.Clone) before buf is advanced or
// compacted.
func TryRead(buf []byte) (Frame, int, error) {
	return readFrame(buf, 1)
}

func readFrame(buf []byte, depth int) (Frame, int, error) {
	if len(buf) == 0 {
		return Frame{}, 0, ErrNeedMore
	}
	if depth > maxDepth {
		return Frame{}, 0, malformed(DepthExceeded, "nesting exceeds %d levels", maxDepth)
	}

	switch Type(buf[0]) {
	case SimpleString:
		return readLineFrame(buf, SimpleString)
	case Error:
		return readLineFrame(buf, Error)
	case Integer:
		return readIntegerFrame(buf)
	case BigNumber:
		return readLineFrame(buf, BigNumber)
	case Boolean:
		return readBooleanFrame(buf)
	case Double:
		return readDoubleFrame(buf)
	case BulkString:
		return readBulkString(buf, BulkString)
	case VerbatimString:
		return readBulkString(buf, VerbatimString)
	case Null:
		return readNullFrame(buf)
	case Array:
		return readAggregate(buf, depth, Array, 1)
	case Set:
		return readAggregate(buf, depth, Set, 1)
	case Push:
		return readAggregate(buf, depth, Push, 1)
	case Map:
		return readAggregate(buf, depth, Map, 2)
	default:
		return Frame{}, 0, malformed(UnknownType, "unrecognized type byte %q", buf[0])
	}
}

// findCRLF scans buf[1:] (the byte at index 0 is the type tag, already
// consumed by the caller) for the line terminator. It returns the
// index of the payload end (exclusive of CRLF) and the total bytes
// consumed including both CRLF bytes, or ErrNeedMore if the line isn't
// complete yet. A bare '\n', or a '\r' not immediately followed by
// '\n', is Malformed per spec.
func findCRLF(buf []byte) (lineEnd, consumed int, err error) {
	for i := 1; i < len(buf); i++ {
		switch buf[i] {
		case '\r':
			if i+1 >= len(buf) {
				return 0, 0, ErrNeedMore
			}
			if buf[i+1] != '\n' {
				return 0, 0, malformed(UnexpectedTerminator, "bare CR at offset %d", i)
			}
			return i, i + 2, nil
		case '\n':
			return 0, 0, malformed(UnexpectedTerminator, "bare LF at offset %d", i)
		}
	}
	return 0, 0, ErrNeedMore
}

func readLineFrame(buf []byte, typ Type) (Frame, int, error) {
	lineEnd, consumed, err := findCRLF(buf)
	if err != nil {
		return Frame{}, 0, err
	}
	return Frame{Type: typ, Bytes: buf[1:lineEnd]}, consumed, nil
}

func readIntegerFrame(buf []byte) (Frame, int, error) {
	lineEnd, consumed, err := findCRLF(buf)
	if err != nil {
		return Frame{}, 0, err
	}
	n, perr := strconv.ParseInt(string(buf[1:lineEnd]), 10, 64)
	if perr != nil {
		return Frame{}, 0, malformed(InvalidNumeric, "bad integer %q", buf[1:lineEnd])
	}
	return Frame{Type: Integer, Int: n}, consumed, nil
}

func readBooleanFrame(buf []byte) (Frame, int, error) {
	lineEnd, consumed, err := findCRLF(buf)
	if err != nil {
		return Frame{}, 0, err
	}
	line := buf[1:lineEnd]
	if len(line) != 1 || (line[0] != 't' && line[0] != 'f') {
		return Frame{}, 0, malformed(InvalidNumeric, "bad boolean %q, want #t or #f", line)
	}
	return Frame{Type: Boolean, Bool: line[0] == 't'}, consumed, nil
}

func readDoubleFrame(buf []byte) (Frame, int, error) {
	lineEnd, consumed, err := findCRLF(buf)
	if err != nil {
		return Frame{}, 0, err
	}
	f, perr := strconv.ParseFloat(string(buf[1:lineEnd]), 64)
	if perr != nil {
		return Frame{}, 0, malformed(InvalidNumeric, "bad double %q", buf[1:lineEnd])
	}
	return Frame{Type: Double, Float: f}, consumed, nil
}

// readBulkString handles both BulkString ($) and VerbatimString (=):
// both are a decimal length line followed by exactly that many payload
// bytes and a trailing CRLF. A length of -1 is the RESP2 null bulk
// form, collapsed into the unified Null frame.
func readBulkString(buf []byte, typ Type) (Frame, int, error) {
	lineEnd, headerConsumed, err := findCRLF(buf)
	if err != nil {
		return Frame{}, 0, err
	}

	n, perr := strconv.Atoi(string(buf[1:lineEnd]))
	if perr != nil {
		return Frame{}, 0, malformed(BadLength, "bad bulk length %q", buf[1:lineEnd])
	}
	if n == -1 {
		return Frame{Type: Null}, headerConsumed, nil
	}
	if n < -1 {
		return Frame{}, 0, malformed(BadLength, "negative bulk length %d", n)
	}

	total := headerConsumed + n + 2
	if len(buf) < total {
		return Frame{}, 0, ErrNeedMore
	}
	if buf[headerConsumed+n] != '\r' || buf[headerConsumed+n+1] != '\n' {
		return Frame{}, 0, malformed(UnexpectedTerminator, "bulk payload not terminated by CRLF")
	}

	return Frame{Type: typ, Bytes: buf[headerConsumed : headerConsumed+n]}, total, nil
}

func readNullFrame(buf []byte) (Frame, int, error) {
	if len(buf) < 3 {
		return Frame{}, 0, ErrNeedMore
	}
	if buf[1] != '\r' || buf[2] != '\n' {
		return Frame{}, 0, malformed(UnexpectedTerminator, "malformed RESP3 null")
	}
	return Frame{Type: Null}, 3, nil
}

// readAggregate parses Array (1), Set (1), Push (1) and Map (2,
// because each logical element is a key/value pair) frames. A count of
// -1 is the RESP2 null-array form, collapsed into Null.
func readAggregate(buf []byte, depth int, typ Type, elemsPerItem int) (Frame, int, error) {
	lineEnd, headerConsumed, err := findCRLF(buf)
	if err != nil {
		return Frame{}, 0, err
	}

	n, perr := strconv.Atoi(string(buf[1:lineEnd]))
	if perr != nil {
		return Frame{}, 0, malformed(BadLength, "bad aggregate length %q", buf[1:lineEnd])
	}
	if n == -1 {
		return Frame{Type: Null}, headerConsumed, nil
	}
	if n < -1 {
		return Frame{}, 0, malformed(BadLength, "negative aggregate length %d", n)
	}

	total := n * elemsPerItem
	elems := make([]Frame, 0, total)
	consumed := headerConsumed
	for i := 0; i < total; i++ {
		elem, n, err := readFrame(buf[consumed:], depth+1)
		if err != nil {
			// No partial mutation: on NeedMore or Malformed we simply
			// propagate, leaving buf untouched from the caller's view.
			return Frame{}, 0, err
		}
		elems = append(elems, elem)
		consumed += n
	}

	return Frame{Type: typ, Elems: elems}, consumed, nil
}
