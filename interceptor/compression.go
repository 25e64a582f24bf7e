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

package interceptor

import (
	"bytes"
	"context"
	"strings"

	"github.com/golang/snappy"

	"github.com/respio/respio/resp"
)

// markerCompressed tags a bulk string payload as snappy-compressed so
// a later GET by the same interceptor can tell it apart from a plain
// value. A value written by this interceptor can only be read back
// correctly through the same interceptor (or a server-side module
// that understands the marker) — a stock client reading the key
// directly sees the marker byte and compressed bytes as opaque data.
const markerCompressed = 0x01
const markerPlain = 0x00

var compressibleCommands = map[string]bool{
	"SET":    true,
	"SETNX":  true,
	"SETEX":  true,
	"GETSET": true,
}

// CompressionInterceptor snappy-compresses the value argument of SET
// and related write commands once it reaches minSize bytes, and
// transparently decompresses GET replies tagged with the marker this
// interceptor writes. It demonstrates transforming both the outbound
// invocation before next and the inbound reply after next returns in
// the same Interceptor.
func CompressionInterceptor(minSize int) Interceptor {
	return func(next Handler) Handler {
		return func(ctx context.Context, inv *Invocation) (resp.Frame, error) {
			name := strings.ToUpper(inv.Name)

			if compressibleCommands[name] && len(inv.Args) >= 3 {
				last := len(inv.Args) - 1
				inv.Args[last] = maybeCompress(inv.Args[last], minSize)
			}

			f, err := next(ctx, inv)
			if err != nil {
				return f, err
			}

			if name == "GET" && f.Type == resp.BulkString {
				f.Bytes = maybeDecompress(f.Bytes)
			}
			return f, nil
		}
	}
}

func maybeCompress(value []byte, minSize int) []byte {
	if len(value) < minSize {
		return append([]byte{markerPlain}, value...)
	}
	compressed := snappy.Encode(nil, value)
	out := make([]byte, 0, len(compressed)+1)
	out = append(out, markerCompressed)
	out = append(out, compressed...)
	return out
}

func maybeDecompress(value []byte) []byte {
	if len(value) == 0 {
		return value
	}
	tag, body := value[0], value[1:]
	switch tag {
	case markerCompressed:
		decoded, err := snappy.Decode(nil, body)
		if err != nil {
			return value
		}
		return decoded
	case markerPlain:
		return bytes.Clone(body)
	default:
		return value
	}
}
