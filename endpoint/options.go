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

package endpoint

import (
	"time"

	"github.com/respio/respio/common"
)

const (
	defaultSocketBufferSize = 64 << 10
	defaultMaxBatchBytes    = 64 << 10
	defaultMaxBatchCount    = 256
	defaultFIFOCapacity     = 4096
	defaultDialTimeout      = 5 * time.Second
)

// HelloVersion selects which handshake an Endpoint performs before
// transitioning Connecting to Ready.
type HelloVersion int

const (
	// NoHello skips HELLO; AUTH (if Password is set) is still issued.
	NoHello HelloVersion = iota
	RESP2
	RESP3
)

// Options configures one Endpoint's dial and runtime behavior. Zero
// values are replaced by package defaults in New.
type Options struct {
	Network string // "tcp" (default) or "unix"
	Address string

	DialTimeout    time.Duration
	SendBufferSize int
	RecvBufferSize int

	MaxBatchBytes int
	MaxBatchCount int
	FIFOCapacity  int
	ReadChunkSize int

	Username     string
	Password     string
	HelloVersion HelloVersion

	// Database, if non-zero, is selected via SELECT during the
	// handshake, before the Endpoint transitions to Ready.
	Database int

	// OnStateChange, if set, is invoked on every state transition. It
	// runs on the goroutine making the transition and must not block.
	OnStateChange func(from, to State)
}

func (o Options) withDefaults() Options {
	if o.Network == "" {
		o.Network = "tcp"
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = defaultDialTimeout
	}
	if o.SendBufferSize <= 0 {
		o.SendBufferSize = defaultSocketBufferSize
	}
	if o.RecvBufferSize <= 0 {
		o.RecvBufferSize = defaultSocketBufferSize
	}
	if o.MaxBatchBytes <= 0 {
		o.MaxBatchBytes = defaultMaxBatchBytes
	}
	if o.MaxBatchCount <= 0 {
		o.MaxBatchCount = defaultMaxBatchCount
	}
	if o.FIFOCapacity <= 0 {
		o.FIFOCapacity = defaultFIFOCapacity
	}
	if o.ReadChunkSize <= 0 {
		o.ReadChunkSize = common.ReadWriteBlockSize
	}
	return o
}
