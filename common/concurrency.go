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

package common

import (
	"runtime"
	"time"
)

// DefaultPoolSize returns the default number of Endpoints a Pool opens
// when connection_count is left unconfigured: the GOMAXPROCS-aware
// analogue of the teacher's NumCPU*2 sizing idiom, capped so a client
// sharing a host with many other processes doesn't open more sockets
// than the remote server wants to see from one caller.
func DefaultPoolSize() int {
	n := runtime.GOMAXPROCS(0)
	if n > DefaultMaxEndpoints {
		return DefaultMaxEndpoints
	}
	if n < 1 {
		return 1
	}
	return n
}

var started = time.Now().Unix()

// Started returns the unix timestamp the process (or at least this
// package) was initialized at.
func Started() int64 {
	return started
}
