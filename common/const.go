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

// Package common holds process-wide constants and defaults shared by the
// other respio packages.
package common

const (
	// App is the library name surfaced in logs, metrics and the CLI.
	App = "respio"

	// Version is the library's semantic version.
	Version = "v0.1.0"

	// ReadWriteBlockSize is the default chunk size used when draining a
	// socket into the Endpoint's read ring buffer.
	ReadWriteBlockSize = 4096

	// DefaultMaxEndpoints bounds the pool's default connection_count.
	DefaultMaxEndpoints = 8
)
