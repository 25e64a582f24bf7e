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

// State is one position in the Endpoint connection lifecycle.
//
//	Connecting --(socket ready + handshake ok)--> Ready
//	Connecting --(socket error / handshake reject)--> Faulted
//	Ready      --(fatal I/O / malformed frame)--> Faulted
//	Ready      --(shutdown requested)--> Draining
//	Draining   --(writer and reader returned)--> Closed
//	Faulted    --(Close)--> Closed
//
// A fault drains the FIFO but leaves the Endpoint in Faulted; it moves
// to Closed only when Close is called on it.
type State int32

const (
	Connecting State = iota
	Ready
	Draining
	Faulted
	Closed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "Connecting"
	case Ready:
		return "Ready"
	case Draining:
		return "Draining"
	case Faulted:
		return "Faulted"
	case Closed:
		return "Closed"
	default:
		return "Unknown"
	}
}
