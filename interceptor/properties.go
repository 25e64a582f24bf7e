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

import "github.com/spf13/cast"

// Properties is the mutable property bag an Invocation carries through
// the chain. Interceptors stash arbitrary values under well-known keys
// for downstream interceptors to consume (a retry count, a span,
// whether a payload was compressed).
type Properties map[string]any

// NewProperties returns an empty property bag.
func NewProperties() Properties {
	return make(Properties)
}

// GetInt reads k as an int, defaulting to 0 if absent or unconvertible.
func (p Properties) GetInt(k string) int {
	n, _ := cast.ToIntE(p[k])
	return n
}

// GetBool reads k as a bool, defaulting to false if absent or
// unconvertible.
func (p Properties) GetBool(k string) bool {
	b, _ := cast.ToBoolE(p[k])
	return b
}

// Set stores v under k.
func (p Properties) Set(k string, v any) {
	p[k] = v
}
