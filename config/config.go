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

package config

import (
	"github.com/mitchellh/mapstructure"

	"github.com/respio/respio/confengine"
)

// LoadFile reads a YAML config file and unpacks it over Default(), so
// a file only needs to set the fields it wants to override.
func LoadFile(path string) (Options, error) {
	o := Default()
	c, err := confengine.LoadConfigPath(path)
	if err != nil {
		return o, err
	}
	if err := c.Unpack(&o); err != nil {
		return o, err
	}
	return o, nil
}

// FromMap decodes a loosely-typed map (e.g. assembled from environment
// variables by the caller) over Default() via mapstructure, for
// callers that don't want to go through a YAML file at all.
func FromMap(m map[string]any) (Options, error) {
	o := Default()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &o,
		WeaklyTypedInput: true,
		TagName:          "config",
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return o, err
	}
	if err := decoder.Decode(m); err != nil {
		return o, err
	}
	return o, nil
}
