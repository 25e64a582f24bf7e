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

// Package confengine wraps github.com/elastic/go-ucfg's Config so the
// rest of respio never touches ucfg directly. It is intentionally thin:
// config schema validation beyond Unpack/Child lives in the config
// package, not here.
package confengine

import (
	"github.com/elastic/go-ucfg"
	"github.com/elastic/go-ucfg/yaml"
)

// Config wraps a ucfg.Config node.
type Config struct {
	conf *ucfg.Config
}

// New wraps an existing ucfg.Config.
func New(conf *ucfg.Config) *Config {
	return &Config{conf: conf}
}

// Has reports whether s is present at this node.
func (c *Config) Has(s string) bool {
	ok, err := c.conf.Has(s, -1)
	if err != nil {
		return false
	}
	return ok
}

// Child descends into the named sub-document.
func (c *Config) Child(s string) (*Config, error) {
	content, err := c.conf.Child(s, -1)
	if err != nil {
		return nil, err
	}
	return &Config{conf: content}, nil
}

// MustChild is Child but panics on error, for call sites that have
// already validated the path exists.
func (c *Config) MustChild(s string) *Config {
	child, err := c.Child(s)
	if err != nil {
		panic(err)
	}
	return child
}

// Unpack decodes this node into to, a pointer to a struct tagged with
// `config:"..."` field names.
func (c *Config) Unpack(to any) error {
	return c.conf.Unpack(to)
}

// LoadConfigPath reads and parses a YAML file at path.
func LoadConfigPath(path string) (*Config, error) {
	config, err := yaml.NewConfigWithFile(path, ucfg.PathSep("."))
	if err != nil {
		return nil, err
	}
	return New(config), err
}

// LoadContent parses in-memory YAML bytes.
func LoadContent(b []byte) (*Config, error) {
	config, err := yaml.NewConfig(b)
	if err != nil {
		return nil, err
	}
	return New(config), err
}
