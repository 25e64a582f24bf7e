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

package cmd

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveOptionsFromFlags(t *testing.T) {
	configPath = ""
	opts, err := resolveOptions("10.0.0.1", 7000)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", opts.Host)
	assert.Equal(t, 7000, opts.Port)
}

func TestResolveOptionsFromConfigFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "respio-*.yaml")
	require.NoError(t, err)
	_, err = f.WriteString("host: cfg-host\nport: 7777\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	configPath = f.Name()
	t.Cleanup(func() { configPath = "" })

	opts, err := resolveOptions("ignored", 1)
	require.NoError(t, err)
	assert.Equal(t, "cfg-host", opts.Host)
	assert.Equal(t, 7777, opts.Port)
}
