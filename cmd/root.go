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

// Package cmd is the respio-cli operator tool: connect (a PING loop),
// pipeline-bench, exec and version subcommands over a respio.Client, all
// sharing the --config flag and a common.BuildInfo version line.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/respio/respio/common"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "respio-cli",
	Short: "Operator CLI for the respio RESP client library",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if _, err := maxprocs.Set(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to set GOMAXPROCS: %v\n", err)
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		info := common.GetBuildInfo()
		fmt.Printf("version=%s githash=%s time=%s\n", info.Version, info.GitHash, info.Time)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a respio config YAML file (overrides host/port/etc flags when set)")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the respio-cli root command; main only calls this.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
