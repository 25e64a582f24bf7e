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
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	goccyjson "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/respio/respio"
)

type benchResult struct {
	Pipelines   int           `json:"pipelines"`
	CommandsEa  int           `json:"commands_per_pipeline"`
	TotalCmds   int           `json:"total_commands"`
	Elapsed     time.Duration `json:"elapsed"`
	CommandsSec float64       `json:"commands_per_second"`
}

type benchCmdConfig struct {
	Host      string
	Port      int
	Pipelines int
	BatchSize int
}

var benchConfig benchCmdConfig

var benchCmd = &cobra.Command{
	Use:   "pipeline-bench",
	Short: "Measure pipelined SET throughput and print a JSON summary",
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := resolveOptions(benchConfig.Host, benchConfig.Port)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to resolve config: %v\n", err)
			os.Exit(1)
		}

		ctx := context.Background()
		client, err := respio.New(ctx, opts, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create client: %v\n", err)
			os.Exit(1)
		}
		defer client.Dispose(context.Background())

		start := time.Now()
		for i := 0; i < benchConfig.Pipelines; i++ {
			p := client.Pipeline()
			for j := 0; j < benchConfig.BatchSize; j++ {
				p.Then("SET", []byte("bench:"+strconv.Itoa(i)+":"+strconv.Itoa(j)), []byte("1"))
			}
			if _, err := p.Execute(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "pipeline %d failed: %v\n", i, err)
				os.Exit(1)
			}
		}
		elapsed := time.Since(start)

		total := benchConfig.Pipelines * benchConfig.BatchSize
		result := benchResult{
			Pipelines:   benchConfig.Pipelines,
			CommandsEa:  benchConfig.BatchSize,
			TotalCmds:   total,
			Elapsed:     elapsed,
			CommandsSec: float64(total) / elapsed.Seconds(),
		}

		out, err := goccyjson.MarshalIndent(result, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to marshal result: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
	},
	Example: "# respio-cli pipeline-bench --host 127.0.0.1 --port 6379 --pipelines 100 --batch-size 50",
}

func init() {
	benchCmd.Flags().StringVar(&benchConfig.Host, "host", "127.0.0.1", "Datastore host")
	benchCmd.Flags().IntVar(&benchConfig.Port, "port", 6379, "Datastore port")
	benchCmd.Flags().IntVar(&benchConfig.Pipelines, "pipelines", 100, "Number of pipelines to execute")
	benchCmd.Flags().IntVar(&benchConfig.BatchSize, "batch-size", 50, "Commands per pipeline")
	rootCmd.AddCommand(benchCmd)
}
