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
	"strings"

	"github.com/spf13/cobra"

	"github.com/respio/respio"
	"github.com/respio/respio/internal/splitio"
)

type execCmdConfig struct {
	Host string
	Port int
	File string
}

var execConfig execCmdConfig

var execCmd = &cobra.Command{
	Use:   "exec",
	Short: "Run a file of whitespace-delimited commands, one per line, as a single pipeline",
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := resolveOptions(execConfig.Host, execConfig.Port)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to resolve config: %v\n", err)
			os.Exit(1)
		}

		content, err := os.ReadFile(execConfig.File)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read script %s: %v\n", execConfig.File, err)
			os.Exit(1)
		}

		ctx := context.Background()
		client, err := respio.New(ctx, opts, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create client: %v\n", err)
			os.Exit(1)
		}
		defer client.Dispose(context.Background())

		p := client.Pipeline()
		lineCount := 0

		// splitio.Reader keeps the trailing newline on each returned line
		// (it is the teacher's zero-copy line splitter), so each line only needs trimming before it is tokenized.
		r := splitio.NewReader(content)
		for {
			line, eof := r.ReadLine()
			if eof {
				break
			}
			text := strings.TrimRight(string(line), "\r\n")
			if text == "" || strings.HasPrefix(strings.TrimSpace(text), "#") {
				continue
			}
			fields := strings.Fields(text)
			args := make([][]byte, len(fields)-1)
			for i, f := range fields[1:] {
				args[i] = []byte(f)
			}
			p.Then(fields[0], args...)
			lineCount++
		}

		if lineCount == 0 {
			fmt.Println("no commands found in script")
			return
		}

		frames, err := p.Execute(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "pipeline execution failed: %v\n", err)
			os.Exit(1)
		}
		for i, f := range frames {
			if f.IsNull() {
				fmt.Printf("[%d] (nil)\n", i)
				continue
			}
			if text, ok := f.Text(); ok {
				fmt.Printf("[%d] %s\n", i, text)
				continue
			}
			fmt.Printf("[%d] %v\n", i, f.Int)
		}
	},
	Example: "# respio-cli exec --file commands.txt --host 127.0.0.1 --port 6379",
}

func init() {
	execCmd.Flags().StringVar(&execConfig.Host, "host", "127.0.0.1", "Datastore host")
	execCmd.Flags().IntVar(&execConfig.Port, "port", 6379, "Datastore port")
	execCmd.Flags().StringVar(&execConfig.File, "file", "", "Path to a script of whitespace-delimited commands, one per line")
	_ = execCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(execCmd)
}
