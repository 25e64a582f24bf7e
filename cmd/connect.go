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
	"time"

	"github.com/spf13/cobra"

	"github.com/respio/respio"
	"github.com/respio/respio/config"
	"github.com/respio/respio/internal/sigs"
)

type connectCmdConfig struct {
	Host     string
	Port     int
	Interval time.Duration
}

var connectConfig connectCmdConfig

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Open a connection pool and ping it on a fixed interval until interrupted",
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := resolveOptions(connectConfig.Host, connectConfig.Port)
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

		var pingTotal int
		var reloadTotal int
		ticker := time.NewTicker(connectConfig.Interval)
		defer ticker.Stop()

		// Registered once: sigs.Terminate/Reload each call
		// signal.Notify against a fresh channel, so re-evaluating them on
		// every loop iteration (as the ticker case does every Interval)
		// would pile up stale registrations.
		terminate := sigs.Terminate()
		reload := sigs.Reload()

		for {
			select {
			case <-terminate:
				_ = client.Dispose(context.Background())
				return

			case <-reload:
				reloadTotal++
				client.ForceReconnect()
				fmt.Printf("reload #%d: forced every endpoint to reconnect\n", reloadTotal)

			case <-ticker.C:
				pingTotal++
				start := time.Now()
				reqCtx, cancel := context.WithTimeout(ctx, opts.CommandTimeout)
				_, err := client.Ping(reqCtx)
				cancel()
				if err != nil {
					fmt.Fprintf(os.Stderr, "ping #%d failed after %s: %v\n", pingTotal, time.Since(start), err)
					continue
				}
				fmt.Printf("ping #%d ok in %s\n", pingTotal, time.Since(start))
			}
		}
	},
	Example: "# respio-cli connect --host 127.0.0.1 --port 6379 --interval 1s",
}

// resolveOptions loads config.Options from --config when set, falling
// back to host/port flags layered over config.Default().
func resolveOptions(host string, port int) (config.Options, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.New(config.WithAddress(host, port)), nil
}

func init() {
	connectCmd.Flags().StringVar(&connectConfig.Host, "host", "127.0.0.1", "Datastore host")
	connectCmd.Flags().IntVar(&connectConfig.Port, "port", 6379, "Datastore port")
	connectCmd.Flags().DurationVar(&connectConfig.Interval, "interval", time.Second, "Ping interval")
	rootCmd.AddCommand(connectCmd)
}
