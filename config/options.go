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

// Package config is the public functional-options surface respio.New
// accepts, plus a YAML file loader for the CLI. It is the idiomatic Go
// analogue of the teacher's map-based common.Options: a typed struct
// with With* setters instead of a stringly-typed bag, since every
// field here is known ahead of time.
package config

import "time"

// LoadPolicy mirrors pool.Policy without importing the pool package,
// keeping config dependency-free of the connection machinery it only
// describes.
type LoadPolicy int

const (
	RoundRobin LoadPolicy = iota
	LeastInFlight
	KeyHash
)

// FullMode mirrors queue.FullMode for the same reason.
type FullMode int

const (
	Wait FullMode = iota
	DropOldest
	Reject
)

// Options is the fully-resolved configuration for a respio Client.
type Options struct {
	Host string `config:"host"`
	Port int    `config:"port"`

	ConnectionCount int `config:"connection_count"`

	BatchSize     int           `config:"batch_size"`
	BatchTimeout  time.Duration `config:"batch_timeout"`
	QueueCapacity int           `config:"queue_capacity"`
	FullMode      FullMode      `config:"full_mode"`

	ConnectTimeout time.Duration `config:"connect_timeout"`
	CommandTimeout time.Duration `config:"command_timeout"`
	AcquireTimeout time.Duration `config:"acquire_timeout"`

	AutoReconnect         bool          `config:"auto_reconnect"`
	ReconnectBackoffBase  time.Duration `config:"reconnect_backoff_base"`
	ReconnectBackoffCap   time.Duration `config:"reconnect_backoff_cap"`
	ReconnectMaxAttempts  int           `config:"reconnect_max_attempts"`

	AuthUsername string `config:"auth_username"`
	AuthPassword string `config:"auth_password"`
	SelectDB     int    `config:"select_db"`
	UseRESP3     bool   `config:"use_resp3"`

	LoadPolicy LoadPolicy `config:"load_policy"`
}

// Option mutates an Options being built by New.
type Option func(*Options)

// Default returns the spec-mandated defaults: connection_count 4,
// batch_size 100, batch_timeout 1ms, queue_capacity 10000, Wait
// full-mode, 5s for every timeout family, auto_reconnect on,
// RoundRobin load policy.
func Default() Options {
	return Options{
		ConnectionCount:      4,
		BatchSize:            100,
		BatchTimeout:         time.Millisecond,
		QueueCapacity:        10_000,
		FullMode:             Wait,
		ConnectTimeout:       5 * time.Second,
		CommandTimeout:       5 * time.Second,
		AcquireTimeout:       5 * time.Second,
		AutoReconnect:        true,
		ReconnectBackoffBase: 100 * time.Millisecond,
		ReconnectBackoffCap:  30 * time.Second,
		ReconnectMaxAttempts: 0, // 0 means unbounded
		LoadPolicy:           RoundRobin,
	}
}

// New applies opts over Default().
func New(opts ...Option) Options {
	o := Default()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func WithAddress(host string, port int) Option {
	return func(o *Options) { o.Host = host; o.Port = port }
}

func WithConnectionCount(n int) Option {
	return func(o *Options) { o.ConnectionCount = n }
}

func WithBatch(size int, timeout time.Duration) Option {
	return func(o *Options) { o.BatchSize = size; o.BatchTimeout = timeout }
}

func WithQueueCapacity(n int) Option {
	return func(o *Options) { o.QueueCapacity = n }
}

func WithFullMode(m FullMode) Option {
	return func(o *Options) { o.FullMode = m }
}

func WithTimeouts(connect, command, acquire time.Duration) Option {
	return func(o *Options) {
		o.ConnectTimeout = connect
		o.CommandTimeout = command
		o.AcquireTimeout = acquire
	}
}

func WithAutoReconnect(enabled bool, backoffBase, backoffCap time.Duration, maxAttempts int) Option {
	return func(o *Options) {
		o.AutoReconnect = enabled
		o.ReconnectBackoffBase = backoffBase
		o.ReconnectBackoffCap = backoffCap
		o.ReconnectMaxAttempts = maxAttempts
	}
}

func WithAuth(username, password string) Option {
	return func(o *Options) { o.AuthUsername = username; o.AuthPassword = password }
}

func WithSelectDB(db int) Option {
	return func(o *Options) { o.SelectDB = db }
}

func WithRESP3(enabled bool) Option {
	return func(o *Options) { o.UseRESP3 = enabled }
}

func WithLoadPolicy(p LoadPolicy) Option {
	return func(o *Options) { o.LoadPolicy = p }
}
