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

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/respio/respio/resp"
	"github.com/respio/respio/rerr"
)

func TestRetryInterceptorRetriesTransportErrors(t *testing.T) {
	attempts := 0
	terminal := func(ctx context.Context, inv *Invocation) (resp.Frame, error) {
		attempts++
		if attempts < 3 {
			return resp.Frame{}, rerr.New(rerr.Transport, "connection reset")
		}
		return resp.NewSimpleString("OK"), nil
	}

	h := NewChain(RetryInterceptor(5, time.Millisecond)).Then(terminal)
	f, err := h(context.Background(), &Invocation{Name: "SET"})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, "OK", string(f.Bytes))
}

func TestRetryInterceptorDoesNotRetryServerErrors(t *testing.T) {
	attempts := 0
	terminal := func(ctx context.Context, inv *Invocation) (resp.Frame, error) {
		attempts++
		return resp.Frame{}, rerr.WrapServer("WRONGTYPE Operation against a key holding the wrong kind of value")
	}

	h := NewChain(RetryInterceptor(5, time.Millisecond)).Then(terminal)
	_, err := h(context.Background(), &Invocation{Name: "LPUSH"})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryInterceptorExhaustsAttempts(t *testing.T) {
	attempts := 0
	terminal := func(ctx context.Context, inv *Invocation) (resp.Frame, error) {
		attempts++
		return resp.Frame{}, rerr.New(rerr.Timeout, "deadline exceeded")
	}

	h := NewChain(RetryInterceptor(3, time.Millisecond)).Then(terminal)
	_, err := h(context.Background(), &Invocation{Name: "GET"})
	require.Error(t, err)
	assert.Equal(t, 3, attempts)
}
