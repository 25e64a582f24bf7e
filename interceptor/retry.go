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
	"time"

	"github.com/respio/respio/logger"
	"github.com/respio/respio/resp"
	"github.com/respio/respio/rerr"
)

const propRetryAttempt = "respio.retry.attempt"

// RetryInterceptor retries a command up to maxAttempts times (the
// first try plus maxAttempts-1 retries) when next returns a Transport
// or Timeout error, waiting delay between attempts. Protocol and
// Server errors are never retried: a server replying WRONGTYPE will
// reply WRONGTYPE again.
func RetryInterceptor(maxAttempts int, delay time.Duration) Interceptor {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return func(next Handler) Handler {
		return func(ctx context.Context, inv *Invocation) (resp.Frame, error) {
			var lastErr error
			for attempt := 0; attempt < maxAttempts; attempt++ {
				if inv.Properties == nil {
					inv.Properties = NewProperties()
				}
				inv.Properties.Set(propRetryAttempt, attempt)

				f, err := next(ctx, inv)
				if err == nil {
					return f, nil
				}
				lastErr = err
				if !retryable(err) {
					return f, err
				}
				if attempt < maxAttempts-1 {
					logger.Warnf("interceptor: retrying %s after attempt %d: %v", inv.Name, attempt, err)
					select {
					case <-ctx.Done():
						return resp.Frame{}, rerr.Wrap(rerr.Cancelled, ctx.Err())
					case <-time.After(delay):
					}
				}
			}
			return resp.Frame{}, lastErr
		}
	}
}

func retryable(err error) bool {
	return rerr.Is(err, rerr.Transport) || rerr.Is(err, rerr.Timeout)
}
