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

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/respio/respio/internal/tracekit"
	"github.com/respio/respio/resp"
)

const propTraceID = "respio.trace_id"

// TracingInterceptor starts one span per invocation under tracer. A
// command submitted to respio carries no inbound trace context of its
// own (unlike an HTTP request with a traceparent header), so this
// mints a fresh trace and span id for every invocation via tracekit
// rather than extracting one.
func TracingInterceptor(tracer trace.Tracer) Interceptor {
	return func(next Handler) Handler {
		return func(ctx context.Context, inv *Invocation) (resp.Frame, error) {
			traceID := tracekit.RandomTraceID()
			spanID := tracekit.RandomSpanID()
			sc := trace.NewSpanContext(trace.SpanContextConfig{
				TraceID:    traceID,
				SpanID:     spanID,
				TraceFlags: trace.FlagsSampled,
			})
			ctx = trace.ContextWithRemoteSpanContext(ctx, sc)

			ctx, span := tracer.Start(ctx, inv.Name)
			defer span.End()
			span.SetAttributes(attribute.String("respio.command", inv.Name))

			if inv.Properties == nil {
				inv.Properties = NewProperties()
			}
			inv.Properties.Set(propTraceID, traceID.String())

			f, err := next(ctx, inv)
			if err != nil {
				span.RecordError(err)
			}
			return f, err
		}
	}
}
