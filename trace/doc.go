// Package trace generates and propagates OCN correlation identifiers.
//
// A trace ID is a random UUID v4 string. It travels between services in the
// x-ocn-trace-id HTTP header, in AMQP and Kafka message headers under the same
// key, and as the subject attribute of CloudEvent envelopes. Within a process
// it lives on the context.Context.
//
//	ctx, id := trace.EnsureContext(ctx)
//	logger := trace.Logger(ctx, slog.Default())
//	msg.Headers = trace.InjectAMQP(ctx, msg.Headers)
package trace
