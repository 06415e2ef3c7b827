package trace

import (
	"context"
	"net/http"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
)

// FromHeader returns the trace ID sent in h
func FromHeader(h http.Header) (string, bool) {
	id := h.Get(Header)
	return id, id != ""
}

// SetHeader writes id to h
func SetHeader(h http.Header, id string) {
	h.Set(Header, id)
}

// InjectAMQP stores the trace ID from ctx in headers, allocating the table
// when needed. Headers are returned unchanged when ctx has no trace ID.
func InjectAMQP(ctx context.Context, headers amqp.Table) amqp.Table {
	id, ok := FromContext(ctx)
	if !ok {
		return headers
	}
	if headers == nil {
		headers = make(amqp.Table)
	}
	headers[Header] = id
	return headers
}

// FromAMQP returns the trace ID carried in AMQP message headers
func FromAMQP(headers amqp.Table) (string, bool) {
	switch v := headers[Header].(type) {
	case string:
		return v, v != ""
	case []byte:
		return string(v), len(v) > 0
	default:
		return "", false
	}
}

// InjectKafka sets the trace header on msg from ctx, replacing any previous value
func InjectKafka(ctx context.Context, msg *kafka.Message) {
	id, ok := FromContext(ctx)
	if !ok {
		return
	}

	for i := range msg.Headers {
		if msg.Headers[i].Key == Header {
			msg.Headers[i].Value = []byte(id)
			return
		}
	}
	msg.Headers = append(msg.Headers, kafka.Header{Key: Header, Value: []byte(id)})
}

// FromKafka returns the trace ID carried in msg headers
func FromKafka(msg kafka.Message) (string, bool) {
	for _, h := range msg.Headers {
		if h.Key == Header && len(h.Value) > 0 {
			return string(h.Value), true
		}
	}
	return "", false
}
