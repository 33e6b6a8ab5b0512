package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	q := NewInMemory(4)
	require.NoError(t, q.Publish(ctx, Message{Type: TypeExport, Body: []byte("job-1")}))

	msgs, err := q.Consume(ctx)
	require.NoError(t, err)

	msg := <-msgs
	assert.Equal(t, TypeExport, msg.Type)
	assert.Equal(t, "job-1", string(msg.Body))
}

func TestInMemoryPublishCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q := NewInMemory(0)
	err := q.Publish(ctx, Message{Type: TypeExport})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSerializeRoundTrip(t *testing.T) {
	msg := deserialize(serialize(Message{Type: TypeExport, Body: []byte("abc|def")}))
	assert.Equal(t, TypeExport, msg.Type)
	assert.Equal(t, "abc|def", string(msg.Body))

	// Untyped payloads survive.
	msg = deserialize("raw")
	assert.Empty(t, msg.Type)
	assert.Equal(t, "raw", string(msg.Body))
}
