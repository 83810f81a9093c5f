package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/alumnikeeper/internal/server/models"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{w: w}

	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	e := NewEvent(TypeRegistered, &models.User{ID: "u1", RollNo: "R1", Email: "a@x.com"}, at)

	require.NoError(t, p.Publish(context.Background(), e))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, []byte("u1"), msg.Key)
	assert.Equal(t, []kafka.Header{{Key: "type", Value: []byte(TypeRegistered)}}, msg.Headers)

	var got Event
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, e, got)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := &KafkaPublisher{w: &fakeWriter{err: errors.New("no brokers")}}

	err := p.Publish(context.Background(), Event{Type: TypeDeleted, UserID: "u1"})
	assert.EqualError(t, err, "kafka write: no brokers")
}

func TestNew(t *testing.T) {
	assert.IsType(t, NopPublisher{}, New(nil, "users"))

	p := New([]string{"localhost:9092"}, "users")
	kp, ok := p.(*KafkaPublisher)
	require.True(t, ok)

	w, ok := kp.w.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "users", w.Topic)
	assert.True(t, w.AllowAutoTopicCreation)
	assert.IsType(t, &kafka.LeastBytes{}, w.Balancer)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), Event{}))
	assert.NoError(t, p.Close())
}
