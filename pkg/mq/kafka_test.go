package mq

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
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

func TestSendMessage(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w)

	err := p.SendMessage(context.Background(), "connectivity.orders", "123", map[string]string{"status": "open"})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "connectivity.orders", w.msgs[0].Topic)
	assert.Equal(t, []byte("123"), w.msgs[0].Key)
	assert.JSONEq(t, `{"status":"open"}`, string(w.msgs[0].Value))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestSendMessageError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := NewProducerWithWriter(w)
	assert.Error(t, p.SendMessage(context.Background(), "t", "k", 1))

	assert.Error(t, p.SendMessage(context.Background(), "t", "k", make(chan int)))
}
