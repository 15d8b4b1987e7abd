package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icpep-backend/internal/logger"
)

type fakeReader struct {
	mu        sync.Mutex
	msgs      chan kafka.Message
	committed []int64
	closed    bool
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	case m := <-f.msgs:
		return m, nil
	}
}

func (f *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error {
	f.closed = true
	return nil
}

func TestConsumerRunCommitsAndStops(t *testing.T) {
	reader := &fakeReader{msgs: make(chan kafka.Message, 3)}
	reader.msgs <- kafka.Message{Offset: 1, Value: []byte(`ok`)}
	reader.msgs <- kafka.Message{Offset: 2, Value: []byte(`bad`)}
	reader.msgs <- kafka.Message{Offset: 3, Value: []byte(`ok`)}

	c := NewConsumerFromReader(reader, "icpep.notifications", logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())

	var handled []string
	done := make(chan error, 1)
	go func() {
		done <- c.Run(ctx, func(ctx context.Context, msg kafka.Message) error {
			handled = append(handled, string(msg.Value))
			if len(handled) == 3 {
				cancel()
			}
			if string(msg.Value) == "bad" {
				return errors.New("cannot decode")
			}
			return nil
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}

	assert.Equal(t, []string{"ok", "bad", "ok"}, handled)
	reader.mu.Lock()
	defer reader.mu.Unlock()
	assert.Len(t, reader.committed, 3)

	require.NoError(t, c.Close())
	assert.True(t, reader.closed)
}
