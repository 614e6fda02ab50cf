package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func readArgs(cursor string, block time.Duration) *redis.XReadGroupArgs {
	return &redis.XReadGroupArgs{
		Group:    "indexer",
		Consumer: "c1",
		Streams:  []string{"events", cursor},
		Count:    10,
		Block:    block,
	}
}

func message(id, data string) []redis.XStream {
	return []redis.XStream{{
		Stream:   "events",
		Messages: []redis.XMessage{{ID: id, Values: map[string]interface{}{"data": data}}},
	}}
}

func TestStreamConsumerRedeliversFailedMessage(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	client := NewFromClient(zaptest.NewLogger(t), rdb, 0)

	consumer, err := NewStreamConsumer(client, StreamConsumerConfig{
		Stream:           "events",
		Group:            "indexer",
		Consumer:         "c1",
		Count:            10,
		Block:            time.Second,
		RetryInterval:    time.Millisecond,
		MaxRetryInterval: 5 * time.Millisecond,
		Logger:           zaptest.NewLogger(t),
	})
	require.NoError(t, err)

	mock.ExpectXGroupCreateMkStream("events", "indexer", "0").SetVal("OK")
	mock.ExpectXReadGroup(readArgs("0", -1)).SetVal(nil)
	mock.ExpectXReadGroup(readArgs(">", time.Second)).SetVal(message("1-0", "first"))
	mock.ExpectXReadGroup(readArgs("0", -1)).SetVal(message("1-0", "first"))
	mock.ExpectXAck("events", "indexer", "1-0").SetVal(1)
	mock.ExpectXReadGroup(readArgs("0", -1)).SetVal(nil)
	mock.ExpectXReadGroup(readArgs(">", time.Second)).SetVal(message("2-0", "second"))
	mock.ExpectXAck("events", "indexer", "2-0").SetVal(1)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	var seen []string
	attempts := 0
	err = consumer.Run(ctx, func(_ context.Context, msg Message) error {
		seen = append(seen, string(msg.GetData()))
		if msg.ID == "1-0" {
			attempts++
			if attempts == 1 {
				return errors.New("store unavailable")
			}
		}
		return nil
	})

	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, []string{"first", "first", "second"}, seen)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStreamConsumerValidatesConfig(t *testing.T) {
	rdb, _ := redismock.NewClientMock()
	client := NewFromClient(nil, rdb, 0)

	_, err := NewStreamConsumer(nil, StreamConsumerConfig{Stream: "events"})
	require.Error(t, err)
	_, err = NewStreamConsumer(client, StreamConsumerConfig{})
	require.Error(t, err)
	_, err = NewStreamConsumer(client, StreamConsumerConfig{Stream: "events", Group: "g"})
	require.Error(t, err)
}

func TestMessageGetData(t *testing.T) {
	msg := Message{Values: map[string]interface{}{"data": "payload"}}
	require.Equal(t, []byte("payload"), msg.GetData())

	msg = Message{Values: map[string]interface{}{}}
	require.Nil(t, msg.GetData())
}
