//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	ckafka "github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/britcoin/pkg/clickhouse"
	"github.com/ava-labs/britcoin/pkg/kafka/message"
	"github.com/ava-labs/britcoin/pkg/ledger"
)

func getEnvStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func queryCount(t *testing.T, ctx context.Context, ch clickhouse.Client, query string, args ...interface{}) uint64 {
	t.Helper()
	conn := ch.Conn()
	var cnt uint64
	require.NoError(t, conn.QueryRow(ctx, query, args...).Scan(&cnt))
	return cnt
}

// readAnnouncements consumes block_mined envelopes from topic until want
// records arrived or the timeout elapsed.
func readAnnouncements(t *testing.T, brokers, topic string, want int, timeout time.Duration) []ledger.Record {
	t.Helper()
	consumer, err := ckafka.NewConsumer(&ckafka.ConfigMap{
		"bootstrap.servers": brokers,
		"group.id":          "britcoin-e2e-reader-" + uuid.NewString(),
		"auto.offset.reset": "earliest",
	})
	require.NoError(t, err)
	defer consumer.Close()
	require.NoError(t, consumer.SubscribeTopics([]string{topic}, nil))

	var records []ledger.Record
	deadline := time.Now().Add(timeout)
	for len(records) < want && time.Now().Before(deadline) {
		msg, err := consumer.ReadMessage(500 * time.Millisecond)
		if err != nil {
			continue
		}
		env, err := message.Open(msg.Value)
		require.NoError(t, err)
		require.Equal(t, message.TypeBlockMined, env.Type)

		var rec ledger.Record
		require.NoError(t, json.Unmarshal(env.Data, &rec))
		require.Equal(t, env.ID, rec.Hash)
		records = append(records, rec)
	}
	return records
}
