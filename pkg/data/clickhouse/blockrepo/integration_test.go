//go:build integration
// +build integration

package blockrepo

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ava-labs/britcoin/pkg/clickhouse"
	"github.com/ava-labs/britcoin/pkg/ledger"
)

const clickhouseImage = "clickhouse/clickhouse-server:24.8"

var testClient clickhouse.Client

// loadTestEnv loads the optional .env.test next to this file.
func loadTestEnv() error {
	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		return nil
	}
	return godotenv.Load(filepath.Join(filepath.Dir(currentFile), ".env.test"))
}

// TestMain connects to CLICKHOUSE_HOSTS when it is set and otherwise starts a
// throwaway ClickHouse container.
func TestMain(m *testing.M) {
	ctx := context.Background()
	if err := loadTestEnv(); err != nil {
		log.Printf("integration: could not load .env.test: %v (using defaults)", err)
	}

	var container testcontainers.Container
	if os.Getenv("CLICKHOUSE_HOSTS") == "" {
		c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        clickhouseImage,
				ExposedPorts: []string{"9000/tcp", "8123/tcp"},
				Env: map[string]string{
					"CLICKHOUSE_SKIP_USER_SETUP": "1",
				},
				WaitingFor: wait.ForHTTP("/ping").WithPort("8123/tcp").WithStartupTimeout(time.Minute),
			},
			Started: true,
		})
		if err != nil {
			log.Fatalf("integration: failed to start ClickHouse: %v", err)
		}
		container = c

		host, err := c.Host(ctx)
		if err != nil {
			log.Fatalf("integration: failed to get container host: %v", err)
		}
		port, err := c.MappedPort(ctx, "9000/tcp")
		if err != nil {
			log.Fatalf("integration: failed to get mapped port: %v", err)
		}
		os.Setenv("CLICKHOUSE_HOSTS", host+":"+port.Port())
	}

	cfg, err := clickhouse.Load()
	if err != nil {
		log.Fatalf("integration: %v", err)
	}
	cfg.DialTimeout = 5

	testClient, err = clickhouse.New(cfg, zap.NewNop().Sugar())
	if err != nil {
		log.Fatalf("integration: %v", err)
	}

	code := m.Run()

	_ = testClient.Close()
	if container != nil {
		_ = container.Terminate(ctx)
	}
	os.Exit(code)
}

func TestIntegration_ChainSurvivesReload(t *testing.T) {
	ctx := t.Context()
	repo, err := NewRepository(ctx, testClient, "default", "britcoin_blocks_it")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.DropTable(context.Background()) })

	log := zaptest.NewLogger(t).Sugar()
	first := ledger.NewChain(repo, ledger.ProofOfWork{}, log)
	require.NoError(t, first.Initialize(ctx))
	for _, who := range []string{"alice", "bob", "alice"} {
		ok, err := first.Mine(ctx, who, "hi "+who)
		require.NoError(t, err)
		require.True(t, ok)
	}

	second := ledger.NewChain(repo, ledger.ProofOfWork{}, log)
	require.NoError(t, second.Initialize(ctx))

	want, got := first.Blocks(), second.Blocks()
	require.Len(t, got, len(want))
	for i := range want {
		require.Equal(t, want[i].Hash(), got[i].Hash())
		require.True(t, want[i].Timestamp().Equal(got[i].Timestamp()))
	}
	require.NoError(t, ledger.Verify(got), "nanosecond timestamps must survive the round trip")
	require.Equal(t, map[string]int64{"alice": 2, "bob": 1}, ledger.Balances(got))
}
