package clickhouse

import (
	"errors"
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ava-labs/britcoin/pkg/clickhouse/testutils"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, []string{"localhost:9000"}, cfg.Hosts)
	require.Equal(t, "default", cfg.Database)
	require.Equal(t, 2, cfg.MaxOpenConns)
	require.Equal(t, "britcoin", cfg.ClientName)
	require.False(t, cfg.UseTLS)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("CLICKHOUSE_HOSTS", "ch-1:9000,ch-2:9000")
	t.Setenv("CLICKHOUSE_DATABASE", "ledger")
	t.Setenv("CLICKHOUSE_USE_TLS", "true")
	t.Setenv("CLICKHOUSE_DIAL_TIMEOUT", "5")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, []string{"ch-1:9000", "ch-2:9000"}, cfg.Hosts)
	require.Equal(t, "ledger", cfg.Database)
	require.True(t, cfg.UseTLS)
	require.Equal(t, 5, cfg.DialTimeout)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("CLICKHOUSE_MAX_OPEN_CONNS", "many")
	_, err := Load()
	require.Error(t, err)
}

func TestOptions(t *testing.T) {
	t.Parallel()
	cfg := Config{
		Hosts:              []string{"ch:9000"},
		Database:           "ledger",
		Username:           "writer",
		Password:           "secret",
		UseTLS:             true,
		InsecureSkipVerify: true,
		Debug:              true,
		MaxExecutionTime:   30,
		DialTimeout:        3,
		ConnMaxLifetime:    2,
		ClientName:         "britcoin",
		ClientVersion:      "test",
	}
	opts := Options(cfg, zap.NewNop().Sugar())

	require.Equal(t, cfg.Hosts, opts.Addr)
	require.Equal(t, "ledger", opts.Auth.Database)
	require.Equal(t, "writer", opts.Auth.Username)
	require.Equal(t, 3*time.Second, opts.DialTimeout)
	require.Equal(t, 2*time.Minute, opts.ConnMaxLifetime)
	require.Equal(t, 30, opts.Settings[maxExecutionTime])
	require.Equal(t, clickhouse.CompressionLZ4, opts.Compression.Method)
	require.NotNil(t, opts.TLS)
	require.True(t, opts.TLS.InsecureSkipVerify)
	require.True(t, opts.Debug)
	require.NotNil(t, opts.Debugf)
}

func TestOptions_NoTLSNoDebug(t *testing.T) {
	t.Parallel()
	opts := Options(Config{Hosts: []string{"ch:9000"}, Debug: true}, nil)
	require.Nil(t, opts.TLS)
	require.False(t, opts.Debug, "debug needs a logger")
}

func TestTestClient_DelegatesToConn(t *testing.T) {
	t.Parallel()
	conn := &testutils.MockConn{}
	pingErr := errors.New("unreachable")
	conn.On("Ping", mock.Anything).Return(pingErr)
	conn.On("Close").Return(nil)

	c := testutils.NewTestClient(conn)
	require.Same(t, conn, c.Conn())
	require.ErrorIs(t, c.Ping(t.Context()), pingErr)
	require.NoError(t, c.Close())
	conn.AssertExpectations(t)
}
