package clickhouse

import (
	"os"
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/stretchr/testify/assert"
)

func TestGetPoolConfigForComponent(t *testing.T) {
	tests := []struct {
		name      string
		component string
		wantOpen  int
		wantIdle  int
	}{
		{name: "indexer", component: "indexer", wantOpen: 4, wantIdle: 2},
		{name: "query", component: "query", wantOpen: 20, wantIdle: 5},
		{name: "unknown_component_uses_defaults", component: "unknown", wantOpen: 10, wantIdle: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := GetPoolConfigForComponent(tt.component)
			assert.Equal(t, tt.wantOpen, config.MaxOpenConns, "MaxOpenConns mismatch")
			assert.Equal(t, tt.wantIdle, config.MaxIdleConns, "MaxIdleConns mismatch")
			assert.Equal(t, 5*time.Minute, config.ConnMaxLifetime, "ConnMaxLifetime mismatch")
			assert.Equal(t, tt.component, config.Component, "Component name mismatch")
		})
	}
}

func TestGetPoolConfigForComponent_EnforcesMaxIdleLEMaxOpen(t *testing.T) {
	os.Setenv("CLICKHOUSE_MAX_OPEN_CONNS", "5")
	os.Setenv("CLICKHOUSE_MAX_IDLE_CONNS", "10")
	defer func() {
		os.Unsetenv("CLICKHOUSE_MAX_OPEN_CONNS")
		os.Unsetenv("CLICKHOUSE_MAX_IDLE_CONNS")
	}()

	config := GetPoolConfigForComponent("")
	assert.Equal(t, 5, config.MaxOpenConns)
	assert.Equal(t, 5, config.MaxIdleConns, "MaxIdleConns should be capped at MaxOpenConns")
}

func TestExtractReplicasAndCredentials(t *testing.T) {
	assert.Equal(t, []string{"localhost:9000"}, extractReplicas("clickhouse://localhost:9000"))
	assert.Equal(t, []string{"h1:9000", "h2:9000"}, extractReplicas("clickhouse://u:p@h1:9000, h2:9000/db?x=1"))
	assert.Equal(t, []string{"localhost:9000"}, extractReplicas("clickhouse://"))

	user, pass := extractCredentials("clickhouse://alice:s3cret@h1:9000/db")
	assert.Equal(t, "alice", user)
	assert.Equal(t, "s3cret", pass)

	user, pass = extractCredentials("tcp://h1:9000")
	assert.Equal(t, "default", user)
	assert.Empty(t, pass)
}

func TestEngineAndCluster(t *testing.T) {
	single := &Client{Database: "ammx"}
	assert.Equal(t, "ReplacingMergeTree(tx_count)", single.Engine(ReplacingMergeTree, "tx_count"))
	assert.Equal(t, "MergeTree()", single.Engine(MergeTree, ""))
	assert.Empty(t, single.OnCluster())

	clustered := &Client{Database: "ammx", Cluster: "main"}
	assert.Equal(t, "ReplicatedReplacingMergeTree()", clustered.Engine(ReplacingMergeTree, ""))
	assert.Equal(t, "ON CLUSTER main", clustered.OnCluster())
}

func TestParseConnOpenStrategy(t *testing.T) {
	assert.Equal(t, clickhouse.ConnOpenRoundRobin, parseConnOpenStrategy("round_robin"))
	assert.Equal(t, clickhouse.ConnOpenRandom, parseConnOpenStrategy(" Random "))
	assert.Equal(t, clickhouse.ConnOpenInOrder, parseConnOpenStrategy("bogus"))
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "ammx_mainnet_v2", SanitizeName("AMMX-mainnet.v2"))
}

func TestCreateTableSQL(t *testing.T) {
	c := &Client{Database: "ammx"}
	for _, tbl := range mirroredTables {
		q := tbl.createSQL(c)
		assert.Contains(t, q, "CREATE TABLE IF NOT EXISTS ammx."+tbl.entity.TableName())
		assert.Contains(t, q, "ORDER BY "+tbl.orderBy)
	}
}
