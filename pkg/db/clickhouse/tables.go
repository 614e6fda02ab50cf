package clickhouse

import (
	"context"
	"fmt"

	"github.com/canopy-network/ammx/pkg/db/entities"
	"github.com/canopy-network/ammx/pkg/db/models/amm"
	"go.uber.org/zap"
)

// table describes one mirrored entity kind.
type table struct {
	entity     entities.Entity
	columns    []amm.ColumnDef
	engine     string
	versionCol string
	orderBy    string
	partition  string
}

var mirroredTables = []table{
	{
		entity:    entities.Swaps,
		columns:   amm.SwapColumns,
		engine:    ReplacingMergeTree,
		orderBy:   "(liquidity_pool, block_number, log_index, id)",
		partition: "toYYYYMM(timestamp)",
	},
	{
		entity:    entities.Conversions,
		columns:   amm.ConversionColumns,
		engine:    ReplacingMergeTree,
		orderBy:   "(emitted_by, block_number, id)",
		partition: "toYYYYMM(timestamp)",
	},
	{
		entity:    entities.UserLiquidityHistory,
		columns:   amm.UserLiquidityHistoryColumns,
		engine:    ReplacingMergeTree,
		orderBy:   "(user, timestamp, id)",
		partition: "toYYYYMM(timestamp)",
	},
	{
		entity:     entities.Candlesticks,
		columns:    amm.CandlestickColumns,
		engine:     ReplacingMergeTree,
		versionCol: "tx_count",
		orderBy:    "(base_token, quote_token, interval, period_start_unix)",
	},
}

func (t table) createSQL(c *Client) string {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s %s (
			%s
		) ENGINE = %s`,
		c.Database, t.entity.TableName(), c.OnCluster(),
		amm.ColumnsToSchemaSQL(t.columns),
		c.Engine(t.engine, t.versionCol))
	if t.partition != "" {
		query += " PARTITION BY " + t.partition
	}
	return query + " ORDER BY " + t.orderBy
}

// InitTables creates every mirrored table.
func (c *Client) InitTables(ctx context.Context) error {
	for _, t := range mirroredTables {
		if err := c.Exec(ctx, t.createSQL(c)); err != nil {
			return fmt.Errorf("create table %s: %w", t.entity.TableName(), err)
		}
		c.Logger.Debug("Table ready", zap.String("table", t.entity.TableName()))
	}
	return nil
}
