package clickhouse

import (
	"context"
	"fmt"

	"github.com/canopy-network/ammx/pkg/db/models/amm"
)

// QuerySwapsByPool returns swaps through pool, newest first. A non-zero cursor only returns
// swaps from blocks strictly below it.
func (c *Client) QuerySwapsByPool(ctx context.Context, pool string, cursor uint64, limit int) ([]amm.Swap, error) {
	query := fmt.Sprintf(`SELECT * FROM %s.swaps FINAL WHERE liquidity_pool = ?`, c.Database)
	args := []any{pool}
	if cursor > 0 {
		query += " AND block_number < ?"
		args = append(args, cursor)
	}
	query += " ORDER BY block_number DESC, log_index DESC LIMIT ?"
	args = append(args, limit)

	var swaps []amm.Swap
	if err := c.Select(ctx, &swaps, query, args...); err != nil {
		return nil, fmt.Errorf("query swaps of %s: %w", pool, err)
	}
	return swaps, nil
}
