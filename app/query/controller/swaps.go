package controller

import (
	"net/http"

	"github.com/canopy-network/ammx/pkg/db/models/amm"
	"go.uber.org/zap"
)

// HandlePoolSwaps returns the swaps of a pool, newest first, paged by block number.
// GET /pools/{id}/swaps?cursor=<block>&limit=<n>
func (c *Controller) HandlePoolSwaps(w http.ResponseWriter, r *http.Request) {
	if c.App.Swaps == nil {
		writeError(w, http.StatusServiceUnavailable, "swap history not available (clickhouse disabled)")
		return
	}

	pool := pathID(r, "id")
	if pool == "" {
		writeError(w, http.StatusBadRequest, "missing pool id")
		return
	}

	page, err := parsePageSpec(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Query with limit+1 to detect if there are more pages
	rows, err := c.App.Swaps.QuerySwapsByPool(r.Context(), pool, page.Cursor, page.Limit+1)
	if err != nil {
		c.App.Logger.Error("Failed to query swaps", zap.String("pool", pool), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	// The cursor excludes its block, so a block split across pages moves whole to the next page.
	// When one block fills the page the rest of that block is skipped.
	nextCursor := (*uint64)(nil)
	if len(rows) > page.Limit {
		split := rows[page.Limit].BlockNumber
		rows = rows[:page.Limit]
		kept := rows
		for len(kept) > 0 && kept[len(kept)-1].BlockNumber == split {
			kept = kept[:len(kept)-1]
		}
		cursor := split
		if len(kept) > 0 {
			rows = kept
			cursor = split + 1
		}
		nextCursor = &cursor
	}

	if rows == nil {
		rows = []amm.Swap{}
	}
	writeJSON(w, http.StatusOK, pagedResponse[amm.Swap]{
		Data:       rows,
		Limit:      page.Limit,
		NextCursor: nextCursor,
	})
}
