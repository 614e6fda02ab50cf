package controller

import (
	"net/http"

	"github.com/canopy-network/ammx/pkg/db/entities"
	"github.com/canopy-network/ammx/pkg/db/models/amm"
)

func (c *Controller) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, _, err := c.App.Store.Get(ctx, entities.ProtocolStats, amm.ProtocolStatsID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "errored", "error": "store connection error"})
		return
	}

	if c.App.RedisClient != nil {
		if err := c.App.RedisClient.Health(ctx); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "errored", "error": "redis connection error"})
			return
		}
	}

	status := map[string]any{
		"status":     "ok",
		"clickhouse": c.App.Swaps != nil,
		"backfill":   c.App.Backfill != nil,
	}
	if c.App.TemporalClient != nil {
		if h, err := c.App.TemporalClient.Health(ctx); err == nil {
			status["temporal"] = h
		}
	}
	writeJSON(w, http.StatusOK, status)
}
