package controller

import (
	"net/http"
	"strings"

	"github.com/canopy-network/ammx/pkg/db"
	"github.com/canopy-network/ammx/pkg/db/entities"
	"github.com/canopy-network/ammx/pkg/db/models/amm"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// pathID returns the lower-cased path variable, matching how entity ids are stored.
func pathID(r *http.Request, name string) string {
	return strings.ToLower(strings.TrimSpace(mux.Vars(r)[name]))
}

// serveEntity writes the entity of kind with the given id, or 404 when it does not exist.
func serveEntity[T any](c *Controller, w http.ResponseWriter, r *http.Request, entity entities.Entity, id string) {
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing id")
		return
	}

	v, found, err := db.Load[T](r.Context(), c.App.Repository.Begin(), entity, id)
	if err != nil {
		c.App.Logger.Error("Failed to load entity",
			zap.String("entity", entity.String()),
			zap.String("id", id),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, entity.String()+" not found")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandlePool returns a liquidity pool.
// GET /pools/{id}
func (c *Controller) HandlePool(w http.ResponseWriter, r *http.Request) {
	serveEntity[amm.LiquidityPool](c, w, r, entities.LiquidityPools, pathID(r, "id"))
}

// HandleToken returns a token.
// GET /tokens/{id}
func (c *Controller) HandleToken(w http.ResponseWriter, r *http.Request) {
	serveEntity[amm.Token](c, w, r, entities.Tokens, pathID(r, "id"))
}

// HandleUser returns a user.
// GET /users/{id}
func (c *Controller) HandleUser(w http.ResponseWriter, r *http.Request) {
	serveEntity[amm.User](c, w, r, entities.Users, pathID(r, "id"))
}

// HandleUserTotals returns the conversion totals of a user paid out in token.
// GET /users/{id}/totals/{token}
func (c *Controller) HandleUserTotals(w http.ResponseWriter, r *http.Request) {
	user, token := pathID(r, "id"), pathID(r, "token")
	if user == "" || token == "" {
		writeError(w, http.StatusBadRequest, "missing user or token")
		return
	}
	serveEntity[amm.AmmTotals](c, w, r, entities.AmmTotals, amm.ScopedID(user, token))
}

// HandleProtocolStats returns the protocol-wide counters. A fresh deployment answers with zeroes.
// GET /protocol/stats
func (c *Controller) HandleProtocolStats(w http.ResponseWriter, r *http.Request) {
	stats, found, err := db.Load[amm.ProtocolStats](r.Context(), c.App.Repository.Begin(), entities.ProtocolStats, amm.ProtocolStatsID)
	if err != nil {
		c.App.Logger.Error("Failed to load protocol stats", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if !found {
		stats = &amm.ProtocolStats{ID: amm.ProtocolStatsID}
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandleProtocolTotals returns the protocol totals paid out in token.
// GET /protocol/totals/{token}
func (c *Controller) HandleProtocolTotals(w http.ResponseWriter, r *http.Request) {
	token := pathID(r, "token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "missing token")
		return
	}
	serveEntity[amm.AmmTotals](c, w, r, entities.AmmTotals, amm.ScopedID(amm.ProtocolScope, token))
}
