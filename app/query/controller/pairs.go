package controller

import (
	"net/http"
	"strconv"
	"time"

	"github.com/canopy-network/ammx/pkg/db"
	"github.com/canopy-network/ammx/pkg/db/entities"
	"github.com/canopy-network/ammx/pkg/db/models/amm"
	"go.uber.org/zap"
)

const (
	defaultCandles = 100
	maxCandles     = 500
)

type candlesResponse struct {
	BaseToken  string            `json:"base_token"`
	QuoteToken string            `json:"quote_token"`
	Interval   amm.Interval      `json:"interval"`
	From       int64             `json:"from"`
	To         int64             `json:"to"`
	Data       []amm.Candlestick `json:"data"`
}

// HandlePairPrice returns the last traded price of a pair. The pair is matched in either order;
// the price is always base in quote units.
// GET /pairs/{base}/{quote}/price
func (c *Controller) HandlePairPrice(w http.ResponseWriter, r *http.Request) {
	a, b := pathID(r, "base"), pathID(r, "quote")
	if a == "" || b == "" {
		writeError(w, http.StatusBadRequest, "missing pair tokens")
		return
	}
	serveEntity[amm.PairPrice](c, w, r, entities.PairPrices, amm.PairID(a, b))
}

// HandleCandles returns the candlesticks of a pair in [from, to], oldest first. Empty buckets
// are omitted. Ranges wider than maxCandles buckets keep the most recent ones.
// GET /pairs/{base}/{quote}/candles/{interval}?from=<unix>&to=<unix>
func (c *Controller) HandleCandles(w http.ResponseWriter, r *http.Request) {
	interval, err := amm.ParseInterval(pathID(r, "interval"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	base, quote := amm.PairKey(pathID(r, "base"), pathID(r, "quote"))
	if base == "" || quote == "" {
		writeError(w, http.StatusBadRequest, "missing pair tokens")
		return
	}

	width := interval.Seconds()
	qs := r.URL.Query()

	to := time.Now().Unix()
	if v := qs.Get("to"); v != "" {
		if to, err = strconv.ParseInt(v, 10, 64); err != nil {
			writeError(w, http.StatusBadRequest, "invalid to")
			return
		}
	}
	end := interval.BucketStart(time.Unix(to, 0))

	start := end - (defaultCandles-1)*width
	if v := qs.Get("from"); v != "" {
		from, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from")
			return
		}
		start = interval.BucketStart(time.Unix(from, 0))
	}
	if start > end {
		writeError(w, http.StatusBadRequest, "from must not be after to")
		return
	}
	if (end-start)/width+1 > maxCandles {
		start = end - (maxCandles-1)*width
	}

	session := c.App.Repository.Begin()
	candles := make([]amm.Candlestick, 0)
	for ts := start; ts <= end; ts += width {
		id := amm.CandlestickID(base, quote, interval, ts)
		candle, found, err := db.Load[amm.Candlestick](r.Context(), session, entities.Candlesticks, id)
		if err != nil {
			c.App.Logger.Error("Failed to load candlestick", zap.String("id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "query failed")
			return
		}
		if found {
			candles = append(candles, *candle)
		}
	}

	writeJSON(w, http.StatusOK, candlesResponse{
		BaseToken:  base,
		QuoteToken: quote,
		Interval:   interval,
		From:       start,
		To:         end,
		Data:       candles,
	})
}
