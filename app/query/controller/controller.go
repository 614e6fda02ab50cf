package controller

import (
	"net/http"

	"github.com/canopy-network/ammx/app/query/types"
	"github.com/go-jose/go-jose/v4/json"
	"github.com/gorilla/mux"
)

type Controller struct {
	App *types.App
}

// NewController returns a new controller.
func NewController(app *types.App) *Controller {
	return &Controller{
		App: app,
	}
}

// NewRouter returns a new router with all the routes defined in this file.
func (c *Controller) NewRouter() (*mux.Router, error) {
	r := mux.NewRouter()

	r.Handle("/health", http.HandlerFunc(c.HandleHealth)).Methods(http.MethodGet)

	r.HandleFunc("/pools/{id}", c.HandlePool).Methods(http.MethodGet)
	r.HandleFunc("/pools/{id}/swaps", c.HandlePoolSwaps).Methods(http.MethodGet)
	r.HandleFunc("/tokens/{id}", c.HandleToken).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}", c.HandleUser).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}/totals/{token}", c.HandleUserTotals).Methods(http.MethodGet)
	r.HandleFunc("/protocol/stats", c.HandleProtocolStats).Methods(http.MethodGet)
	r.HandleFunc("/protocol/totals/{token}", c.HandleProtocolTotals).Methods(http.MethodGet)
	r.HandleFunc("/pairs/{base}/{quote}/price", c.HandlePairPrice).Methods(http.MethodGet)
	r.HandleFunc("/pairs/{base}/{quote}/candles/{interval}", c.HandleCandles).Methods(http.MethodGet)

	r.HandleFunc("/ws", c.HandleWebSocket).Methods(http.MethodGet)

	r.Handle("/admin/backfill", c.RequireAuth(http.HandlerFunc(c.HandleBackfill))).Methods(http.MethodPost)

	return r, nil
}

// WithCORS is a middleware that adds CORS headers to the response.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", http.MethodGet+", "+http.MethodPost+", "+http.MethodOptions)

		// Fast-path the preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type pagedResponse[T any] struct {
	Data       []T     `json:"data"`
	Limit      int     `json:"limit"`
	NextCursor *uint64 `json:"next_cursor,omitempty"`
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
