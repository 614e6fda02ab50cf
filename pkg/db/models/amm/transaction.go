package amm

import "time"

// Transaction holds the block context shared by all events emitted in one transaction.
type Transaction struct {
	ID          string    `json:"id"`
	BlockNumber uint64    `json:"block_number"`
	Timestamp   time.Time `json:"timestamp"`
	Index       uint      `json:"index"`
	From        string    `json:"from"`
	To          string    `json:"to,omitempty"`
}
