package amm

import (
	"time"

	"github.com/shopspring/decimal"
)

// NewConverter records a converter created by the factory.
type NewConverter struct {
	ID          string    `json:"id"`
	Type        uint16    `json:"type"`
	Converter   string    `json:"converter"`
	Owner       string    `json:"owner"`
	Transaction string    `json:"transaction"`
	Timestamp   time.Time `json:"timestamp"`
}

// OwnerUpdate records an ownership transfer.
type OwnerUpdate struct {
	ID          string    `json:"id"`
	PrevOwner   string    `json:"prev_owner"`
	NewOwner    string    `json:"new_owner"`
	EmittedBy   string    `json:"emitted_by"`
	Transaction string    `json:"transaction"`
	Timestamp   time.Time `json:"timestamp"`
}

// FeeWithdrawal records a protocol fee withdrawal from a pool.
type FeeWithdrawal struct {
	ID                string          `json:"id"`
	LiquidityPool     string          `json:"liquidity_pool"`
	Token             string          `json:"token"`
	ProtocolFeeAmount decimal.Decimal `json:"protocol_fee_amount"`
	Transaction       string          `json:"transaction"`
	Timestamp         time.Time       `json:"timestamp"`
}
