// Package types defines the converter events consumed by the processor and the envelope they
// travel in.
package types

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
)

// EventKind selects the handler of an event.
type EventKind string

const (
	KindNewConverter              EventKind = "NewConverter"
	KindOwnerUpdate               EventKind = "OwnerUpdate"
	KindLiquidityAdded            EventKind = "LiquidityAdded"
	KindLiquidityRemoved          EventKind = "LiquidityRemoved"
	KindActivation                EventKind = "Activation"
	KindConversionV1              EventKind = "ConversionV1"
	KindConversionV2              EventKind = "ConversionV2"
	KindConversionWithProtocolFee EventKind = "ConversionWithProtocolFee"
	KindWithdrawFees              EventKind = "WithdrawFees"
)

// Envelope carries one log and the block/transaction context the log itself lacks.
type Envelope struct {
	Log       ethtypes.Log    `json:"log"`
	BlockTime int64           `json:"blockTime"`
	TxFrom    common.Address  `json:"txFrom"`
	TxTo      *common.Address `json:"txTo,omitempty"`
	TxIndex   uint            `json:"txIndex"`
}

// EventContext is the chain position and transaction of an event.
type EventContext struct {
	TxHash      common.Hash
	LogIndex    uint
	BlockNumber uint64
	BlockTime   time.Time
	TxIndex     uint
	From        common.Address
	To          *common.Address
	// Emitter is the contract that emitted the log.
	Emitter common.Address
}

// Event is a decoded converter event.
type Event interface {
	Kind() EventKind
	Context() EventContext
}

// NewConverter is emitted by the converter factory.
type NewConverter struct {
	Ctx           EventContext
	ConverterType uint16
	Converter     common.Address
	Owner         common.Address
}

func (e *NewConverter) Kind() EventKind       { return KindNewConverter }
func (e *NewConverter) Context() EventContext { return e.Ctx }

// OwnerUpdate is emitted by an owned contract when ownership moves.
type OwnerUpdate struct {
	Ctx       EventContext
	PrevOwner common.Address
	NewOwner  common.Address
}

func (e *OwnerUpdate) Kind() EventKind       { return KindOwnerUpdate }
func (e *OwnerUpdate) Context() EventContext { return e.Ctx }

// Liquidity is a LiquidityAdded or LiquidityRemoved event.
type Liquidity struct {
	Ctx          EventContext
	Added        bool
	Provider     common.Address
	ReserveToken common.Address
	Amount       *big.Int
	NewBalance   *big.Int
	NewSupply    *big.Int
}

func (e *Liquidity) Kind() EventKind {
	if e.Added {
		return KindLiquidityAdded
	}
	return KindLiquidityRemoved
}
func (e *Liquidity) Context() EventContext { return e.Ctx }

// Activation toggles a pool.
type Activation struct {
	Ctx           EventContext
	ConverterType uint16
	Anchor        common.Address
	Activated     bool
}

func (e *Activation) Kind() EventKind       { return KindActivation }
func (e *Activation) Context() EventContext { return e.Ctx }

// Conversion is one of the three conversion wire variants. ProtocolFee is nil for the variants
// that do not carry one.
type Conversion struct {
	Ctx           EventContext
	Variant       EventKind
	FromToken     common.Address
	ToToken       common.Address
	Trader        common.Address
	Amount        *big.Int
	Return        *big.Int
	ConversionFee *big.Int
	ProtocolFee   *big.Int
}

func (e *Conversion) Kind() EventKind       { return e.Variant }
func (e *Conversion) Context() EventContext { return e.Ctx }

// WithdrawFees is emitted when accumulated protocol fees leave a pool.
type WithdrawFees struct {
	Ctx               EventContext
	Sender            common.Address
	Receiver          common.Address
	Token             common.Address
	ProtocolFeeAmount *big.Int
	WrbtcConverted    *big.Int
}

func (e *WithdrawFees) Kind() EventKind       { return KindWithdrawFees }
func (e *WithdrawFees) Context() EventContext { return e.Ctx }

// ConversionEvent is the canonical, decimalized form of every conversion variant.
type ConversionEvent struct {
	Transaction   string
	TxHash        common.Hash
	LogIndex      uint
	BlockNumber   uint64
	Timestamp     time.Time
	LiquidityPool string
	FromToken     string
	ToToken       string
	FromAmount    decimal.Decimal
	ToAmount      decimal.Decimal
	Trader        string
	// User is the transaction sender, which differs from Trader when a router converts.
	User          string
	ConversionFee decimal.Decimal
	ProtocolFee   decimal.Decimal
}
