// Package decoder turns raw EVM logs into typed converter events.
package decoder

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/canopy-network/ammx/pkg/indexer/types"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrUnknownEvent is returned for logs whose topic is not a converter event.
	ErrUnknownEvent = errors.New("unknown event")
	// ErrRemovedLog is returned for logs dropped by a reorg.
	ErrRemovedLog = errors.New("log removed by reorg")
)

type eventDef struct {
	event abi.Event
	kind  types.EventKind
}

// Decoder maps topic0 to the event it identifies.
type Decoder struct {
	events map[common.Hash]eventDef
}

// New returns a decoder for every converter event.
func New() *Decoder {
	d := &Decoder{events: map[common.Hash]eventDef{}}
	for name, kind := range map[string]types.EventKind{
		"NewConverter":     types.KindNewConverter,
		"OwnerUpdate":      types.KindOwnerUpdate,
		"LiquidityAdded":   types.KindLiquidityAdded,
		"LiquidityRemoved": types.KindLiquidityRemoved,
		"Activation":       types.KindActivation,
		// V1 and V2 share a topic; the processor tells them apart by pool type
		"Conversion":   types.KindConversionV1,
		"WithdrawFees": types.KindWithdrawFees,
	} {
		ev := ConverterEventsABI.Events[name]
		d.events[ev.ID] = eventDef{event: ev, kind: kind}
	}
	ev := ProtocolFeeEventsABI.Events["Conversion"]
	d.events[ev.ID] = eventDef{event: ev, kind: types.KindConversionWithProtocolFee}
	return d
}

// Topics returns topic0 of every decodable event, for log filters.
func (d *Decoder) Topics() []common.Hash {
	topics := make([]common.Hash, 0, len(d.events))
	for id := range d.events {
		topics = append(topics, id)
	}
	return topics
}

// Decode decodes the log carried by env.
func (d *Decoder) Decode(env *types.Envelope) (types.Event, error) {
	log := env.Log
	if log.Removed {
		return nil, ErrRemovedLog
	}
	if len(log.Topics) == 0 {
		return nil, ErrUnknownEvent
	}
	def, ok := d.events[log.Topics[0]]
	if !ok {
		return nil, fmt.Errorf("topic %s: %w", log.Topics[0].Hex(), ErrUnknownEvent)
	}

	fields := map[string]interface{}{}
	if err := abi.ParseTopicsIntoMap(fields, indexed(def.event.Inputs), log.Topics[1:]); err != nil {
		return nil, fmt.Errorf("decode %s topics: %w", def.kind, err)
	}
	if err := def.event.Inputs.UnpackIntoMap(fields, log.Data); err != nil {
		return nil, fmt.Errorf("decode %s data: %w", def.kind, err)
	}

	ctx := types.EventContext{
		TxHash:      log.TxHash,
		LogIndex:    log.Index,
		BlockNumber: log.BlockNumber,
		BlockTime:   time.Unix(env.BlockTime, 0).UTC(),
		TxIndex:     env.TxIndex,
		From:        env.TxFrom,
		To:          env.TxTo,
		Emitter:     log.Address,
	}

	f := fieldReader{fields: fields}
	var ev types.Event
	switch def.kind {
	case types.KindNewConverter:
		ev = &types.NewConverter{
			Ctx:           ctx,
			ConverterType: f.uint16("_type"),
			Converter:     f.address("_converter"),
			Owner:         f.address("_owner"),
		}
	case types.KindOwnerUpdate:
		ev = &types.OwnerUpdate{
			Ctx:       ctx,
			PrevOwner: f.address("_prevOwner"),
			NewOwner:  f.address("_newOwner"),
		}
	case types.KindLiquidityAdded, types.KindLiquidityRemoved:
		ev = &types.Liquidity{
			Ctx:          ctx,
			Added:        def.kind == types.KindLiquidityAdded,
			Provider:     f.address("_provider"),
			ReserveToken: f.address("_reserveToken"),
			Amount:       f.bigInt("_amount"),
			NewBalance:   f.bigInt("_newBalance"),
			NewSupply:    f.bigInt("_newSupply"),
		}
	case types.KindActivation:
		ev = &types.Activation{
			Ctx:           ctx,
			ConverterType: f.uint16("_type"),
			Anchor:        f.address("_anchor"),
			Activated:     f.bool("_activated"),
		}
	case types.KindConversionV1, types.KindConversionWithProtocolFee:
		c := &types.Conversion{
			Ctx:           ctx,
			Variant:       def.kind,
			FromToken:     f.address("_fromToken"),
			ToToken:       f.address("_toToken"),
			Trader:        f.address("_trader"),
			Amount:        f.bigInt("_amount"),
			Return:        f.bigInt("_return"),
			ConversionFee: f.bigInt("_conversionFee"),
		}
		if def.kind == types.KindConversionWithProtocolFee {
			c.ProtocolFee = f.bigInt("_protocolFee")
		}
		ev = c
	case types.KindWithdrawFees:
		ev = &types.WithdrawFees{
			Ctx:               ctx,
			Sender:            f.address("sender"),
			Receiver:          f.address("receiver"),
			Token:             f.address("token"),
			ProtocolFeeAmount: f.bigInt("protocolFeeAmount"),
			WrbtcConverted:    f.bigInt("wRBTCConverted"),
		}
	}
	if f.err != nil {
		return nil, fmt.Errorf("decode %s: %w", def.kind, f.err)
	}
	return ev, nil
}

func indexed(args abi.Arguments) abi.Arguments {
	out := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			out = append(out, arg)
		}
	}
	return out
}

// fieldReader type-asserts decoded fields, keeping the first mismatch.
type fieldReader struct {
	fields map[string]interface{}
	err    error
}

func (r *fieldReader) mismatch(name string, v interface{}) {
	if r.err == nil {
		r.err = fmt.Errorf("field %s has type %T", name, v)
	}
}

func (r *fieldReader) address(name string) common.Address {
	v, ok := r.fields[name].(common.Address)
	if !ok {
		r.mismatch(name, r.fields[name])
	}
	return v
}

func (r *fieldReader) bigInt(name string) *big.Int {
	v, ok := r.fields[name].(*big.Int)
	if !ok {
		r.mismatch(name, r.fields[name])
		return new(big.Int)
	}
	return v
}

func (r *fieldReader) uint16(name string) uint16 {
	v, ok := r.fields[name].(uint16)
	if !ok {
		r.mismatch(name, r.fields[name])
	}
	return v
}

func (r *fieldReader) bool(name string) bool {
	v, ok := r.fields[name].(bool)
	if !ok {
		r.mismatch(name, r.fields[name])
	}
	return v
}
