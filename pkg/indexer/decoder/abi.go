package decoder

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// converterEventsJSON holds the factory, converter and pool events. The protocol-fee Conversion
// overload lives in its own ABI because both variants share the name.
const converterEventsJSON = `[
	{"anonymous":false,"name":"NewConverter","type":"event","inputs":[
		{"indexed":true,"name":"_type","type":"uint16"},
		{"indexed":true,"name":"_converter","type":"address"},
		{"indexed":true,"name":"_owner","type":"address"}]},
	{"anonymous":false,"name":"OwnerUpdate","type":"event","inputs":[
		{"indexed":true,"name":"_prevOwner","type":"address"},
		{"indexed":true,"name":"_newOwner","type":"address"}]},
	{"anonymous":false,"name":"LiquidityAdded","type":"event","inputs":[
		{"indexed":true,"name":"_provider","type":"address"},
		{"indexed":true,"name":"_reserveToken","type":"address"},
		{"indexed":false,"name":"_amount","type":"uint256"},
		{"indexed":false,"name":"_newBalance","type":"uint256"},
		{"indexed":false,"name":"_newSupply","type":"uint256"}]},
	{"anonymous":false,"name":"LiquidityRemoved","type":"event","inputs":[
		{"indexed":true,"name":"_provider","type":"address"},
		{"indexed":true,"name":"_reserveToken","type":"address"},
		{"indexed":false,"name":"_amount","type":"uint256"},
		{"indexed":false,"name":"_newBalance","type":"uint256"},
		{"indexed":false,"name":"_newSupply","type":"uint256"}]},
	{"anonymous":false,"name":"Activation","type":"event","inputs":[
		{"indexed":true,"name":"_type","type":"uint16"},
		{"indexed":true,"name":"_anchor","type":"address"},
		{"indexed":true,"name":"_activated","type":"bool"}]},
	{"anonymous":false,"name":"Conversion","type":"event","inputs":[
		{"indexed":true,"name":"_fromToken","type":"address"},
		{"indexed":true,"name":"_toToken","type":"address"},
		{"indexed":true,"name":"_trader","type":"address"},
		{"indexed":false,"name":"_amount","type":"uint256"},
		{"indexed":false,"name":"_return","type":"uint256"},
		{"indexed":false,"name":"_conversionFee","type":"int256"}]},
	{"anonymous":false,"name":"WithdrawFees","type":"event","inputs":[
		{"indexed":true,"name":"sender","type":"address"},
		{"indexed":true,"name":"receiver","type":"address"},
		{"indexed":false,"name":"token","type":"address"},
		{"indexed":false,"name":"protocolFeeAmount","type":"uint256"},
		{"indexed":false,"name":"wRBTCConverted","type":"uint256"}]}
]`

const protocolFeeEventsJSON = `[
	{"anonymous":false,"name":"Conversion","type":"event","inputs":[
		{"indexed":true,"name":"_fromToken","type":"address"},
		{"indexed":true,"name":"_toToken","type":"address"},
		{"indexed":true,"name":"_trader","type":"address"},
		{"indexed":false,"name":"_amount","type":"uint256"},
		{"indexed":false,"name":"_return","type":"uint256"},
		{"indexed":false,"name":"_conversionFee","type":"int256"},
		{"indexed":false,"name":"_protocolFee","type":"int256"}]}
]`

var (
	ConverterEventsABI   = mustParseABI(converterEventsJSON)
	ProtocolFeeEventsABI = mustParseABI(protocolFeeEventsJSON)
)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}
