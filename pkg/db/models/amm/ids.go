// Package amm holds the entity models derived from converter events.
//
// Every entity id is a deterministic lower-case string built from chain data (addresses,
// transaction hash, log index), so replaying an event addresses the same rows.
package amm

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// AddressID returns the canonical id of an on-chain address.
func AddressID(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}

// HashID returns the canonical id of a transaction hash.
func HashID(hash common.Hash) string {
	return strings.ToLower(hash.Hex())
}

// EventID returns the id of an append-only row produced by the log at logIndex of tx.
func EventID(tx common.Hash, logIndex uint) string {
	return fmt.Sprintf("%s-%d", HashID(tx), logIndex)
}

// PoolTokenID returns the id of the pool/reserve-token join row.
func PoolTokenID(pool, reserve string) string {
	return pool + reserve
}

// ScopedID joins a scope (protocol or address) and a token address.
func ScopedID(scope, token string) string {
	return scope + "-" + token
}

// Decimalize converts a raw integer amount to a decimal using the token's decimals.
// The conversion is exact; no rounding happens here.
func Decimalize(raw *big.Int, decimals uint8) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(decimals))
}
