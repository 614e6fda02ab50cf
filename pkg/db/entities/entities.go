// Package entities provides type-safe names for every entity kind the indexer persists.
//
// The same name is used as the key namespace in the KV store, as the ClickHouse table name for
// mirrored kinds and in logs. Adding a kind means adding a constant and listing it in allEntities.
//
// Kinds are either mutable (load, mutate, save) or append-only (created once, never rewritten).
// The distinction is enforced by the repository layer: append-only kinds may only be written with
// a create-only write.
package entities

import (
	"fmt"
	"sort"
	"strings"
)

// Entity is a persisted entity kind.
type Entity string

const (
	// Tokens are ERC20 tokens seen as reserves or anchors. Mutable only at creation.
	Tokens Entity = "tokens"

	// SmartTokens are pool anchors (share tokens).
	SmartTokens Entity = "smart_tokens"

	// LiquidityPools are converter contracts keyed by address.
	LiquidityPools Entity = "liquidity_pools"

	// LiquidityPoolTokens join a pool to one of its reserve tokens.
	LiquidityPoolTokens Entity = "liquidity_pool_tokens"

	// Transactions hold block context shared by all events of a transaction.
	Transactions Entity = "transactions"

	// Users are traders and liquidity providers.
	Users Entity = "users"

	// PairPrices hold the last traded price per token pair.
	PairPrices Entity = "pair_prices"

	// Candlesticks are OHLC buckets per pair and interval.
	Candlesticks Entity = "candlesticks"

	// VolumeBuckets are periodic volume counters per scope, token and interval.
	VolumeBuckets Entity = "volume_buckets"

	// VolumeTotals are running cumulative volume per scope and token.
	VolumeTotals Entity = "volume_totals"

	// AmmTotals are protocol or user running totals per token.
	AmmTotals Entity = "amm_totals"

	// ProtocolStats is the protocol-wide singleton.
	ProtocolStats Entity = "protocol_stats"

	// Swaps are one row per conversion. Append-only.
	Swaps Entity = "swaps"

	// Conversions are the raw conversion events. Append-only.
	Conversions Entity = "conversions"

	// UserLiquidityHistory rows record add/remove liquidity actions. Append-only.
	UserLiquidityHistory Entity = "user_liquidity_history"

	// NewConverters are factory NewConverter events. Append-only.
	NewConverters Entity = "new_converters"

	// OwnerUpdates are OwnerUpdate events. Append-only.
	OwnerUpdates Entity = "owner_updates"

	// FeeWithdrawals are WithdrawFees events. Append-only.
	FeeWithdrawals Entity = "fee_withdrawals"
)

// allEntities contains the complete list of all valid entities in the system.
//
// IMPORTANT: When adding a new entity constant above, you MUST also add it to this slice.
var allEntities = []Entity{
	Tokens,
	SmartTokens,
	LiquidityPools,
	LiquidityPoolTokens,
	Transactions,
	Users,
	PairPrices,
	Candlesticks,
	VolumeBuckets,
	VolumeTotals,
	AmmTotals,
	ProtocolStats,
	Swaps,
	Conversions,
	UserLiquidityHistory,
	NewConverters,
	OwnerUpdates,
	FeeWithdrawals,
}

var appendOnly = map[Entity]bool{
	Swaps:                true,
	Conversions:          true,
	UserLiquidityHistory: true,
	NewConverters:        true,
	OwnerUpdates:         true,
	FeeWithdrawals:       true,
}

// entitySet is a pre-computed map for O(1) validation lookups.
var entitySet map[Entity]bool

func init() {
	entitySet = make(map[Entity]bool, len(allEntities))
	for _, e := range allEntities {
		entitySet[e] = true
	}

	// Catch developer errors at startup rather than at the first write.
	for _, e := range allEntities {
		if e == "" {
			panic("entities: empty entity name detected in allEntities")
		}
		if strings.ContainsAny(string(e), ": ") {
			panic(fmt.Sprintf("entities: entity name %q contains a key separator or whitespace", e))
		}
	}
	for e := range appendOnly {
		if !entitySet[e] {
			panic(fmt.Sprintf("entities: append-only entity %q missing from allEntities", e))
		}
	}
}

// String returns the entity name.
func (e Entity) String() string {
	return string(e)
}

// TableName returns the ClickHouse table name for mirrored kinds.
func (e Entity) TableName() string {
	return string(e)
}

// Key returns the storage key of the entity with the given id under prefix.
//
//	entities.Swaps.Key("ammx", "0xabc-1") // "ammx:swaps:0xabc-1"
func (e Entity) Key(prefix, id string) string {
	if prefix == "" {
		return string(e) + ":" + id
	}
	return prefix + ":" + string(e) + ":" + id
}

// AppendOnly reports whether rows of this kind are never rewritten after creation.
func (e Entity) AppendOnly() bool {
	return appendOnly[e]
}

// IsValid returns true if this entity is in the list of known entities.
func (e Entity) IsValid() bool {
	return entitySet[e]
}

// MarshalText implements encoding.TextMarshaler.
func (e Entity) MarshalText() ([]byte, error) {
	return []byte(e), nil
}

// UnmarshalText implements encoding.TextUnmarshaler and rejects unknown kinds.
func (e *Entity) UnmarshalText(text []byte) error {
	entity := Entity(text)
	if !entity.IsValid() {
		return fmt.Errorf("invalid entity: %q", text)
	}
	*e = entity
	return nil
}

// FromString converts a string to an Entity and validates it.
func FromString(s string) (Entity, error) {
	entity := Entity(s)
	if !entity.IsValid() {
		return "", fmt.Errorf("unknown entity %q, valid entities: %s", s, validEntitiesString())
	}
	return entity, nil
}

// All returns a copy of all valid entities.
func All() []Entity {
	result := make([]Entity, len(allEntities))
	copy(result, allEntities)
	return result
}

// AllStrings returns all entity names as strings.
func AllStrings() []string {
	result := make([]string, len(allEntities))
	for i, e := range allEntities {
		result[i] = e.String()
	}
	return result
}

// Count returns the number of entities in the system.
func Count() int {
	return len(allEntities)
}

func validEntitiesString() string {
	names := AllStrings()
	sort.Strings(names)
	return strings.Join(names, ", ")
}
