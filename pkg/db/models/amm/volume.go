package amm

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ProtocolScope is the scope of protocol-wide aggregates; other scopes are pool or user addresses.
const ProtocolScope = "protocol"

// VolumeBucket counts the traded volume of one token within one scope and time bucket.
// CumulativeVolume is the running all-time volume of the scope/token at the last update.
type VolumeBucket struct {
	ID               string          `json:"id"`
	Scope            string          `json:"scope"`
	Token            string          `json:"token"`
	Interval         Interval        `json:"interval"`
	PeriodStartUnix  int64           `json:"period_start_unix"`
	Volume           decimal.Decimal `json:"volume"`
	CumulativeVolume decimal.Decimal `json:"cumulative_volume"`
	SwapCount        uint64          `json:"swap_count"`
}

// VolumeBucketID returns the id of a volume bucket.
func VolumeBucketID(scope, token string, interval Interval, periodStart int64) string {
	return fmt.Sprintf("%s-%s-%s-%d", scope, token, interval, periodStart)
}

// VolumeTotal is the all-time traded volume of a token within a scope.
type VolumeTotal struct {
	ID               string          `json:"id"`
	Scope            string          `json:"scope"`
	Token            string          `json:"token"`
	CumulativeVolume decimal.Decimal `json:"cumulative_volume"`
}
