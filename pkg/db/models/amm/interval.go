package amm

import (
	"fmt"
	"time"
)

// Interval is the width of a time bucket.
type Interval string

const (
	IntervalMinute         Interval = "1m"
	IntervalFifteenMinutes Interval = "15m"
	IntervalHour           Interval = "1h"
	IntervalFourHours      Interval = "4h"
	IntervalDay            Interval = "1d"
)

var intervalSeconds = map[Interval]int64{
	IntervalMinute:         60,
	IntervalFifteenMinutes: 15 * 60,
	IntervalHour:           60 * 60,
	IntervalFourHours:      4 * 60 * 60,
	IntervalDay:            24 * 60 * 60,
}

// CandleIntervals are the intervals every swap updates a candlestick for.
var CandleIntervals = []Interval{
	IntervalMinute,
	IntervalFifteenMinutes,
	IntervalHour,
	IntervalFourHours,
	IntervalDay,
}

// VolumeIntervals are the intervals volume buckets are kept for.
var VolumeIntervals = []Interval{
	IntervalHour,
	IntervalDay,
}

// ParseInterval validates an interval string.
func ParseInterval(s string) (Interval, error) {
	i := Interval(s)
	if _, ok := intervalSeconds[i]; !ok {
		return "", fmt.Errorf("unknown interval %q", s)
	}
	return i, nil
}

// Seconds returns the interval width. Unknown intervals return 0.
func (i Interval) Seconds() int64 {
	return intervalSeconds[i]
}

// BucketStart returns the unix start of the bucket containing t. Buckets are aligned to the
// unix epoch, so daily buckets start at 00:00 UTC.
func (i Interval) BucketStart(t time.Time) int64 {
	width := i.Seconds()
	if width == 0 {
		return t.Unix()
	}
	ts := t.Unix()
	return ts - ts%width
}
