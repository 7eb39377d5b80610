// Package safecast implements functions to safely cast types to avoid panics
package safecast

import (
	"fmt"
	"math"

	"github.com/spf13/cast"
)

// Uint64ToInt64 safely converts a uint64 to int64 using cast and checks for overflow
func Uint64ToInt64(value uint64) (int64, error) {
	if value > math.MaxInt64 {
		return 0, fmt.Errorf("value %d exceeds int64 range", value)
	}

	return cast.ToInt64E(value)
}

// IntToInt32 safely converts an int to int32 and checks for overflow
func IntToInt32(value int) (int32, error) {
	if value > math.MaxInt32 || value < math.MinInt32 {
		return 0, fmt.Errorf("value %d exceeds int32 range", value)
	}

	return cast.ToInt32E(value)
}
