package types

import (
	"encoding/json"
	"fmt"
	"math/big"
	"time"
)

// Duration wraps time.Duration with JSON support so proposal files and API
// payloads can carry human-readable delays ("24h", "90m").
type Duration struct {
	time.Duration
}

// NewDuration wraps a time.Duration with a Duration.
func NewDuration(d time.Duration) Duration {
	return Duration{Duration: d}
}

// ParseDuration parses a duration string in the time.Duration format.
func ParseDuration(s string) (Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return Duration{}, err
	}

	return NewDuration(d), nil
}

// MustParseDuration parses a duration string and panics on failure. Intended
// for tests and fixed constants.
func MustParseDuration(s string) Duration {
	d, err := ParseDuration(s)
	if err != nil {
		panic(err)
	}

	return d
}

// BigSeconds returns the duration in whole seconds as a big.Int, the unit the
// timelock contract expects for delays.
func (d Duration) BigSeconds() *big.Int {
	return big.NewInt(int64(d.Duration / time.Second))
}

func (d Duration) String() string {
	return d.Duration.String()
}

// MarshalJSON implements the json.Marshaler interface.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case string:
		var err error
		if d.Duration, err = time.ParseDuration(value); err != nil {
			return err
		}

		return nil
	default:
		return fmt.Errorf("invalid duration type: %T", v)
	}
}
