// Package timeseries provides windowing and chart-series helpers for
// dated quantity entries.
package timeseries

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Quantity is a numeric amount that tolerates both JSON numbers and
// numeric strings on the wire. Mobile clients historically sent
// quantities as strings, so both forms must decode.
type Quantity string

// UnmarshalJSON accepts `3`, `3.5`, `"3"` and `"3.5"`.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*q = Quantity(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*q = Quantity(n.String())
	return nil
}

// MarshalJSON always emits a JSON number when the value parses, falling
// back to the raw string otherwise.
func (q Quantity) MarshalJSON() ([]byte, error) {
	if f, err := q.Float64(); err == nil {
		return json.Marshal(f)
	}
	return json.Marshal(string(q))
}

// Float64 parses the quantity. Returns an error for empty or
// non-numeric values.
func (q Quantity) Float64() (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(string(q)), 64)
}

// QuantityOf builds a Quantity from a float value.
func QuantityOf(v float64) Quantity {
	return Quantity(strconv.FormatFloat(v, 'f', -1, 64))
}
