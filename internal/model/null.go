package model

import (
	"bytes"
	"encoding/json"
	"math"
)

// NullFloat is a float64 that may be undefined. The zero value is undefined,
// which keeps "not computable" distinct from a computed 0.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// Null is the undefined value.
var Null = NullFloat{}

// Float returns a defined value. NaN and infinities become Null.
func Float(v float64) NullFloat {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Null
	}
	return NullFloat{Float64: v, Valid: true}
}

// FloatPtr maps a nullable JSON number onto NullFloat.
func FloatPtr(v *float64) NullFloat {
	if v == nil {
		return Null
	}
	return Float(*v)
}

// Get returns the value and whether it is defined.
func (n NullFloat) Get() (float64, bool) { return n.Float64, n.Valid }

func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

func (n *NullFloat) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*n = Null
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Float(v)
	return nil
}
