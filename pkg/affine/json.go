package affine

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON encodes t as its 16 row-major values.
func (t Transform) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Array())
}

// UnmarshalJSON decodes 16 row-major values.
func (t *Transform) UnmarshalJSON(data []byte) error {
	var vals []float64
	if err := json.Unmarshal(data, &vals); err != nil {
		return fmt.Errorf("decode transform: %w", err)
	}
	if len(vals) != 16 {
		return fmt.Errorf("decode transform: want 16 values, got %d", len(vals))
	}
	*t = FromArray([16]float64(vals))
	return nil
}
