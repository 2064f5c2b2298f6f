package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// jsonFloat is a float64 that survives JSON when it is not finite. NaN and
// the infinities are written as the strings "NaN", "+Inf" and "-Inf"; every
// other value is a plain JSON number.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}
	return json.Marshal(v)
}

func (f *jsonFloat) UnmarshalJSON(data []byte) error {
	if !bytes.HasPrefix(data, []byte(`"`)) {
		var v float64
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*f = jsonFloat(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "NaN":
		*f = jsonFloat(math.NaN())
	case "+Inf", "Inf":
		*f = jsonFloat(math.Inf(1))
	case "-Inf":
		*f = jsonFloat(math.Inf(-1))
	default:
		return fmt.Errorf("invalid number %q", s)
	}
	return nil
}

type nodeAlias Node

// nodeJSON shadows the float fields of Node with their lossless encoding.
type nodeJSON struct {
	*nodeAlias
	Value    jsonFloat `json:"value"`
	Gradient jsonFloat `json:"gradient"`
}

// MarshalJSON encodes n, writing a non-finite value or gradient as a string.
func (n Node) MarshalJSON() ([]byte, error) {
	alias := nodeAlias(n)
	return json.Marshal(nodeJSON{
		nodeAlias: &alias,
		Value:     jsonFloat(n.Value),
		Gradient:  jsonFloat(n.Gradient),
	})
}

func (n *Node) UnmarshalJSON(data []byte) error {
	aux := nodeJSON{nodeAlias: (*nodeAlias)(n)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	n.Value = float64(aux.Value)
	n.Gradient = float64(aux.Gradient)
	return nil
}
