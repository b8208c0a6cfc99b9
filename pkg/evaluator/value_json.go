package evaluator

import (
	"encoding/json"
)

// ValueToJSON marshals a Value to JSON bytes. Procedures have no data
// representation and are rendered as {"proc":{"param":...}}.
func ValueToJSON(v Value) ([]byte, error) {
	return json.Marshal(valueToRaw(v))
}

type procJSON struct {
	Param string `json:"param"`
}

func valueToRaw(v Value) any {
	switch val := v.(type) {
	case Int:
		return val.Value
	case Bool:
		return val.Value
	case Closure:
		return map[string]procJSON{"proc": {Param: val.Param}}
	}
	return nil
}

// ValueToJSONString is a convenience that returns a string.
func ValueToJSONString(v Value) string {
	b, err := ValueToJSON(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
