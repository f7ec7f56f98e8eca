package cache

import "encoding/json"

// encodeValue/decodeValue serialize cached values as JSON. Callers that
// need their original concrete type back should store pointers to
// structs and type-assert the map[string]any result back through
// json.Marshal/Unmarshal, or — more simply — call the typed GetTyped
// helper in typed.go.
func encodeValue(v any) ([]byte, error) {
	return json.Marshal(v)
}

func decodeValue(raw []byte) (any, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
