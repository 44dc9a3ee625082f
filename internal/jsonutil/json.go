//go:build !jsonv2

package jsonutil

import (
	"encoding/json"
	"io"
)

// Marshal encodes v into JSON bytes using encoding/json v1
func Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal decodes JSON bytes into v using encoding/json v1
func Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// Encode streams v as JSON into w
func Encode(w io.Writer, v interface{}) error {
	return json.NewEncoder(w).Encode(v)
}

// Decode reads JSON from r into v
func Decode(r io.Reader, v interface{}) error {
	return json.NewDecoder(r).Decode(v)
}

// RawMessage is an alias for json.RawMessage
type RawMessage = json.RawMessage
