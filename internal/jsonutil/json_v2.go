//go:build jsonv2

package jsonutil

import (
	"encoding/json/jsontext"
	jsonv2 "encoding/json/v2"
	"io"
)

// Marshal encodes v into JSON bytes using encoding/json v2
func Marshal(v interface{}) ([]byte, error) {
	return jsonv2.Marshal(v)
}

// Unmarshal decodes JSON bytes into v using encoding/json v2
func Unmarshal(data []byte, v interface{}) error {
	return jsonv2.Unmarshal(data, v)
}

// Encode streams v as JSON into w
func Encode(w io.Writer, v interface{}) error {
	return jsonv2.MarshalWrite(w, v)
}

// Decode reads JSON from r into v
func Decode(r io.Reader, v interface{}) error {
	return jsonv2.UnmarshalRead(r, v)
}

// RawMessage is an alias for jsontext.Value
type RawMessage = jsontext.Value
