package worker

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Encode serializes a message for the worker boundary.
// Field names follow the json tags so frames and JSON payloads share one schema.
func Encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	enc.UseCompactInts(true)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode worker message: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode deserializes a worker frame into v
func Decode(frame []byte, v interface{}) error {
	dec := msgpack.NewDecoder(bytes.NewReader(frame))
	dec.SetCustomStructTag("json")
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to decode worker message: %w", err)
	}
	return nil
}
