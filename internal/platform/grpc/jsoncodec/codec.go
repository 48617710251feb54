// Package jsoncodec registers a JSON gRPC codec so services whose messages
// are plain Go structs can be served without generated protobuf code.
//
// Clients select it per call with grpc.CallContentSubtype(jsoncodec.Name);
// protobuf services on the same server (health) keep the default codec.
package jsoncodec

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/mem"
)

// Name is the content subtype negotiated on the wire ("application/grpc+json").
const Name = "json"

// Codec marshals gRPC messages as JSON.
type Codec struct{}

// Marshal encodes v as JSON.
func (Codec) Marshal(v any) (mem.BufferSlice, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json codec marshal %T: %w", v, err)
	}
	return mem.BufferSlice{mem.SliceBuffer(data)}, nil
}

// Unmarshal decodes JSON data into v.
func (Codec) Unmarshal(data mem.BufferSlice, v any) error {
	raw := data.Materialize()
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("json codec unmarshal %T: %w", v, err)
	}
	return nil
}

// Name returns the codec content subtype.
func (Codec) Name() string {
	return Name
}

func init() {
	encoding.RegisterCodecV2(Codec{})
}
