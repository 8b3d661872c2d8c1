package ws

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Frame is one message rendered for both subprotocols.
type Frame struct {
	Text   []byte
	Binary []byte
}

// For returns the bytes for protocol.
func (f Frame) For(protocol string) []byte {
	if protocol == ProtocolZstd {
		return f.Binary
	}
	return f.Text
}

// Encoder converts downstream messages to wire format (JSON, or Protobuf Struct + Zstd).
type Encoder struct {
	zstdEncoder *zstd.Encoder
}

// NewEncoder creates a new Encoder with Zstd compression.
func NewEncoder() (*Encoder, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	return &Encoder{zstdEncoder: enc}, nil
}

// Encode renders msg for both protocols.
func (e *Encoder) Encode(msg map[string]any) (Frame, error) {
	text, err := json.Marshal(msg)
	if err != nil {
		return Frame{}, fmt.Errorf("marshal json: %w", err)
	}
	binary, err := e.EncodeBinary(msg)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Text: text, Binary: binary}, nil
}

// EncodeBinary converts msg to a Zstd-compressed protobuf Struct.
func (e *Encoder) EncodeBinary(msg map[string]any) ([]byte, error) {
	st, err := structpb.NewStruct(msg)
	if err != nil {
		return nil, fmt.Errorf("build protobuf struct: %w", err)
	}

	pbData, err := proto.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("marshal protobuf: %w", err)
	}

	return e.zstdEncoder.EncodeAll(pbData, nil), nil
}

// Close releases encoder resources.
func (e *Encoder) Close() {
	if e.zstdEncoder != nil {
		e.zstdEncoder.Close()
	}
}

// DecodeBinary reverses EncodeBinary. Clients written in Go can use it to
// read zstd frames.
func DecodeBinary(frame []byte) (map[string]any, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer dec.Close()

	pbData, err := dec.DecodeAll(frame, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress frame: %w", err)
	}

	var st structpb.Struct
	if err := proto.Unmarshal(pbData, &st); err != nil {
		return nil, fmt.Errorf("unmarshal protobuf: %w", err)
	}
	return st.AsMap(), nil
}
