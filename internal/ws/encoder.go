package ws

import (
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/zstd"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Negotiated subprotocols.
const (
	ProtocolJSON     = "json.greekslab.v1"
	ProtocolProtobuf = "protobuf.greekslab.v1"
)

// Codec converts messages to and from one subprotocol's wire format.
type Codec interface {
	Protocol() string
	MessageType() int
	Encode(ServerMessage) ([]byte, error)
	Decode([]byte) (ClientMessage, error)
}

type jsonCodec struct{}

func (jsonCodec) Protocol() string { return ProtocolJSON }

func (jsonCodec) MessageType() int { return websocket.TextMessage }

func (jsonCodec) Encode(m ServerMessage) ([]byte, error) {
	return json.Marshal(m)
}

func (jsonCodec) Decode(data []byte) (ClientMessage, error) {
	var m ClientMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return ClientMessage{}, fmt.Errorf("unmarshal json message: %w", err)
	}
	return m, nil
}

// ProtobufCodec frames messages as a google.protobuf.Struct compressed with Zstd.
type ProtobufCodec struct {
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
}

// NewProtobufCodec creates a codec with Zstd compression.
func NewProtobufCodec() (*ProtobufCodec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxMessageSize*8))
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &ProtobufCodec{zstdEncoder: enc, zstdDecoder: dec}, nil
}

func (*ProtobufCodec) Protocol() string { return ProtocolProtobuf }

func (*ProtobufCodec) MessageType() int { return websocket.BinaryMessage }

// Encode converts the message to a Struct, serializes it and compresses it.
func (c *ProtobufCodec) Encode(m ServerMessage) ([]byte, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}
	return c.EncodeJSON(raw)
}

// EncodeJSON wraps an arbitrary JSON object in the protobuf frame.
func (c *ProtobufCodec) EncodeJSON(raw []byte) ([]byte, error) {
	var st structpb.Struct
	if err := protojson.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("convert to struct: %w", err)
	}

	pbData, err := proto.Marshal(&st)
	if err != nil {
		return nil, fmt.Errorf("marshal protobuf: %w", err)
	}

	return c.zstdEncoder.EncodeAll(pbData, nil), nil
}

// DecodeJSON reverses EncodeJSON.
func (c *ProtobufCodec) DecodeJSON(data []byte) ([]byte, error) {
	pbData, err := c.zstdDecoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}

	var st structpb.Struct
	if err := proto.Unmarshal(pbData, &st); err != nil {
		return nil, fmt.Errorf("unmarshal protobuf: %w", err)
	}
	return protojson.Marshal(&st)
}

func (c *ProtobufCodec) Decode(data []byte) (ClientMessage, error) {
	raw, err := c.DecodeJSON(data)
	if err != nil {
		return ClientMessage{}, err
	}
	return jsonCodec{}.Decode(raw)
}

// Close releases encoder resources.
func (c *ProtobufCodec) Close() {
	if c.zstdEncoder != nil {
		c.zstdEncoder.Close()
	}
	if c.zstdDecoder != nil {
		c.zstdDecoder.Close()
	}
}
