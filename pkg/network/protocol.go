// pkg/network/protocol.go
package network

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/opd-ai/go-arena/pkg/engine"
)

// MessageType defines the type of network message
type MessageType byte

const (
	// HelloMessage is the first message on every stream
	HelloMessage MessageType = iota + 1
	// FrameMessage carries one Frame
	FrameMessage
)

func (t MessageType) String() string {
	switch t {
	case HelloMessage:
		return "hello"
	case FrameMessage:
		return "frame"
	default:
		return fmt.Sprintf("message(%d)", byte(t))
	}
}

// MaxMessageSize bounds a message payload
const MaxMessageSize = 16 << 20

// headerSize is the type byte plus the big-endian uint32 length
const headerSize = 5

var (
	// ErrFrameTooLarge is returned for payloads above MaxMessageSize
	ErrFrameTooLarge = errors.New("network: message exceeds maximum size")
	// ErrServerClosed is returned by a FrameServer after Close
	ErrServerClosed = errors.New("network: server closed")
)

// Hello describes the stream to a new viewer
type Hello struct {
	RunID    string  `json:"runId"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	TickRate int     `json:"tickRate"`
}

// Frame is one snapshot on the wire
type Frame struct {
	Tick   uint64          `json:"tick"`
	Width  float64         `json:"width"`
	Height float64         `json:"height"`
	Bodies []engine.Record `json:"bodies"`
}

// NewFrame wraps a snapshot
func NewFrame(snap engine.Snapshot) Frame {
	return Frame{Tick: snap.Tick, Width: snap.Width, Height: snap.Height, Bodies: snap.Records}
}

// Snapshot converts the frame back for renderers
func (f Frame) Snapshot() engine.Snapshot {
	return engine.Snapshot{Tick: f.Tick, Width: f.Width, Height: f.Height, Records: f.Bodies}
}

// EncodeMessage returns the framed JSON encoding of msg
func EncodeMessage(msgType MessageType, msg interface{}) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", msgType, err)
	}
	if len(data) > MaxMessageSize {
		return nil, fmt.Errorf("%s of %d bytes: %w", msgType, len(data), ErrFrameTooLarge)
	}

	var buf bytes.Buffer
	buf.Grow(headerSize + len(data))
	buf.WriteByte(byte(msgType))
	binary.Write(&buf, binary.BigEndian, uint32(len(data)))
	buf.Write(data)
	return buf.Bytes(), nil
}

// WriteMessage encodes msg and writes it with a single Write
func WriteMessage(w io.Writer, msgType MessageType, msg interface{}) error {
	data, err := EncodeMessage(msgType, msg)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ReadMessage reads one framed message
func ReadMessage(r io.Reader) (MessageType, []byte, error) {
	var msgType MessageType
	if err := binary.Read(r, binary.BigEndian, &msgType); err != nil {
		return 0, nil, err
	}

	var msgLen uint32
	if err := binary.Read(r, binary.BigEndian, &msgLen); err != nil {
		return 0, nil, fmt.Errorf("failed to read message length: %w", err)
	}
	if msgLen > MaxMessageSize {
		return 0, nil, fmt.Errorf("%s of %d bytes: %w", msgType, msgLen, ErrFrameTooLarge)
	}

	data := make([]byte, msgLen)
	if _, err := io.ReadFull(r, data); err != nil {
		return 0, nil, fmt.Errorf("failed to read message data: %w", err)
	}
	return msgType, data, nil
}
