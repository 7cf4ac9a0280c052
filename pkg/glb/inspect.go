package glb

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Container framing constants.
const (
	Magic           = 0x46546C67 // "glTF"
	Version         = 2
	HeaderSize      = 12
	ChunkHeaderSize = 8

	ChunkJSON = 0x4E4F534A // "JSON"
	ChunkBIN  = 0x004E4942 // "BIN\0"
)

// Framing errors.
var (
	ErrInvalidMagic       = errors.New("invalid container magic: expected 'glTF'")
	ErrUnsupportedVersion = errors.New("unsupported container version")
	ErrTruncated          = errors.New("truncated container data")
	ErrMisaligned         = errors.New("chunk not 4-byte aligned")
)

// Chunk is one framed section of a container.
type Chunk struct {
	Type uint32
	Data []byte
}

// TypeName returns "JSON", "BIN" or the hex type for unknown chunks.
func (c Chunk) TypeName() string {
	switch c.Type {
	case ChunkJSON:
		return "JSON"
	case ChunkBIN:
		return "BIN"
	default:
		return fmt.Sprintf("0x%08X", c.Type)
	}
}

// Container is the decoded framing of a binary container.
type Container struct {
	Version uint32
	Length  uint32 // Total length declared by the header
	Chunks  []Chunk
}

// FramedLength returns the header size plus every chunk frame and payload.
func (c *Container) FramedLength() int {
	n := HeaderSize
	for _, ch := range c.Chunks {
		n += ChunkHeaderSize + len(ch.Data)
	}
	return n
}

// Inspect decodes the header and walks the chunk frames it declares.
func Inspect(data []byte) (*Container, error) {
	if len(data) < HeaderSize {
		return nil, ErrTruncated
	}
	if binary.LittleEndian.Uint32(data[0:4]) != Magic {
		return nil, ErrInvalidMagic
	}

	c := &Container{
		Version: binary.LittleEndian.Uint32(data[4:8]),
		Length:  binary.LittleEndian.Uint32(data[8:12]),
	}
	if c.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, c.Version)
	}
	if int(c.Length) > len(data) || c.Length < HeaderSize {
		return nil, fmt.Errorf("%w: header declares %d bytes, have %d", ErrTruncated, c.Length, len(data))
	}

	offset := HeaderSize
	total := int(c.Length)
	for offset < total {
		if offset+ChunkHeaderSize > total {
			return nil, fmt.Errorf("%w: chunk header at %d", ErrTruncated, offset)
		}
		length := int(binary.LittleEndian.Uint32(data[offset:]))
		typ := binary.LittleEndian.Uint32(data[offset+4:])
		start := offset + ChunkHeaderSize
		end := start + length
		if end > total || end < start {
			return nil, fmt.Errorf("%w: chunk at %d claims %d bytes", ErrTruncated, offset, length)
		}
		if length%4 != 0 {
			return nil, fmt.Errorf("%w: chunk at %d has length %d", ErrMisaligned, offset, length)
		}
		c.Chunks = append(c.Chunks, Chunk{Type: typ, Data: data[start:end]})
		offset = end
	}

	return c, nil
}
