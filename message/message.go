// Package message implements the host frame codec. A frame is one text line
// of the form
//
//	<channel>,<data>,<crcHex>
//
// where crcHex is the CRC-32/IEEE checksum of data's bytes in hex.
package message

import (
	"errors"
	"fmt"
	"hash/crc32"
	"strconv"
	"strings"
)

// ErrCRC is returned when the checksum recomputed over data does not match
// the one carried by the frame.
var ErrCRC = errors.New("Invalid CRC")

// Message is one validated host-to-controller frame. A Message exists only
// after the CRC check has passed and all three fields were present.
type Message struct {
	Channel int8
	Data    string
	CRC     uint32
}

// Checksum computes the CRC-32/IEEE checksum of data's bytes.
func Checksum(data string) uint32 {
	return crc32.ChecksumIEEE([]byte(data))
}

// Parse validates one line (trailing newline already removed) and returns
// the Message it carries.
func Parse(line string) (*Message, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("expected 3 fields, got %d", len(parts))
	}
	channel, err := strconv.ParseInt(parts[0], 10, 8)
	if err != nil {
		return nil, fmt.Errorf("invalid channel %q: %w", parts[0], err)
	}
	data := parts[1]
	crc, err := strconv.ParseUint(parts[2], 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid crc %q: %w", parts[2], err)
	}
	if Checksum(data) != uint32(crc) {
		return nil, ErrCRC
	}
	return &Message{
		Channel: int8(channel),
		Data:    data,
		CRC:     uint32(crc),
	}, nil
}

// String serializes the message back to its wire form, without the trailing
// newline. Parse(m.String()) reproduces m.
func (m *Message) String() string {
	return fmt.Sprintf("%d,%s,%08x", m.Channel, m.Data, m.CRC)
}
