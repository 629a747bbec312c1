package gdbserver

import (
	"strconv"

	emuerrors "github.com/ngdevkit/emudbg/internal/errors"
)

// BufferSize is the capacity of the session receive and send buffers.
const BufferSize = 1024

const (
	interruptByte = 0x03
	ackByte       = '+'
	nackByte      = '-'
	packetStart   = '$'
	checksumMark  = '#'

	// '$' + '#' + two checksum digits
	framingLen = 4
)

// Checksum is the modulo-256 sum of the payload bytes.
func Checksum(payload []byte) uint8 {
	var sum uint8
	for _, b := range payload {
		sum += b
	}
	return sum
}

// AppendPacket frames payload as $payload#cc and appends it to dst.
// The payload must not contain '$' or '#'.
func AppendPacket(dst []byte, payload string) []byte {
	var sum uint8
	dst = append(dst, packetStart)
	for i := 0; i < len(payload); i++ {
		sum += payload[i]
		dst = append(dst, payload[i])
	}
	const digits = "0123456789abcdef"
	return append(dst, checksumMark, digits[sum>>4], digits[sum&0x0f])
}

// EncodePacket returns payload framed as $payload#cc.
func EncodePacket(payload string) []byte {
	return AppendPacket(make([]byte, 0, len(payload)+framingLen), payload)
}

// skipPreamble consumes any run of interrupt and acknowledgement bytes at the
// front of buf. It returns the offset of the first byte left.
func skipPreamble(buf []byte) int {
	pos := 0
	for pos < len(buf) && (buf[pos] == interruptByte || buf[pos] == ackByte) {
		pos++
	}
	return pos
}

// frameBounds locates the payload of the frame held in buf, which runs from
// the '$' to the end of the buffer. The returned offsets exclude the '$' and
// the '#cc' trailer.
func frameBounds(buf []byte) (start, end int, err error) {
	if len(buf) < framingLen {
		return 0, 0, emuerrors.MalformedPacket("shorter than an empty frame", len(buf))
	}
	if buf[0] != packetStart {
		return 0, 0, emuerrors.MalformedPacket("missing '$'", len(buf))
	}
	end = len(buf) - 3
	if buf[end] != checksumMark {
		return 0, 0, emuerrors.MalformedPacket("missing '#' before checksum", len(buf))
	}
	return 1, end, nil
}

// verifyChecksum checks the two hex digits after the payload ending at end.
func verifyChecksum(buf []byte, start, end int) error {
	want := Checksum(buf[start:end])
	got, err := strconv.ParseUint(string(buf[end+1:end+3]), 16, 8)
	if err != nil {
		return emuerrors.InvalidField("checksum", string(buf[end+1:end+3]), err)
	}
	if uint8(got) != want {
		return emuerrors.ChecksumMismatch(want, uint8(got))
	}
	return nil
}

// DecodePacket extracts the payload of a single $payload#cc frame. It applies
// the same preamble handling as the server loop. When validate is set the
// checksum must match.
func DecodePacket(buf []byte, validate bool) ([]byte, error) {
	buf = buf[skipPreamble(buf):]
	start, end, err := frameBounds(buf)
	if err != nil {
		return nil, err
	}
	if validate {
		if err := verifyChecksum(buf, start, end); err != nil {
			return nil, err
		}
	}
	return buf[start:end], nil
}
