package store

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"time"

	"github.com/hexboltmq/hexboltmq/internal/queue"
)

// Message record layout, big-endian:
//
//	id(8) | priority(4) | available_at_ms(8) | retry(4) | max_retries(4) |
//	payload_len(4) | payload | crc32c(everything before)
//
// AvailableAt is persisted as wall-clock milliseconds; the in-memory monotonic
// reading cannot survive a process, so repopulation recomputes the remaining
// delay against wall time.
const recordHeaderLen = 8 + 4 + 8 + 4 + 4 + 4

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// ErrCorruptRecord reports a record that failed structural or checksum
// validation.
var ErrCorruptRecord = errors.New("store: corrupt message record")

func encodeMessage(m queue.Message) []byte {
	out := make([]byte, recordHeaderLen+len(m.Payload)+4)
	binary.BigEndian.PutUint64(out[0:8], m.ID)
	binary.BigEndian.PutUint32(out[8:12], m.Priority)
	binary.BigEndian.PutUint64(out[12:20], uint64(m.AvailableAt.UnixMilli()))
	binary.BigEndian.PutUint32(out[20:24], uint32(m.RetryCount))
	binary.BigEndian.PutUint32(out[24:28], uint32(m.MaxRetries))
	binary.BigEndian.PutUint32(out[28:32], uint32(len(m.Payload)))
	copy(out[recordHeaderLen:], m.Payload)

	crc := crc32.Checksum(out[:recordHeaderLen+len(m.Payload)], castagnoli)
	binary.BigEndian.PutUint32(out[recordHeaderLen+len(m.Payload):], crc)
	return out
}

func decodeMessage(b []byte) (queue.Message, error) {
	if len(b) < recordHeaderLen+4 {
		return queue.Message{}, ErrCorruptRecord
	}
	plen := int(binary.BigEndian.Uint32(b[28:32]))
	if len(b) != recordHeaderLen+plen+4 {
		return queue.Message{}, ErrCorruptRecord
	}
	body := b[:recordHeaderLen+plen]
	want := binary.BigEndian.Uint32(b[recordHeaderLen+plen:])
	if crc32.Checksum(body, castagnoli) != want {
		return queue.Message{}, ErrCorruptRecord
	}

	m := queue.Message{
		ID:          binary.BigEndian.Uint64(b[0:8]),
		Priority:    binary.BigEndian.Uint32(b[8:12]),
		AvailableAt: time.UnixMilli(int64(binary.BigEndian.Uint64(b[12:20]))),
		// int32 round-trip keeps a negative retry budget negative
		RetryCount:  int(int32(binary.BigEndian.Uint32(b[20:24]))),
		MaxRetries:  int(int32(binary.BigEndian.Uint32(b[24:28]))),
	}
	if plen > 0 {
		m.Payload = append([]byte(nil), b[recordHeaderLen:recordHeaderLen+plen]...)
	}
	return m, nil
}
