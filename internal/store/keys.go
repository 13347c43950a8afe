package store

import "encoding/binary"

// Keyspace layout, one region per named queue:
//
//	q/{name}/msg/{id}  - live message records (present until acknowledged)
//	q/{name}/dlq/{id}  - dead-letter records (terminal)
//
// The 8-byte big-endian id keeps iteration in id order, which for generated
// ids is creation order.
const (
	prefixMsg = "msg/"
	prefixDLQ = "dlq/"
)

func queuePrefix(name string) string {
	return "q/" + name + "/"
}

func msgKey(name string, id uint64) []byte {
	return idKey(queuePrefix(name)+prefixMsg, id)
}

func dlqKey(name string, id uint64) []byte {
	return idKey(queuePrefix(name)+prefixDLQ, id)
}

func msgPrefix(name string) []byte {
	return []byte(queuePrefix(name) + prefixMsg)
}

func dlqPrefix(name string) []byte {
	return []byte(queuePrefix(name) + prefixDLQ)
}

func idKey(prefix string, id uint64) []byte {
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], id)
	return key
}

// keyRange returns inclusive lower and exclusive upper bounds for scanning a
// prefix. Every prefix ends with '/', so bumping the final byte yields the
// successor without carry.
func keyRange(prefix []byte) ([]byte, []byte) {
	hi := append([]byte(nil), prefix...)
	hi[len(hi)-1]++
	return prefix, hi
}
