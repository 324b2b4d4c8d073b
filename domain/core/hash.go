package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// RecordHash fingerprints a record's canonical content.
type RecordHash Hash

func (h RecordHash) String() string { return Hash(h).String() }

// ComputeRecordHash hashes field/value pairs independently of field order.
// Each part is length-prefixed so that no two distinct inputs share an encoding.
func ComputeRecordHash(fields map[string]string) RecordHash {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var data strings.Builder
	for _, key := range keys {
		value := fields[key]
		data.WriteString(fmt.Sprintf("%d:%s=%d:%s;", len(key), key, len(value), value))
	}

	return RecordHash(NewHash([]byte(data.String())))
}
