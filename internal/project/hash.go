package project

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// Digest is a fixed 256-bit hash used as a cache key.
type Digest [32]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// IsZero reports whether d was never computed.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// HashBytes hashes a single blob.
func HashBytes(b []byte) Digest {
	return Digest(sha256.Sum256(b))
}

// Combine builds H(content || dep1 || dep2 ...). Callers must pass deps in a
// deterministic order.
func Combine(content Digest, deps ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	for _, d := range deps {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// HashFields hashes key=value pairs independent of map iteration order.
func HashFields(fields map[string]string) Digest {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	h := sha256.New()
	for _, k := range keys {
		_, _ = h.Write([]byte(k))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(fields[k]))
		_, _ = h.Write([]byte{0})
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
