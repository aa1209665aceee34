package hashutil

import (
	"encoding/hex"

	"lukechampine.com/blake3"
)

func Blake3Hash(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ShortHash is the first n hex characters of the blake3 digest, used for
// log fields and file names.
func ShortHash(data []byte, n int) string {
	h := Blake3Hash(data)
	if n <= 0 || n > len(h) {
		return h
	}

	return h[:n]
}
