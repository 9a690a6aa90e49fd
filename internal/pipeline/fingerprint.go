package pipeline

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint derives the content identity of a raw input as a lowercase
// hex BLAKE2b-256 digest. Renaming or re-uploading a byte-identical file
// yields the same fingerprint.
func Fingerprint(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
