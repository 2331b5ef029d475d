package crypto

import (
	"crypto/sha256"

	"golang.org/x/crypto/ripemd160"
)

// HashSize is the size of the digest returned by Sha256d.
const HashSize = sha256.Size

// Hash160Size is the size of the digest returned by Hash160.
const Hash160Size = ripemd160.Size

// Sha256d returns the double SHA-256 digest of the data.
func Sha256d(data []byte) [HashSize]byte {
	first := sha256.Sum256(data)
	return sha256.Sum256(first[:])
}

// Hash160 returns the RIPEMD-160 digest of the SHA-256 digest of the data. It
// is the hash of the public keys referenced by their hash.
func Hash160(data []byte) []byte {
	digest := sha256.Sum256(data)

	h := ripemd160.New()
	h.Write(digest[:])

	return h.Sum(nil)
}
