package util

import (
	"crypto/rand"
	"io"
	"math/big"
)

// Generates a 128 bit x509 certificate serial number from the provided
// entropy source, falling back to crypto/rand when nil.
func X509SerialNumber(random io.Reader) (*big.Int, error) {
	if random == nil {
		random = rand.Reader
	}
	serialNumberLimit := new(big.Int).Lsh(big.NewInt(1), 128)
	return rand.Int(random, serialNumberLimit)
}
