package domain

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// codeAlphabet omits characters that are easily confused when read aloud (0/O, 1/I/L).
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const codeLength = 8

// CodePrefix starts every order code.
const CodePrefix = "ORD-"

// NewOrderCode returns a random code such as ORD-7KQ2M9XA. Callers check it
// against persisted codes before use.
func NewOrderCode() (string, error) {
	var b strings.Builder
	b.Grow(len(CodePrefix) + codeLength)
	b.WriteString(CodePrefix)

	max := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < codeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}
