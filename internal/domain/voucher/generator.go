package voucher

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// CodeAlphabet excludes visually ambiguous glyphs (0/O, 1/I) so codes survive
// manual entry.
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// DefaultCodeLength is the length of generated codes.
const DefaultCodeLength = 7

// GenerateCode draws a random code of the given length from CodeAlphabet.
// Uniqueness is not guaranteed here; callers rely on the storage uniqueness
// constraint and redraw on collision.
func GenerateCode(length int) (string, error) {
	if length <= 0 {
		length = DefaultCodeLength
	}
	max := big.NewInt(int64(len(CodeAlphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to draw random code character: %w", err)
		}
		buf[i] = CodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
