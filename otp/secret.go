package otp

import "strings"

const base32Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// DecodeSecret decodes a shared secret the way the Sonata GoogleAuthenticator used by DataHalt
// servers does: the alphabet is matched case-sensitively, so lowercase letters are skipped along
// with padding and any other character outside the RFC 4648 base32 alphabet. Trailing bits that
// do not fill a byte are dropped.
func DecodeSecret(secret string) ([]byte, error) {
	out := make([]byte, 0, len(secret)*5/8)

	var buffer uint32
	var bits uint
	for _, r := range secret {
		idx := strings.IndexRune(base32Alphabet, r)
		if idx < 0 {
			continue
		}
		buffer = buffer<<5 | uint32(idx)
		bits += 5
		if bits >= 8 {
			bits -= 8
			out = append(out, byte(buffer>>bits))
			buffer &= 1<<bits - 1
		}
	}

	if len(out) == 0 {
		return nil, ErrEmptySecret
	}
	return out, nil
}
