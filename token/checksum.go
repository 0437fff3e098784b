package token

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Checksum binds a request token to the exact body bytes it is sent with. The lowercase hex
// digest is used verbatim as the HMAC signing key.
type Checksum func(body []byte) string

const (
	ChecksumMD5    = "md5"
	ChecksumSHA256 = "sha256"
)

// MD5Hex is the binding used by DataHalt servers. It is not relied on for integrity, the HMAC is.
func MD5Hex(body []byte) string {
	sum := md5.Sum(body)
	return hex.EncodeToString(sum[:])
}

// SHA256Hex can replace MD5Hex when the counterpart does not need byte compatibility.
func SHA256Hex(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// ChecksumByName resolves "md5" or "sha256"
func ChecksumByName(name string) (Checksum, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ChecksumMD5:
		return MD5Hex, nil
	case ChecksumSHA256:
		return SHA256Hex, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownChecksum, name)
	}
}
