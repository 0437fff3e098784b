package token

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// DefaultLifetime is the smallest lifetime DataHalt servers accept for a request token
const DefaultLifetime = 7 * time.Second

// Minter creates HS256 request tokens bound to a single query body
type Minter struct {
	nowTime func() time.Time
}

// MinterOption configures a Minter
type MinterOption func(*Minter)

// WithNowTime sets the minting clock (primarily for testing)
func WithNowTime(nowFunc func() time.Time) MinterOption {
	return func(m *Minter) {
		m.nowTime = nowFunc
	}
}

// NewMinter creates a token minter
func NewMinter(opts ...MinterOption) *Minter {
	m := &Minter{nowTime: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Mint creates a token for authInfoToken signed with the body checksum, which is the key
// DataHalt servers recompute from the received body.
func (m *Minter) Mint(lifetime time.Duration, authInfoToken, payloadChecksum string) (string, error) {
	return m.MintWithKey(lifetime, authInfoToken, []byte(payloadChecksum))
}

// MintWithKey creates a token signed with an arbitrary HMAC key
func (m *Minter) MintWithKey(lifetime time.Duration, authInfoToken string, signingKey []byte) (string, error) {
	seconds := int64(lifetime / time.Second)
	if seconds < 1 {
		return "", fmt.Errorf("%w: %s", ErrInvalidLifetime, lifetime)
	}
	if len(signingKey) == 0 {
		return "", ErrEmptySigningKey
	}

	now := m.nowTime().Unix()
	claims := &RequestClaims{
		IssuedAt:      now,
		ExpiresAt:     now + seconds,
		AuthInfoToken: authInfoToken,
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign request token: %w", err)
	}
	return signed, nil
}
