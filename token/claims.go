package token

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// RequestClaims is the payload of a per-request bearer token. Field order is the wire order.
//
// DataHalt servers put the issue time in "iss" rather than "iat", so IssuedAt is read from there.
type RequestClaims struct {
	IssuedAt      int64  `json:"iss"`           // Unix seconds at minting time
	ExpiresAt     int64  `json:"exp"`           // IssuedAt + lifetime
	AuthInfoToken string `json:"authInfoToken"` // Session token returned by the auth endpoint
}

var _ jwtlib.Claims = (*RequestClaims)(nil)

// Lifetime returns exp - iss
func (c *RequestClaims) Lifetime() time.Duration {
	return time.Duration(c.ExpiresAt-c.IssuedAt) * time.Second
}

func (c *RequestClaims) GetExpirationTime() (*jwtlib.NumericDate, error) {
	return jwtlib.NewNumericDate(time.Unix(c.ExpiresAt, 0)), nil
}

func (c *RequestClaims) GetIssuedAt() (*jwtlib.NumericDate, error) {
	return jwtlib.NewNumericDate(time.Unix(c.IssuedAt, 0)), nil
}

func (c *RequestClaims) GetNotBefore() (*jwtlib.NumericDate, error) {
	return nil, nil
}

func (c *RequestClaims) GetIssuer() (string, error) {
	return "", nil
}

func (c *RequestClaims) GetSubject() (string, error) {
	return "", nil
}

func (c *RequestClaims) GetAudience() (jwtlib.ClaimStrings, error) {
	return nil, nil
}
