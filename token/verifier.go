package token

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Verifier checks request tokens the way a DataHalt server does: the signing key is recomputed
// from the received body, so a token only verifies against the body it was minted for.
type Verifier struct {
	checksum Checksum
	leeway   time.Duration
	nowTime  func() time.Time
	replays  *ReplayCache
}

// VerifierOption configures a Verifier
type VerifierOption func(*Verifier)

// WithLeeway tolerates clock differences between client and server
func WithLeeway(leeway time.Duration) VerifierOption {
	return func(v *Verifier) {
		v.leeway = leeway
	}
}

// WithChecksum sets the body checksum (MD5Hex by default)
func WithChecksum(checksum Checksum) VerifierOption {
	return func(v *Verifier) {
		v.checksum = checksum
	}
}

// WithVerifierNowTime sets the verification clock (primarily for testing)
func WithVerifierNowTime(nowFunc func() time.Time) VerifierOption {
	return func(v *Verifier) {
		v.nowTime = nowFunc
	}
}

// WithReplayCache makes every token single use
func WithReplayCache(cache *ReplayCache) VerifierOption {
	return func(v *Verifier) {
		v.replays = cache
	}
}

// NewVerifier creates a verifier
func NewVerifier(opts ...VerifierOption) *Verifier {
	v := &Verifier{
		checksum: MD5Hex,
		nowTime:  time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify validates raw against the exact body bytes it was sent with.
func (v *Verifier) Verify(raw string, body []byte) (*RequestClaims, error) {
	key := []byte(v.checksum(body))

	claims := &RequestClaims{}
	parsed, err := jwtlib.ParseWithClaims(raw, claims,
		func(t *jwtlib.Token) (any, error) {
			if t.Method != jwtlib.SigningMethodHS256 {
				return nil, fmt.Errorf("%w: %v", ErrUnexpectedAlgorithm, t.Header["alg"])
			}
			return key, nil
		},
		jwtlib.WithLeeway(v.leeway),
		jwtlib.WithTimeFunc(v.nowTime),
		jwtlib.WithIssuedAt(),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil {
		return nil, translateError(err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidSignature
	}
	if claims.AuthInfoToken == "" {
		return nil, ErrMissingAuthInfo
	}

	if v.replays != nil {
		ttl := time.Unix(claims.ExpiresAt, 0).Sub(v.nowTime()) + v.leeway
		if err := v.replays.Use(string(parsed.Signature), ttl); err != nil {
			return nil, err
		}
	}
	return claims, nil
}

func translateError(err error) error {
	switch {
	case errors.Is(err, ErrUnexpectedAlgorithm):
		return err
	case errors.Is(err, jwtlib.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	case errors.Is(err, jwtlib.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	case errors.Is(err, jwtlib.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwtlib.ErrTokenUsedBeforeIssued):
		return ErrClockSkew
	default:
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
}
