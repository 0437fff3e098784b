package token

import "errors"

var (
	ErrInvalidLifetime     = errors.New("token lifetime must be at least one second")
	ErrEmptySigningKey     = errors.New("signing key is empty")
	ErrMalformedToken      = errors.New("malformed request token")
	ErrInvalidSignature    = errors.New("request token signature does not match payload")
	ErrTokenExpired        = errors.New("request token expired")
	ErrClockSkew           = errors.New("request token issued in the future")
	ErrTokenReplayed       = errors.New("request token already used")
	ErrUnknownChecksum     = errors.New("unknown checksum algorithm")
	ErrMissingAuthInfo     = errors.New("request token has no authInfoToken")
	ErrUnexpectedAlgorithm = errors.New("unexpected signing algorithm")
)
