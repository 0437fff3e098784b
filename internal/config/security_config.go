package config

import "time"

const (
	clientIDVar      = "TELEQUERY_CLIENT_ID"
	otpKeyVar        = "TELEQUERY_OTP_KEY"
	tokenLifetimeVar = "TELEQUERY_TOKEN_LIFETIME"
	checksumVar      = "TELEQUERY_CHECKSUM"
	renewMarginVar   = "TELEQUERY_RENEW_MARGIN"
)

type SecurityConfig interface {
	GetClientID() string
	GetOTPKey() string
	GetTokenLifetime() time.Duration
	GetChecksum() string
	GetRenewMargin() time.Duration
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetClientID returns the client id from the server's client settings
func (Security) GetClientID() string {
	return GetEnv(clientIDVar, "")
}

// GetOTPKey returns the shared OTP secret from the server's client settings
func (Security) GetOTPKey() string {
	return GetEnv(otpKeyVar, "")
}

func (Security) GetTokenLifetime() time.Duration {
	return GetDurationEnv(tokenLifetimeVar, 7*time.Second) // smallest lifetime the server accepts
}

func (Security) GetChecksum() string {
	return GetEnv(checksumVar, "md5")
}

func (Security) GetRenewMargin() time.Duration {
	return GetDurationEnv(renewMarginVar, 30*time.Second)
}
