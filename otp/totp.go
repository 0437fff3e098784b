package otp

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultPeriod is the TOTP time step used by Google Authenticator compatible servers
	DefaultPeriod = 30 * time.Second
	// DefaultDigits is the length of the generated code
	DefaultDigits = 6
)

var (
	ErrEmptySecret   = errors.New("otp secret is empty")
	ErrInvalidPeriod = errors.New("otp period must be at least one second")
	ErrInvalidDigits = errors.New("otp digits must be between 6 and 8")
)

var digitsPower = [...]uint32{1, 10, 100, 1000, 10000, 100000, 1000000, 10000000, 100000000}

// Generator produces RFC 6238 time based one time passwords (HMAC-SHA1).
type Generator struct {
	key     []byte
	period  time.Duration
	digits  int
	nowTime func() time.Time
}

// Option configures a Generator
type Option func(*Generator)

// WithPeriod overrides the 30 second time step
func WithPeriod(period time.Duration) Option {
	return func(g *Generator) {
		g.period = period
	}
}

// WithDigits overrides the code length
func WithDigits(digits int) Option {
	return func(g *Generator) {
		g.digits = digits
	}
}

// WithNowTime sets the clock (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(g *Generator) {
		g.nowTime = nowFunc
	}
}

// New creates a generator from a base32 shared secret as shown in the server's client settings.
func New(secret string, opts ...Option) (*Generator, error) {
	key, err := DecodeSecret(secret)
	if err != nil {
		return nil, err
	}
	return NewFromKey(key, opts...)
}

// NewFromKey creates a generator from raw key bytes
func NewFromKey(key []byte, opts ...Option) (*Generator, error) {
	if len(key) == 0 {
		return nil, ErrEmptySecret
	}

	g := &Generator{
		key:     key,
		period:  DefaultPeriod,
		digits:  DefaultDigits,
		nowTime: time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.period < time.Second {
		return nil, ErrInvalidPeriod
	}
	if g.digits < 6 || g.digits > 8 {
		return nil, ErrInvalidDigits
	}
	return g, nil
}

// Generate returns the code for the current time step
func (g *Generator) Generate() string {
	return g.GenerateAt(g.nowTime())
}

// GenerateAt returns the code for the time step containing t
func (g *Generator) GenerateAt(t time.Time) string {
	return g.generateCode(g.counter(t))
}

// Validate checks code against the current time step and skew steps either side of it.
func (g *Generator) Validate(code string, skew int) bool {
	if len(code) != g.digits {
		return false
	}
	counter := int64(g.counter(g.nowTime()))
	for i := -skew; i <= skew; i++ {
		c := counter + int64(i)
		if c < 0 {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(g.generateCode(uint64(c))), []byte(code)) == 1 {
			return true
		}
	}
	return false
}

func (g *Generator) counter(t time.Time) uint64 {
	secs := t.Unix()
	if secs < 0 {
		return 0
	}
	return uint64(secs) / uint64(g.period/time.Second)
}

func (g *Generator) generateCode(counter uint64) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)

	mac := hmac.New(sha1.New, g.key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	// "Dynamic truncation" in RFC 4226
	// http://tools.ietf.org/html/rfc4226#section-5.4
	offset := sum[len(sum)-1] & 0x0f
	value := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	return fmt.Sprintf("%0*d", g.digits, value%digitsPower[g.digits])
}
