package telequery

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-telequery/otp"
	"github.com/jrsteele09/go-telequery/token"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds every request when Config.Timeout is not set
const DefaultTimeout = 30 * time.Second

// RequestIDHeader carries a per-request id for correlating client and server logs
const RequestIDHeader = "X-Request-Id"

// Credentials identify a client to the DataHalt server
type Credentials struct {
	ClientID  string // see the server's client settings
	OTPSecret string // base32 shared secret used to derive the one time password
}

// Config holds the endpoints and credentials of a DataHalt server
type Config struct {
	AuthURL     string
	QueryURL    string
	Credentials Credentials
	Timeout     time.Duration
}

func (c Config) validate() error {
	if _, err := url.ParseRequestURI(c.AuthURL); err != nil {
		return fmt.Errorf("%w: auth url %q: %v", ErrInvalidConfig, c.AuthURL, err)
	}
	if _, err := url.ParseRequestURI(c.QueryURL); err != nil {
		return fmt.Errorf("%w: query url %q: %v", ErrInvalidConfig, c.QueryURL, err)
	}
	if strings.TrimSpace(c.Credentials.ClientID) == "" {
		return fmt.Errorf("%w: client id is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Credentials.OTPSecret) == "" {
		return fmt.Errorf("%w: otp secret is required", ErrInvalidConfig)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: negative timeout", ErrInvalidConfig)
	}
	return nil
}

// Client authenticates against a DataHalt server and sends signed queries.
// It holds no mutable state and is safe for concurrent use.
type Client struct {
	config        Config
	httpClient    *http.Client
	logger        zerolog.Logger
	nowTime       func() time.Time
	checksum      token.Checksum
	tokenLifetime time.Duration
	otp           *otp.Generator
	minter        *token.Minter
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client. Its Timeout is left as given.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger (defaults to the global zerolog logger)
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithNowTime sets the clock used for OTP and token minting (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ClientOption {
	return func(c *Client) {
		c.nowTime = nowFunc
	}
}

// WithChecksum replaces the MD5 body binding. Only use with a server that does the same.
func WithChecksum(checksum token.Checksum) ClientOption {
	return func(c *Client) {
		c.checksum = checksum
	}
}

// WithTokenLifetime overrides the 7 second request token lifetime
func WithTokenLifetime(lifetime time.Duration) ClientOption {
	return func(c *Client) {
		c.tokenLifetime = lifetime
	}
}

// New creates a client. The OTP secret is decoded here so a bad secret fails early.
func New(cfg Config, opts ...ClientOption) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Client{
		config:        cfg,
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		logger:        log.Logger,
		nowTime:       time.Now,
		checksum:      token.MD5Hex,
		tokenLifetime: token.DefaultLifetime,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.tokenLifetime < time.Second {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, token.ErrInvalidLifetime)
	}

	generator, err := otp.New(cfg.Credentials.OTPSecret, otp.WithNowTime(c.nowTime))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	c.otp = generator
	c.minter = token.NewMinter(token.WithNowTime(c.nowTime))

	return c, nil
}

// ClientID returns the configured client id
func (c *Client) ClientID() string {
	return c.config.Credentials.ClientID
}

// post sends body and returns the raw reply. Only failures to obtain a body are errors here.
func (c *Client) post(ctx context.Context, endpoint, contentType string, body []byte, header http.Header) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", contentType)

	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Err(err).Str("request_id", requestID).Str("endpoint", endpoint).Msg("telequery request failed")
		return 0, nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Err(err).Str("request_id", requestID).Str("endpoint", endpoint).Msg("telequery response read failed")
		return resp.StatusCode, nil, &TransportError{Endpoint: endpoint, Err: err}
	}

	c.logger.Debug().
		Str("request_id", requestID).
		Str("endpoint", endpoint).
		Int("http_status", resp.StatusCode).
		Int("bytes", len(respBody)).
		Dur("elapsed", time.Since(start)).
		Msg("telequery request")

	return resp.StatusCode, respBody, nil
}
