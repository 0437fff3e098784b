package telequery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultRenewMargin is how long before ExpiresAt a cached authentication is renewed
	DefaultRenewMargin = 30 * time.Second
	// DefaultSessionTTL is used when the server does not report an expiry
	DefaultSessionTTL = 5 * time.Minute
)

// Session caches the AuthResponse of a client and authenticates again once it is about to
// expire. Concurrent callers share a single renewal request.
type Session struct {
	client      *Client
	auths       *cache.Cache
	renewals    singleflight.Group
	renewMargin time.Duration
	fallbackTTL time.Duration
	nowTime     func() time.Time
}

// SessionOption defines a function type to modify the Session instance.
type SessionOption func(*Session)

// WithRenewMargin sets how long before expiry the session authenticates again
func WithRenewMargin(margin time.Duration) SessionOption {
	return func(s *Session) {
		s.renewMargin = margin
	}
}

// WithFallbackTTL sets the cache lifetime used when the server sends no expiry
func WithFallbackTTL(ttl time.Duration) SessionOption {
	return func(s *Session) {
		s.fallbackTTL = ttl
	}
}

// WithSessionNowTime sets the clock used to compute cache lifetimes (primarily for testing)
func WithSessionNowTime(nowFunc func() time.Time) SessionOption {
	return func(s *Session) {
		s.nowTime = nowFunc
	}
}

// NewSession wraps client with an authentication cache
func NewSession(client *Client, opts ...SessionOption) *Session {
	s := &Session{
		client:      client,
		renewMargin: DefaultRenewMargin,
		fallbackTTL: DefaultSessionTTL,
		nowTime:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.auths = cache.New(s.fallbackTTL, time.Minute)
	return s
}

// Auth returns the cached AuthResponse, authenticating if there is none or it is about to expire.
// The shared renewal is detached from any single caller's cancellation; ctx only bounds how long
// this caller waits for it. The client timeout still bounds the request itself.
func (s *Session) Auth(ctx context.Context) (*AuthResponse, error) {
	key := s.client.ClientID()
	if cached, ok := s.auths.Get(key); ok {
		return cached.(*AuthResponse), nil
	}

	renewCtx := context.WithoutCancel(ctx)
	ch := s.renewals.DoChan(key, func() (any, error) {
		if cached, ok := s.auths.Get(key); ok {
			return cached, nil
		}

		auth, err := s.client.Authenticate(renewCtx)
		if err != nil {
			return nil, err
		}

		ttl := s.fallbackTTL
		if !auth.ExpiresAt.IsZero() {
			ttl = auth.ExpiresAt.Sub(s.nowTime()) - s.renewMargin
		}
		if ttl > 0 {
			s.auths.Set(key, auth, ttl)
		}
		return auth, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*AuthResponse), nil
	}
}

// Token returns the authInfoToken of Auth
func (s *Session) Token(ctx context.Context) (string, error) {
	auth, err := s.Auth(ctx)
	if err != nil {
		return "", err
	}
	return auth.AuthInfoToken, nil
}

// Query sends payload with the session's token. A rejection that looks like an authentication
// failure drops the cached authentication so the next call authenticates again. Other rejections,
// such as SQL errors, keep it. The query itself is not retried.
func (s *Session) Query(ctx context.Context, payload any) (json.RawMessage, error) {
	authInfoToken, err := s.Token(ctx)
	if err != nil {
		return nil, err
	}

	data, err := s.client.Query(ctx, authInfoToken, payload)
	if isAuthRejection(err) {
		s.Invalidate()
	}
	return data, err
}

var authRejectionHints = []string{"auth", "token", "session", "expired", "otp", "signature", "forbidden"}

// isAuthRejection reports whether err is a server rejection caused by the credentials rather than
// by the query. DataHalt only tells them apart by HTTP status or message text.
func isAuthRejection(err error) bool {
	var respErr *ResponseError
	if !errors.As(err, &respErr) || respErr.Kind != ErrServerRejected {
		return false
	}
	if respErr.StatusCode == http.StatusUnauthorized || respErr.StatusCode == http.StatusForbidden {
		return true
	}
	msg := strings.ToLower(respErr.Message)
	for _, hint := range authRejectionHints {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

// Invalidate drops the cached authentication
func (s *Session) Invalidate() {
	s.auths.Delete(s.client.ClientID())
}
