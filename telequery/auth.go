package telequery

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// AuthResponse is the data returned by the auth endpoint. It should be kept by the caller
// until shortly before ExpiresAt (see Session).
type AuthResponse struct {
	Status        string                     `json:"-"`
	AuthInfoToken string                     `json:"authInfoToken"`
	ExpiresAt     Timestamp                  `json:"expiresAt"`
	Extra         map[string]json.RawMessage `json:"-"` // any other fields of the data object
}

// Authenticate exchanges the client id and the current one time password for an AuthResponse.
func (c *Client) Authenticate(ctx context.Context) (*AuthResponse, error) {
	endpoint := c.config.AuthURL

	form := url.Values{}
	form.Set("clientId", c.config.Credentials.ClientID)
	form.Set("otp", c.otp.Generate())

	statusCode, body, err := c.post(ctx, endpoint, "application/x-www-form-urlencoded", []byte(form.Encode()), nil)
	if err != nil {
		return nil, err
	}

	r, err := decodeReply(endpoint, statusCode, body)
	if err != nil {
		c.logger.Err(err).Str("client_id", c.config.Credentials.ClientID).Msg("Authentication rejected")
		return nil, err
	}

	auth := &AuthResponse{Status: statusOK}
	if err := json.Unmarshal(r.Data, auth); err != nil {
		return nil, &ResponseError{Kind: ErrMalformedResponse, Endpoint: endpoint, StatusCode: statusCode, Status: statusOK, Message: "data: " + err.Error(), Body: body}
	}
	if auth.AuthInfoToken == "" {
		return nil, &ResponseError{Kind: ErrMalformedResponse, Endpoint: endpoint, StatusCode: statusCode, Status: statusOK, Message: "data has no authInfoToken", Body: body}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(r.Data, &fields); err == nil {
		delete(fields, "authInfoToken")
		delete(fields, "expiresAt")
		if len(fields) > 0 {
			auth.Extra = fields
		}
	}

	c.logger.Debug().
		Str("client_id", c.config.Credentials.ClientID).
		Time("expires_at", auth.ExpiresAt.Time).
		Msg("Authenticated")
	return auth, nil
}

// Timestamp decodes the expiry the server reports: Unix seconds as a number or string,
// RFC 3339, or "2006-01-02 15:04:05" in UTC. null and "" decode to the zero time.
type Timestamp struct {
	time.Time
}

const serverTimeLayout = "2006-01-02 15:04:05"

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == `""` {
		t.Time = time.Time{}
		return nil
	}

	if !strings.HasPrefix(raw, `"`) {
		return t.parseUnix(raw)
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return t.parseUnix(s)
	}
	if parsed, err := time.Parse(time.RFC3339, s); err == nil {
		t.Time = parsed
		return nil
	}
	parsed, err := time.Parse(serverTimeLayout, s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// maxUnixSeconds is 9999-12-31T23:59:59Z
const maxUnixSeconds = 253402300799

func (t *Timestamp) parseUnix(raw string) error {
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return err
	}
	if math.IsNaN(secs) || math.Abs(secs) > maxUnixSeconds {
		return fmt.Errorf("unix time %s out of range", raw)
	}
	whole := int64(secs)
	t.Time = time.Unix(whole, int64((secs-float64(whole))*float64(time.Second)))
	return nil
}

// MarshalJSON writes Unix seconds
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(t.Unix(), 10)), nil
}
