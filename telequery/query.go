package telequery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Mapping names the key a query's result is returned under
type Mapping struct {
	To string `json:"to"`
}

// QueryText is the SQL statement to run
type QueryText struct {
	Text string `json:"text"`
}

// Envelope is the basic TeleQuery request: one statement whose result is mapped to a name.
type Envelope struct {
	Map   Mapping   `json:"map"`
	Query QueryText `json:"query"`
}

// NewEnvelope builds an Envelope returning the result of text under the name to
func NewEnvelope(to, text string) Envelope {
	return Envelope{
		Map:   Mapping{To: to},
		Query: QueryText{Text: text},
	}
}

var (
	errEmptyPayload   = errors.New("query payload is empty")
	errInvalidPayload = errors.New("query payload is not valid JSON")
)

// MarshalPayload returns the exact bytes that are sent and checksummed for payload.
// json.RawMessage payloads are sent as given.
func MarshalPayload(payload any) ([]byte, error) {
	if raw, ok := payload.(json.RawMessage); ok {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 {
			return nil, errEmptyPayload
		}
		if !json.Valid(raw) {
			return nil, errInvalidPayload
		}
		return raw, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return nil, fmt.Errorf("failed to encode query payload: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Query sends payload (usually an Envelope) with a bearer token bound to its serialized bytes
// and returns the data field of the reply.
func (c *Client) Query(ctx context.Context, authInfoToken string, payload any) (json.RawMessage, error) {
	endpoint := c.config.QueryURL

	body, err := MarshalPayload(payload)
	if err != nil {
		return nil, err
	}

	bearer, err := c.minter.Mint(c.tokenLifetime, authInfoToken, c.checksum(body))
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+bearer)

	statusCode, respBody, err := c.post(ctx, endpoint, "application/json", body, header)
	if err != nil {
		return nil, err
	}

	r, err := decodeReply(endpoint, statusCode, respBody)
	if err != nil {
		c.logger.Err(err).Str("client_id", c.config.Credentials.ClientID).Msg("Query rejected")
		return nil, err
	}
	return r.Data, nil
}

// QueryInto runs Query and decodes the data field into out
func (c *Client) QueryInto(ctx context.Context, authInfoToken string, payload any, out any) error {
	data, err := c.Query(ctx, authInfoToken, payload)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &ResponseError{Kind: ErrMalformedResponse, Endpoint: c.config.QueryURL, Status: statusOK, Message: "data: " + err.Error(), Body: data}
	}
	return nil
}
