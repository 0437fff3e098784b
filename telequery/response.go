package telequery

import (
	"bytes"
	"encoding/json"
)

const statusOK = "ok"

// reply is the envelope both DataHalt endpoints answer with. Status and message are kept raw
// because servers are not consistent about their types.
type reply struct {
	Status  json.RawMessage `json:"status"`
	Message json.RawMessage `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// rawText returns a JSON string unquoted and any other JSON value as written
func rawText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if bytes.Equal(raw, []byte("null")) {
		return ""
	}
	return string(raw)
}

// decodeReply accepts a body only if it is a JSON object with status "ok". Any other JSON object
// is a rejection. The HTTP status code is informational, error replies are parsed the same way
// as successful ones.
func decodeReply(endpoint string, statusCode int, body []byte) (*reply, error) {
	trimmed := bytes.TrimSpace(body)

	var r reply
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &ResponseError{
			Kind:       ErrMalformedResponse,
			Endpoint:   endpoint,
			StatusCode: statusCode,
			Body:       body,
		}
	}
	if err := json.Unmarshal(trimmed, &r); err != nil {
		return nil, &ResponseError{
			Kind:       ErrMalformedResponse,
			Endpoint:   endpoint,
			StatusCode: statusCode,
			Message:    err.Error(),
			Body:       body,
		}
	}

	if status := rawText(r.Status); status != statusOK {
		return nil, &ResponseError{
			Kind:       ErrServerRejected,
			Endpoint:   endpoint,
			StatusCode: statusCode,
			Status:     status,
			Message:    rawText(r.Message),
			Body:       body,
		}
	}
	return &r, nil
}
