package token

import (
	"fmt"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Decoded is an unverified view of a request token
type Decoded struct {
	Header      map[string]any
	HeaderJSON  []byte
	PayloadJSON []byte
	Claims      *RequestClaims
	Signature   []byte
}

// Decode splits a token and decodes its segments without checking the signature.
func Decode(raw string) (*Decoded, error) {
	parser := jwtlib.NewParser()

	claims := &RequestClaims{}
	parsed, parts, err := parser.ParseUnverified(raw, claims)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	headerJSON, err := parser.DecodeSegment(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformedToken, err)
	}
	payloadJSON, err := parser.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrMalformedToken, err)
	}
	signature, err := parser.DecodeSegment(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: signature: %v", ErrMalformedToken, err)
	}

	return &Decoded{
		Header:      parsed.Header,
		HeaderJSON:  headerJSON,
		PayloadJSON: payloadJSON,
		Claims:      claims,
		Signature:   signature,
	}, nil
}
