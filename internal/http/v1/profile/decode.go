package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/fxamacker/cbor/v2"

	profilesvc "github.com/integra/advisor-profile/internal/service/profile"
)

var (
	errUnsupportedMediaType = errors.New("unsupported media type")
	errMalformedBody        = errors.New("malformed body")
)

// notObjectError reports a well-formed body that is not a key/value object.
type notObjectError struct {
	got string
}

func (e *notObjectError) Error() string {
	return fmt.Sprintf("Invalid data. Expected an object, but got %s.", e.got)
}

// decodePayload parses a JSON or CBOR PATCH body into an untyped payload.
// An empty body is an empty payload.
func decodePayload(contentType string, body []byte) (profilesvc.Payload, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return profilesvc.Payload{}, nil
	}
	mt := "application/json"
	if contentType != "" {
		parsed, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return nil, fmt.Errorf("%w %q", errUnsupportedMediaType, contentType)
		}
		mt = parsed
	}
	switch {
	case mt == "application/json" || strings.HasSuffix(mt, "+json"):
		return decodeJSON(body)
	case mt == "application/cbor" || strings.HasSuffix(mt, "+cbor"):
		return decodeCBOR(body)
	default:
		return nil, fmt.Errorf("%w %q", errUnsupportedMediaType, mt)
	}
}

func decodeJSON(body []byte) (profilesvc.Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after JSON value", errMalformedBody)
	}
	return asPayload(v)
}

func decodeCBOR(body []byte) (profilesvc.Payload, error) {
	var v any
	if err := cbor.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return asPayload(v)
}

func asPayload(v any) (profilesvc.Payload, error) {
	switch m := v.(type) {
	case map[string]any:
		return profilesvc.Payload(m), nil
	case map[any]any:
		p := make(profilesvc.Payload, len(m))
		for k, val := range m {
			key, ok := k.(string)
			if !ok {
				return nil, &notObjectError{got: "a map with non-string keys"}
			}
			p[key] = val
		}
		return p, nil
	case []any:
		return nil, &notObjectError{got: "array"}
	case string:
		return nil, &notObjectError{got: "string"}
	case bool:
		return nil, &notObjectError{got: "boolean"}
	case nil:
		return nil, &notObjectError{got: "null"}
	case []byte:
		return nil, &notObjectError{got: "byte string"}
	default:
		return nil, &notObjectError{got: "number"}
	}
}
