package apiclient

import (
	"encoding/json"
	"errors"
)

// CodeOK is the envelope code the platform API uses for successful
// responses. Any other code is treated as an application-level error,
// even when the transport status is 200.
const CodeOK = "OK"

// Envelope is the uniform response wrapper used by every platform API
// endpoint, for both success and error payloads.
type Envelope struct {
	Code        string          `json:"code"`
	Message     string          `json:"message"`
	Description string          `json:"description"`
	Data        json.RawMessage `json:"data"`
}

// OK reports whether the envelope carries a success code.
func (e *Envelope) OK() bool {
	return e != nil && e.Code == CodeOK
}

// DecodeData copies the envelope payload into dest.
func (e *Envelope) DecodeData(dest interface{}) error {
	if e == nil {
		return errors.New("nil envelope")
	}
	if len(e.Data) == 0 {
		return errors.New("envelope has no data")
	}
	return json.Unmarshal(e.Data, dest)
}

// errorData decodes the envelope payload as the loosely-typed error
// map used by validation responses (error code -> field name(s), plus
// an optional meta entry).
func (e *Envelope) errorData() map[string]interface{} {
	if e == nil || len(e.Data) == 0 {
		return nil
	}
	var data map[string]interface{}
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil
	}
	return data
}
