package responses

import (
	"encoding/json"
	"fmt"
)

// BaseResponse is the body every node endpoint replies with, Result is left
// raw to be decoded into the endpoint's type
type BaseResponse struct {
	ErrorMessage string          `json:"error_message,omitempty"`
	ErrorCode    string          `json:"error_code,omitempty"`
	Result       json.RawMessage `json:"result"`
}

func (r *BaseResponse) Err() error {
	if r.ErrorMessage == "" {
		return nil
	}
	if r.ErrorCode != "" {
		return fmt.Errorf("%s: %s", r.ErrorCode, r.ErrorMessage)
	}
	return fmt.Errorf("%s", r.ErrorMessage)
}

// Decode returns the response error, if any, or unmarshals the result into v
func (r *BaseResponse) Decode(v interface{}) error {
	if err := r.Err(); err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	if err := json.Unmarshal(r.Result, v); err != nil {
		return fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return nil
}
