// Package wsjson provides JSON message helpers over an Endpoint.
package wsjson

import (
	"encoding/json"
	"fmt"

	wsendpoint "go.wsendpoint.dev/core"
)

// Send marshals v as JSON and sends it as a single Text frame.
func Send(ep *wsendpoint.Endpoint, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("wsjson: failed to marshal: %w", err)
	}
	ep.SendText(b, true)
	return nil
}

// Decode unmarshals the content of a Text event into v. Call it from a
// Delegates.Text callback.
func Decode(content []byte, v interface{}) error {
	if err := json.Unmarshal(content, v); err != nil {
		return fmt.Errorf("wsjson: failed to decode: %w", err)
	}
	return nil
}
