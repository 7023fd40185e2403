// Package wspb provides protobuf message helpers over an Endpoint.
package wspb

import (
	"fmt"

	"github.com/golang/protobuf/proto"

	wsendpoint "go.wsendpoint.dev/core"
)

// Send marshals m as protobuf and sends it as a single Binary frame.
func Send(ep *wsendpoint.Endpoint, m proto.Message) error {
	b, err := proto.Marshal(m)
	if err != nil {
		return fmt.Errorf("wspb: failed to marshal: %w", err)
	}
	ep.SendBinary(b, true)
	return nil
}

// Decode unmarshals the content of a Binary event into m. Call it from a
// Delegates.Binary callback.
func Decode(content []byte, m proto.Message) error {
	if err := proto.Unmarshal(content, m); err != nil {
		return fmt.Errorf("wspb: failed to decode: %w", err)
	}
	return nil
}
