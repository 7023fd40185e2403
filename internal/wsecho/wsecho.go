// Package wsecho wires an Endpoint's Delegates to echo every Text and
// Binary message back to the peer it arrived from, closing normally once
// the peer initiates the closing handshake.
package wsecho

import wsendpoint "go.wsendpoint.dev/core"

// Delegates returns a Delegates value that echoes messages received on ep
// back out over ep, and acknowledges a peer-initiated close by replying
// with a matching Close.
func Delegates(ep *wsendpoint.Endpoint) wsendpoint.Delegates {
	return wsendpoint.Delegates{
		Text: func(content []byte) {
			ep.SendText(content, true)
		},
		Binary: func(content []byte) {
			ep.SendBinary(content, true)
		},
		Close: func(code wsendpoint.StatusCode, reason string) {
			ep.Close(code, reason)
		},
	}
}
