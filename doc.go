// Package wsendpoint implements the core RFC 6455 WebSocket protocol engine:
// opening handshake validation, frame and message reassembly with the
// required conformance checks, outbound frame construction, and the closing
// handshake. It owns no transport of its own — callers supply an
// already-upgraded byte stream through the Transport interface; the
// Endpoint writes to it via SendBytes and is driven by the bytes-received
// and transport-broken callbacks it registers via SetCallbacks.
package wsendpoint
