package wsendpoint

// Transport is the byte-stream collaborator an Endpoint drives. It
// represents an already-upgraded, reliable, ordered connection; the core
// never dials, listens, or parses HTTP itself.
//
// Implementations must treat SendBytes as non-blocking from the caller's
// perspective (queue internally if necessary) and must invoke the
// callbacks registered via SetCallbacks at most one at a time.
type Transport interface {
	// SendBytes enqueues buf for delivery to the peer, in order.
	SendBytes(buf []byte) error

	// Close terminates the stream. clean requests a TCP FIN/TLS
	// close_notify where the transport is able to perform one; when
	// false the transport should tear the connection down immediately.
	Close(clean bool) error

	// PeerID identifies the remote side for diagnostics only.
	PeerID() string

	// SetCallbacks registers the bytes-received and broken callbacks the
	// transport must invoke as data arrives or the connection fails. A
	// transport that has already been handed to an Endpoint with its
	// callbacks set is expected to replace them, not stack them.
	SetCallbacks(onBytesReceived func(buf []byte), onTransportBroken func())
}

// Diagnostics is the logging sink the engine reports protocol-level
// events to. It is assumed safe for concurrent use.
type Diagnostics interface {
	Logf(format string, args ...interface{})
}
