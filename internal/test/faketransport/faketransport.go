// Package faketransport provides an in-process, synchronous
// wsendpoint.Transport pair for exercising an Endpoint without a real
// network connection.
package faketransport

// Fake is a wsendpoint.Transport backed by a direct call into its peer
// rather than a socket. Delivery is synchronous: SendBytes invokes the
// peer's bytes-received callback before returning.
type Fake struct {
	id       string
	peer     *Fake
	onBytes  func(buf []byte)
	onBroken func()

	Sent   [][]byte
	Closed bool
	Clean  bool
}

// NewPair returns two linked Fake transports, each the other's peer.
func NewPair(idA, idB string) (*Fake, *Fake) {
	a := &Fake{id: idA}
	b := &Fake{id: idB}
	a.peer = b
	b.peer = a
	return a, b
}

func (f *Fake) SetCallbacks(onBytesReceived func(buf []byte), onTransportBroken func()) {
	f.onBytes = onBytesReceived
	f.onBroken = onTransportBroken
}

func (f *Fake) SendBytes(buf []byte) error {
	cp := append([]byte(nil), buf...)
	f.Sent = append(f.Sent, cp)
	if f.peer != nil && f.peer.onBytes != nil {
		f.peer.onBytes(append([]byte(nil), cp...))
	}
	return nil
}

func (f *Fake) Close(clean bool) error {
	f.Closed = true
	f.Clean = clean
	return nil
}

func (f *Fake) PeerID() string {
	return f.id
}

// Break synthesizes a transport failure by invoking the registered broken
// callback, as a real transport would on an unexpected disconnect.
func (f *Fake) Break() {
	if f.onBroken != nil {
		f.onBroken()
	}
}

// Deliver feeds buf directly into f's bytes-received callback, bypassing
// the peer link. Useful for scenario tests that assert on raw wire bytes
// rather than driving a second Endpoint.
func (f *Fake) Deliver(buf []byte) {
	if f.onBytes != nil {
		f.onBytes(buf)
	}
}
