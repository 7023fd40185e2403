package wsendpoint

import (
	"crypto/rand"
	"io"
	"net/http"
	"sync"

	"go.wsendpoint.dev/core/internal/wsframe"
)

// Role distinguishes which side of the handshake an Endpoint played,
// since masking rules differ by role.
type Role int

// Role constants.
const (
	RoleClient Role = iota
	RoleServer
)

func (r Role) String() string {
	if r == RoleServer {
		return "server"
	}
	return "client"
}

// Endpoint owns all protocol state for one WebSocket connection. Create
// one with NewEndpoint, drive the handshake with StartOpenAsClient /
// FinishOpenAsClient or OpenAsServer, then install Delegates with
// SetDelegates to begin receiving events.
//
// All exported methods are safe for concurrent use. Every method that
// mutates state follows the same shape: acquire mu, run the equivalent
// *Locked method, release mu, then run the dispatcher — so user delegates
// are always invoked outside the lock.
type Endpoint struct {
	mu sync.Mutex

	config Configuration
	role   Role

	transport    Transport
	handshakeKey string

	closeSent, closeReceived bool
	sending, receiving       MessageType

	frameBuffer   []byte
	messageBuffer []byte

	eventQueue []Event

	delegates    Delegates
	delegatesSet bool

	rng io.Reader
}

// NewEndpoint creates an inert Endpoint. rng supplies masking keys and
// handshake nonces; if nil, crypto/rand.Reader is used.
func NewEndpoint(rng io.Reader) *Endpoint {
	if rng == nil {
		rng = rand.Reader
	}
	return &Endpoint{rng: rng}
}

// Configure overwrites the endpoint's configuration. Safe at any time.
func (e *Endpoint) Configure(c Configuration) error {
	if err := c.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	e.config = c
	e.mu.Unlock()
	e.dispatch()
	return nil
}

// Role reports which side of the handshake this endpoint played.
func (e *Endpoint) Role() Role {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.role
}

// StartOpenAsClient populates req's handshake headers and stores the
// generated key for later verification by FinishOpenAsClient.
func (e *Endpoint) StartOpenAsClient(req *http.Request) error {
	e.mu.Lock()
	err := e.startOpenAsClientLocked(req)
	e.mu.Unlock()
	e.dispatch()
	return err
}

// FinishOpenAsClient validates resp against the stored key and, on
// success, binds transport and opens the endpoint. It reports whether the
// handshake succeeded.
func (e *Endpoint) FinishOpenAsClient(transport Transport, resp *http.Response) bool {
	e.mu.Lock()
	ok := e.finishOpenAsClientLocked(transport, resp)
	e.mu.Unlock()
	e.dispatch()
	return ok
}

// OpenAsServer validates req, mutates resp with the handshake response
// headers, and on success binds transport and opens the endpoint. trailer
// is any bytes the HTTP parser read past the end of the handshake request that
// cannot be attributed to the WebSocket stream; a non-empty trailer
// always fails the handshake. It reports whether the handshake succeeded.
func (e *Endpoint) OpenAsServer(transport Transport, req *http.Request, resp *HandshakeResponse, trailer []byte) bool {
	e.mu.Lock()
	ok := e.openAsServerLocked(transport, req, resp, trailer)
	e.mu.Unlock()
	e.dispatch()
	return ok
}

// NewHandshakeResponse returns an empty HandshakeResponse suitable for
// passing to OpenAsServer.
func NewHandshakeResponse() *HandshakeResponse {
	return newHandshakeResponse()
}

// Ping sends a Ping control frame carrying data. It is a no-op if data
// exceeds 125 bytes, the transport is unbound, or the endpoint has
// already sent or received a close frame.
func (e *Endpoint) Ping(data []byte) {
	e.mu.Lock()
	e.sendControlLocked(wsframe.OpPing, data)
	e.mu.Unlock()
	e.dispatch()
}

// Pong sends a Pong control frame carrying data. Same no-op conditions as
// Ping.
func (e *Endpoint) Pong(data []byte) {
	e.mu.Lock()
	e.sendControlLocked(wsframe.OpPong, data)
	e.mu.Unlock()
	e.dispatch()
}

// SendText sends data as a Text frame (or fragment). lastFragment marks
// the final frame of the message; omit it (pass false) to begin or
// continue a fragmented message. No-op if the transport is unbound, the
// endpoint has sent or received a close frame, or a Binary fragment
// sequence is already in progress.
func (e *Endpoint) SendText(data []byte, lastFragment bool) {
	e.mu.Lock()
	e.sendDataLocked(MessageText, data, lastFragment)
	e.mu.Unlock()
	e.dispatch()
}

// SendBinary sends data as a Binary frame (or fragment). Same semantics
// as SendText.
func (e *Endpoint) SendBinary(data []byte, lastFragment bool) {
	e.mu.Lock()
	e.sendDataLocked(MessageBinary, data, lastFragment)
	e.mu.Unlock()
	e.dispatch()
}

// Close begins the closing handshake with the given code and reason. A
// second call after the first is a no-op.
func (e *Endpoint) Close(code StatusCode, reason string) {
	e.mu.Lock()
	e.closeLocked(code, reason, false)
	e.mu.Unlock()
	e.dispatch()
}

// SetDelegates installs the callbacks events are delivered to and
// flushes any events queued before they were set.
func (e *Endpoint) SetDelegates(d Delegates) {
	e.mu.Lock()
	e.delegates = d
	e.delegatesSet = true
	e.mu.Unlock()
	e.dispatch()
}
