// Package wsnet adapts a net.Conn, typically one obtained by hijacking an
// already-upgraded HTTP connection, into the wsendpoint.Transport the core
// engine expects. It is reference plumbing for cmd/wsecho, not part of
// the core: the engine never dials, listens, or reads a socket itself.
package wsnet

import (
	"net"
	"sync"
)

// Conn wraps net.Conn as a wsendpoint.Transport. Create one with New,
// register it with an Endpoint's handshake call, then start its read
// loop with Serve.
type Conn struct {
	conn net.Conn

	mu       sync.Mutex
	onBytes  func(buf []byte)
	onBroken func()
}

// New returns a Conn wrapping c. Serve must be called separately to begin
// feeding received bytes to the callbacks an Endpoint will register via
// SetCallbacks.
func New(c net.Conn) *Conn {
	return &Conn{conn: c}
}

func (c *Conn) SetCallbacks(onBytesReceived func(buf []byte), onTransportBroken func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onBytes = onBytesReceived
	c.onBroken = onTransportBroken
}

func (c *Conn) SendBytes(buf []byte) error {
	_, err := c.conn.Write(buf)
	return err
}

func (c *Conn) Close(clean bool) error {
	return c.conn.Close()
}

func (c *Conn) PeerID() string {
	return c.conn.RemoteAddr().String()
}

// Serve reads from the wrapped connection until it errors or is closed,
// invoking the registered onBytesReceived callback for each chunk read
// and onTransportBroken once when the loop exits. It blocks the calling
// goroutine; callers run it in its own goroutine per connection.
func (c *Conn) Serve() {
	buf := make([]byte, 32*1024)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			c.mu.Lock()
			onBytes := c.onBytes
			c.mu.Unlock()
			if onBytes != nil {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				onBytes(chunk)
			}
		}
		if err != nil {
			c.mu.Lock()
			onBroken := c.onBroken
			c.mu.Unlock()
			if onBroken != nil {
				onBroken()
			}
			return
		}
	}
}
