package wsendpoint

import (
	"crypto/sha1"
	"encoding/base64"
	"io"
	"net/http"

	"golang.org/x/net/http/httpguts"
)

// keyGUID is the magic value appended to a client key before hashing, per
// RFC 6455 section 1.3.
var keyGUID = []byte("258EAFA5-E914-47DA-95CA-C5AB0DC85B11")

// ComputeAccept returns the Sec-WebSocket-Accept value for the given
// Sec-WebSocket-Key.
func ComputeAccept(key string) string {
	h := sha1.New()
	h.Write([]byte(key))
	h.Write(keyGUID)
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// HandshakeResponse is the server handshake response under construction;
// OpenAsServer mutates it in place rather than writing through a live
// http.ResponseWriter, since hijacking the connection is the transport's
// concern, not the core's.
type HandshakeResponse struct {
	StatusCode int
	Reason     string
	Header     http.Header
}

func newHandshakeResponse() *HandshakeResponse {
	return &HandshakeResponse{Header: http.Header{}}
}

func headerContainsToken(h http.Header, key, token string) bool {
	return httpguts.HeaderValuesContainsToken(h[http.CanonicalHeaderKey(key)], token)
}

func generateNonce(rng io.Reader) (string, error) {
	b := make([]byte, 16)
	if _, err := io.ReadFull(rng, b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// startOpenAsClientLocked populates req's handshake headers and stores the
// generated key on e. Assumes e.mu held.
func (e *Endpoint) startOpenAsClientLocked(req *http.Request) error {
	key, err := generateNonce(e.rng)
	if err != nil {
		return err
	}
	e.handshakeKey = key
	e.role = RoleClient

	if req.Header == nil {
		req.Header = http.Header{}
	}
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", key)
	req.Header.Set("Upgrade", "websocket")
	if !headerContainsToken(req.Header, "Connection", "upgrade") {
		if existing := req.Header.Get("Connection"); existing != "" {
			req.Header.Set("Connection", existing+", Upgrade")
		} else {
			req.Header.Set("Connection", "Upgrade")
		}
	}
	return nil
}

// finishOpenAsClientLocked validates resp against the stored handshake key
// per RFC 6455 section 4.1. Assumes e.mu held. Returns false without
// mutating e on any precondition failure.
func (e *Endpoint) finishOpenAsClientLocked(transport Transport, resp *http.Response) bool {
	if resp.StatusCode != http.StatusSwitchingProtocols {
		return false
	}
	if !headerContainsToken(resp.Header, "Connection", "upgrade") {
		return false
	}
	if !httpguts.HeaderValuesContainsToken([]string{resp.Header.Get("Upgrade")}, "websocket") {
		return false
	}
	if resp.Header.Get("Sec-WebSocket-Accept") != ComputeAccept(e.handshakeKey) {
		return false
	}
	if resp.Header.Get("Sec-WebSocket-Extensions") != "" {
		return false
	}
	if resp.Header.Get("Sec-WebSocket-Protocol") != "" {
		return false
	}

	e.bindTransportLocked(transport)
	return true
}

// openAsServerLocked validates req per RFC 6455 section 4.2.2 and, on
// success, populates resp and binds transport. Assumes e.mu held.
func (e *Endpoint) openAsServerLocked(transport Transport, req *http.Request, resp *HandshakeResponse, trailer []byte) bool {
	if resp.Header == nil {
		resp.Header = http.Header{}
	}

	if req.Method != http.MethodGet {
		return false
	}
	if !headerContainsToken(req.Header, "Connection", "upgrade") {
		return false
	}
	if !httpguts.HeaderValuesContainsToken([]string{req.Header.Get("Upgrade")}, "websocket") {
		return false
	}
	if req.Header.Get("Sec-WebSocket-Version") != "13" {
		resp.StatusCode = http.StatusBadRequest
		resp.Reason = "unsupported Sec-WebSocket-Version"
		return false
	}
	if len(trailer) != 0 {
		resp.StatusCode = http.StatusBadRequest
		resp.Reason = "unexpected data pipelined after handshake request"
		return false
	}
	key := req.Header.Get("Sec-WebSocket-Key")
	decoded, err := base64.StdEncoding.DecodeString(key)
	if err != nil || len(decoded) != 16 {
		resp.StatusCode = http.StatusBadRequest
		resp.Reason = "invalid Sec-WebSocket-Key"
		return false
	}

	resp.StatusCode = http.StatusSwitchingProtocols
	resp.Reason = "Switching Protocols"
	if !headerContainsToken(resp.Header, "Connection", "upgrade") {
		resp.Header.Set("Connection", "Upgrade")
	}
	resp.Header.Set("Upgrade", "websocket")
	resp.Header.Set("Sec-WebSocket-Accept", ComputeAccept(key))

	e.handshakeKey = key
	e.role = RoleServer
	e.bindTransportLocked(transport)
	return true
}

// bindTransportLocked stores transport and wires its callbacks to drive
// this endpoint. Assumes e.mu held.
func (e *Endpoint) bindTransportLocked(transport Transport) {
	e.transport = transport
	transport.SetCallbacks(e.onBytesReceived, e.onTransportBroken)
}
