package wsendpoint_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	wsendpoint "go.wsendpoint.dev/core"
	"go.wsendpoint.dev/core/internal/assert"
	"go.wsendpoint.dev/core/internal/wsecho"
	"go.wsendpoint.dev/core/internal/wsnet"
)

// TestInteropWithGorillaClient drives a real TCP loopback connection
// between this package's server-role Endpoint and gorilla/websocket's
// client, an independent WebSocket implementation retrieved alongside
// this one, to check the handshake and framing actually interoperate
// rather than merely agreeing with themselves.
func TestInteropWithGorillaClient(t *testing.T) {
	t.Parallel()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.GET("/echo", func(c *gin.Context) {
		hj, ok := c.Writer.(http.Hijacker)
		if !ok {
			c.String(http.StatusInternalServerError, "no hijacker")
			return
		}
		conn, brw, err := hj.Hijack()
		assert.Success(t, err)

		var trailer []byte
		if n := brw.Reader.Buffered(); n > 0 {
			trailer, _ = brw.Reader.Peek(n)
		}

		ep := wsendpoint.NewEndpoint(nil)
		transport := wsnet.New(conn)
		resp := wsendpoint.NewHandshakeResponse()
		if !ep.OpenAsServer(transport, c.Request, resp, trailer) {
			conn.Close()
			return
		}

		httpResp := &http.Response{StatusCode: resp.StatusCode, Header: resp.Header, ProtoMajor: 1, ProtoMinor: 1}
		assert.Success(t, httpResp.Write(conn))

		ep.SetDelegates(wsecho.Delegates(ep))
		go transport.Serve()
	})

	s := httptest.NewServer(r)
	defer s.Close()

	wsURL := "ws" + s.URL[len("http"):] + "/echo"

	dialer := &websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	c, _, err := dialer.Dial(wsURL, nil)
	assert.Success(t, err)
	defer c.Close()

	assert.Success(t, c.WriteMessage(websocket.TextMessage, []byte("interop")))

	assert.Success(t, c.SetReadDeadline(time.Now().Add(5*time.Second)))
	typ, content, err := c.ReadMessage()
	assert.Success(t, err)
	if typ != websocket.TextMessage {
		t.Fatalf("message type = %d, want %d", typ, websocket.TextMessage)
	}
	if string(content) != "interop" {
		t.Fatalf("got %q, want %q", content, "interop")
	}
}
