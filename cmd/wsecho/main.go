// Command wsecho runs a minimal WebSocket echo server built on top of the
// wsendpoint engine, a gin HTTP router, and a net.Conn transport obtained
// by hijacking the upgraded connection. It exists to exercise the core
// end-to-end; the core itself never touches net.Conn or gin.
package main

import (
	"errors"
	"flag"
	"log"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	wsendpoint "go.wsendpoint.dev/core"
	"go.wsendpoint.dev/core/internal/wsecho"
	"go.wsendpoint.dev/core/internal/wsnet"
	"go.wsendpoint.dev/core/wsotel"
)

var tracer = otel.Tracer("go.wsendpoint.dev/core/cmd/wsecho")

func main() {
	addr := flag.String("addr", "localhost:8080", "listen address")
	flag.Parse()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/", handleUpgrade)

	log.Printf("listening on %s", *addr)
	if err := r.Run(*addr); err != nil {
		log.Fatal(err)
	}
}

func handleUpgrade(c *gin.Context) {
	conn, trailer, err := hijack(c.Writer)
	if err != nil {
		c.String(http.StatusInternalServerError, "%v", err)
		return
	}

	// Each hijacked connection gets its own span, tagged with a random
	// session id, so every diagnostic line wsotel records for it can be
	// correlated back to a single upgrade in a trace backend.
	ctx, span := tracer.Start(c.Request.Context(), "wsecho.connection",
		trace.WithAttributes(attribute.String("wsecho.connection_id", uuid.NewString())))
	defer span.End()

	ep := wsendpoint.NewEndpoint(nil)
	diag := wsotel.Wrap(ctx, wsendpoint.NewStdDiagnostics(), otel.GetTracerProvider())
	if err := ep.Configure(wsendpoint.Configuration{Diagnostics: diag}); err != nil {
		conn.Close()
		return
	}

	transport := wsnet.New(conn)
	resp := wsendpoint.NewHandshakeResponse()
	if !ep.OpenAsServer(transport, c.Request, resp, trailer) {
		writeRejection(conn, resp)
		return
	}
	writeSwitchingProtocols(conn, resp)

	ep.SetDelegates(wsecho.Delegates(ep))
	transport.Serve()
}

// hijack takes over the connection underlying w, returning it alongside
// any bytes the HTTP server had already buffered past the end of the request.
func hijack(w http.ResponseWriter) (net.Conn, []byte, error) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("wsecho: response writer does not support hijacking")
	}
	conn, brw, err := hj.Hijack()
	if err != nil {
		return nil, nil, err
	}
	var trailer []byte
	if n := brw.Reader.Buffered(); n > 0 {
		trailer, _ = brw.Reader.Peek(n)
	}
	return conn, trailer, nil
}

func writeSwitchingProtocols(conn net.Conn, resp *wsendpoint.HandshakeResponse) {
	httpResp := &http.Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		ProtoMajor: 1,
		ProtoMinor: 1,
	}
	httpResp.Write(conn)
}

func writeRejection(conn net.Conn, resp *wsendpoint.HandshakeResponse) {
	defer conn.Close()
	httpResp := &http.Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		ProtoMajor: 1,
		ProtoMinor: 1,
		Body:       http.NoBody,
	}
	httpResp.Write(conn)
}
