package wsendpoint

import (
	"unicode/utf8"

	"go.wsendpoint.dev/core/internal/wsframe"
	"go.wsendpoint.dev/core/internal/wsmask"
)

// onBytesReceived is installed as the transport's bytes-received callback.
// It is the public entry point from the transport's thread(s): it
// acquires the lock, runs the reassembly loop, releases, and dispatches.
func (e *Endpoint) onBytesReceived(buf []byte) {
	e.mu.Lock()
	e.receiveBytesLocked(buf)
	e.mu.Unlock()
	e.dispatch()
}

// onTransportBroken is installed as the transport's broken callback.
func (e *Endpoint) onTransportBroken() {
	e.mu.Lock()
	e.transportBrokenLocked()
	e.mu.Unlock()
	e.dispatch()
}

func (e *Endpoint) transportBrokenLocked() {
	e.closeLocked(StatusAbnormalClosure, "connection broken by peer", true)
}

// receiveBytesLocked implements the receive path: guard
// against oversize accumulation, append to frameBuffer, then decode and
// dispatch as many complete frames as are available. Assumes e.mu held.
func (e *Endpoint) receiveBytesLocked(incoming []byte) {
	if e.config.MaxFrameSize != 0 && len(e.frameBuffer)+len(incoming) > e.config.MaxFrameSize {
		e.closeLocked(StatusMessageTooBig, "frame too large", true)
		return
	}
	e.frameBuffer = append(e.frameBuffer, incoming...)

	for {
		// Once closeSent, the stricter discard guard from the design
		// notes applies: no further inbound frames are processed even if
		// more are already buffered from this same call.
		if e.closeSent || e.closeReceived {
			return
		}

		h, headerLen, ok := wsframe.TryDecode(e.frameBuffer)
		if !ok {
			return
		}
		total := headerLen + int(h.PayloadLength)
		if len(e.frameBuffer) < total {
			return
		}

		if e.config.ReadRateLimit != nil && !e.config.ReadRateLimit.Allow() {
			e.closeLocked(StatusPolicyViolation, "policy violation: inbound frame rate exceeded", true)
			return
		}

		payload := append([]byte(nil), e.frameBuffer[headerLen:total]...)
		if h.Masked {
			wsmask.Apply(toMaskKeyBytes(h.MaskKey), 0, payload)
		}
		e.frameBuffer = e.frameBuffer[total:]

		e.handleFrameLocked(h, payload)
	}
}

func toMaskKeyBytes(key uint32) [4]byte {
	return [4]byte{byte(key), byte(key >> 8), byte(key >> 16), byte(key >> 24)}
}

// handleFrameLocked runs the per-frame validation in
// order, then dispatches by opcode. Assumes e.mu held.
func (e *Endpoint) handleFrameLocked(h wsframe.Header, payload []byte) {
	if h.RSV1 || h.RSV2 || h.RSV3 {
		e.closeLocked(StatusProtocolError, "reserved bits set", true)
		return
	}

	if e.role == RoleClient && h.Masked {
		e.closeLocked(StatusProtocolError, "masked frame", true)
		return
	}
	if e.role == RoleServer && !h.Masked {
		e.closeLocked(StatusProtocolError, "unmasked frame", true)
		return
	}

	switch h.Opcode {
	case wsframe.OpContinuation:
		e.handleContinuationLocked(h.Fin, payload)
	case wsframe.OpText:
		e.handleDataLocked(MessageText, h.Fin, payload)
	case wsframe.OpBinary:
		e.handleDataLocked(MessageBinary, h.Fin, payload)
	case wsframe.OpClose:
		e.handleCloseFrameLocked(payload)
	case wsframe.OpPing:
		e.sendPongLocked(payload)
		e.queueEventLocked(Event{Type: EventPing, Content: payload})
	case wsframe.OpPong:
		e.queueEventLocked(Event{Type: EventPong, Content: payload})
	default:
		e.closeLocked(StatusProtocolError, "unknown opcode", true)
	}
}

func (e *Endpoint) handleContinuationLocked(fin bool, payload []byte) {
	if e.receiving == MessageNone {
		e.messageBuffer = nil
		e.closeLocked(StatusProtocolError, "unexpected continuation frame", true)
		return
	}
	e.messageBuffer = append(e.messageBuffer, payload...)
	if !fin {
		return
	}

	content := e.messageBuffer
	messageType := e.receiving
	e.messageBuffer = nil
	e.receiving = MessageNone

	e.emitMessageLocked(messageType, content)
}

func (e *Endpoint) handleDataLocked(messageType MessageType, fin bool, payload []byte) {
	if e.receiving != MessageNone {
		e.closeLocked(StatusProtocolError, "last message incomplete", true)
		return
	}

	if fin {
		e.emitMessageLocked(messageType, payload)
		return
	}

	e.receiving = messageType
	e.messageBuffer = append([]byte(nil), payload...)
}

// emitMessageLocked applies the UTF-8 emission rule to text messages and
// queues the resulting event.
func (e *Endpoint) emitMessageLocked(messageType MessageType, content []byte) {
	if messageType == MessageText && !utf8.Valid(content) {
		e.closeLocked(StatusInvalidFramePayloadData, "invalid UTF-8 encoding in text message", true)
		return
	}

	eventType := EventBinary
	if messageType == MessageText {
		eventType = EventText
	}
	e.queueEventLocked(Event{Type: eventType, Content: content})
}

// handleCloseFrameLocked parses the close payload and
// routes into onCloseLocked.
func (e *Endpoint) handleCloseFrameLocked(payload []byte) {
	var code StatusCode
	var reason string

	if len(payload) >= 2 {
		rawCode, rawReason, err := wsframe.ParseClosePayload(payload)
		if err != nil {
			// Unreachable given the len check above, but fall through to
			// the no-status case defensively.
			code, reason = StatusNoStatusReceived, ""
		} else if !utf8.ValidString(rawReason) {
			e.closeLocked(StatusInvalidFramePayloadData, "invalid UTF-8 encoding in close reason", true)
			return
		} else {
			code, reason = StatusCode(rawCode), rawReason
		}
	} else {
		code, reason = StatusNoStatusReceived, ""
	}

	e.diagnostics().Logf("received close frame from %s: code=%d reason=%q", e.peerID(), code, reason)
	e.onCloseLocked(code, reason)
}

// onCloseLocked records the peer's half of the close handshake. Assumes
// e.mu held.
func (e *Endpoint) onCloseLocked(code StatusCode, reason string) {
	e.closeReceived = true
	e.queueEventLocked(Event{Type: EventClose, CloseCode: code, Content: []byte(reason)})

	if e.closeSent {
		if e.transport != nil {
			e.transport.Close(false)
		}
	}
}

// sendControlLocked builds and sends a Ping or Pong frame requested through
// the public Ping/Pong facade. No-op if data exceeds the control-frame
// payload limit, the transport is unbound, or a close frame has already
// been sent or received.
func (e *Endpoint) sendControlLocked(opcode wsframe.Opcode, data []byte) {
	if len(data) > wsframe.MaxControlFramePayload {
		return
	}
	if e.transport == nil || e.closeSent || e.closeReceived {
		return
	}
	e.sendFrameLocked(opcode, data, true)
}

// sendPongLocked echoes a received Ping's payload back as a Pong. Unlike
// sendControlLocked, it does not enforce the control-frame payload limit:
// the limit binds what this endpoint originates, not what it echoes back
// for a peer that already sent an oversized Ping. No-op if the transport
// is unbound or a close frame has already been sent.
func (e *Endpoint) sendPongLocked(data []byte) {
	if e.transport == nil || e.closeSent {
		return
	}
	e.sendFrameLocked(wsframe.OpPong, data, true)
}

// sendDataLocked implements the send path.
func (e *Endpoint) sendDataLocked(messageType MessageType, data []byte, lastFragment bool) {
	if e.transport == nil || e.closeSent || e.closeReceived {
		return
	}
	if e.sending != MessageNone && e.sending != messageType {
		return
	}

	opcode := wsframe.OpContinuation
	if e.sending == MessageNone {
		if messageType == MessageText {
			opcode = wsframe.OpText
		} else {
			opcode = wsframe.OpBinary
		}
	}

	e.sendFrameLocked(opcode, data, lastFragment)

	if lastFragment {
		e.sending = MessageNone
	} else {
		e.sending = messageType
	}
}

// sendFrameLocked encodes and transmits a single frame with the given FIN
// bit, masking it if this endpoint is playing the client role. Assumes
// e.mu held.
func (e *Endpoint) sendFrameLocked(opcode wsframe.Opcode, payload []byte, fin bool) {
	h := wsframe.Header{
		Fin:           fin,
		Opcode:        opcode,
		PayloadLength: int64(len(payload)),
		Masked:        e.role == RoleClient,
	}

	buf := make([]byte, 0, wsframe.MaxHeaderSize+len(payload))

	if h.Masked {
		keyBytes, err := wsmask.NewKey(e.rng)
		if err != nil {
			// Without a usable random source we cannot emit a conformant
			// client frame; treat it like a transport failure.
			e.closeLocked(StatusInternalError, "failed to generate masking key", true)
			return
		}
		h.MaskKey = uint32(keyBytes[0]) | uint32(keyBytes[1])<<8 | uint32(keyBytes[2])<<16 | uint32(keyBytes[3])<<24
		buf = wsframe.AppendHeader(buf, h)

		masked := append([]byte(nil), payload...)
		wsmask.Apply(keyBytes, 0, masked)
		buf = append(buf, masked...)
	} else {
		buf = wsframe.AppendHeader(buf, h)
		buf = append(buf, payload...)
	}

	if e.transport != nil {
		e.transport.SendBytes(buf)
	}
}

// closeLocked implements the public Close orchestration.
// Assumes e.mu held.
func (e *Endpoint) closeLocked(code StatusCode, reason string, fail bool) {
	if e.closeSent {
		return
	}
	e.closeSent = true

	if code != StatusAbnormalClosure {
		var payload []byte
		if code != StatusNoStatusReceived {
			payload = append(payload, byte(code>>8), byte(code))
			payload = append(payload, reason...)
		}
		e.sendFrameLocked(wsframe.OpClose, payload, true)
	}

	if fail {
		// Synthesizes local observation of the close without waiting for
		// the peer; onCloseLocked will in turn request an unclean break
		// since closeSent is already true by this point.
		e.onCloseLocked(code, reason)
	} else if e.closeReceived && e.transport != nil {
		e.transport.Close(true)
	}

	e.diagnostics().Logf("closing connection to %s: code=%d reason=%q", e.peerID(), code, reason)
}

func (e *Endpoint) diagnostics() Diagnostics {
	return e.config.diagnostics()
}

func (e *Endpoint) peerID() string {
	if e.transport == nil {
		return "<unbound>"
	}
	return e.transport.PeerID()
}
