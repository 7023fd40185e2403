package wsframe

import (
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func init() {
	rand.Seed(time.Now().UnixNano())
}

func randBool() bool {
	return rand.Intn(2) == 0
}

func TestTryDecode_incomplete(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		buf  []byte
	}{
		{"empty", nil},
		{"oneByte", []byte{0xff}},
		{"missingExtendedLength", []byte{0x81, 126}},
		{"missingMaskKey", []byte{0x81, 0x80 | 10}},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, _, ok := TryDecode(tc.buf)
			if ok {
				t.Fatalf("expected incomplete decode for %v", tc.buf)
			}
		})
	}
}

func TestAppendHeader_negativeLength(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on negative payload length")
		}
	}()
	AppendHeader(nil, Header{PayloadLength: -1})
}

func TestHeader_roundtrip_lengths(t *testing.T) {
	t.Parallel()

	lengths := []int{0, 1, 124, 125, 126, 4096, 65535, 65536, 131072}
	for _, n := range lengths {
		n := n
		t.Run(strconv.Itoa(n), func(t *testing.T) {
			t.Parallel()
			checkRoundtrip(t, Header{PayloadLength: int64(n)})
		})
	}
}

func TestHeader_roundtrip_fuzz(t *testing.T) {
	t.Parallel()

	for i := 0; i < 1000; i++ {
		h := Header{
			Fin:           randBool(),
			RSV1:          randBool(),
			RSV2:          randBool(),
			RSV3:          randBool(),
			Opcode:        Opcode(rand.Intn(1 << 4)),
			Masked:        randBool(),
			PayloadLength: rand.Int63(),
		}
		if h.Masked {
			h.MaskKey = rand.Uint32()
		}
		checkRoundtrip(t, h)
	}
}

func checkRoundtrip(t *testing.T, h Header) {
	t.Helper()

	buf := AppendHeader(nil, h)
	// Feed TryDecode a buffer with extra trailing bytes to ensure headerLen
	// is reported correctly rather than just "consume everything".
	buf = append(buf, 0xAA, 0xBB, 0xCC)

	got, n, ok := TryDecode(buf)
	if !ok {
		t.Fatalf("TryDecode reported incomplete for a fully written header: %#v", h)
	}
	if n != len(buf)-3 {
		t.Fatalf("headerLen = %d, want %d", n, len(buf)-3)
	}
	if !cmp.Equal(h, got) {
		t.Fatalf("decoded header differs: %v", cmp.Diff(h, got))
	}
}

func TestParseClosePayload(t *testing.T) {
	t.Parallel()

	_, _, err := ParseClosePayload([]byte{0x01})
	if err == nil {
		t.Fatal("expected error for undersized close payload")
	}

	code, reason, err := ParseClosePayload([]byte{0x03, 0xe8, 'b', 'y', 'e'})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 1000 || reason != "bye" {
		t.Fatalf("got code=%d reason=%q", code, reason)
	}
}
