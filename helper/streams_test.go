package helper

import "testing"

func TestStreamRegistryPutGetDelete(t *testing.T) {
	r := newStreamRegistry()

	if _, ok := r.get(1); ok {
		t.Fatal("expected no stream registered yet")
	}

	r.put(1, nil)
	if _, ok := r.get(1); !ok {
		t.Fatal("expected stream 1 to be registered")
	}

	r.delete(1)
	if _, ok := r.get(1); ok {
		t.Fatal("expected stream 1 to be gone after delete")
	}
}

func TestCloseStreamUnknownIndex(t *testing.T) {
	r := newStreamRegistry()
	if err := closeStream(r, 123); err == nil {
		t.Fatal("expected error closing an unknown stream_idx")
	}
}

func TestResetStreamUnknownIndex(t *testing.T) {
	r := newStreamRegistry()
	if err := resetStream(r, 123); err == nil {
		t.Fatal("expected error resetting an unknown stream_idx")
	}
}

func TestSendStreamMsgUnknownIndex(t *testing.T) {
	r := newStreamRegistry()
	if err := sendStreamMsg(r, 123, blobEncode([]byte("hi"))); err == nil {
		t.Fatal("expected error sending on an unknown stream_idx")
	}
}

func TestSendStreamMsgRejectsBadBase64(t *testing.T) {
	r := newStreamRegistry()
	r.put(5, nil)
	if err := sendStreamMsg(r, 5, "not base64!!"); err == nil {
		t.Fatal("expected error decoding malformed base64 payload")
	}
}
