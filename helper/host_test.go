package helper

import "testing"

func TestDecodeAddrInfos(t *testing.T) {
	a := mustPeerID(t)
	b := mustPeerID(t)

	raw := []string{
		"/ip4/198.51.100.1/tcp/8302/p2p/" + a.String(),
		"/ip4/198.51.100.2/tcp/8302/p2p/" + b.String(),
	}

	infos, err := decodeAddrInfos(raw)
	if err != nil {
		t.Fatalf("decodeAddrInfos: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("got %d infos, want 2", len(infos))
	}
	if infos[0].ID != a || infos[1].ID != b {
		t.Fatalf("unexpected peer ids: %+v", infos)
	}
}

func TestDecodeAddrInfosEmpty(t *testing.T) {
	infos, err := decodeAddrInfos(nil)
	if err != nil {
		t.Fatalf("decodeAddrInfos: %v", err)
	}
	if len(infos) != 0 {
		t.Fatalf("expected no infos, got %d", len(infos))
	}
}

func TestDecodeAddrInfosPropagatesError(t *testing.T) {
	if _, err := decodeAddrInfos([]string{"not a multiaddr"}); err == nil {
		t.Fatal("expected error decoding a malformed entry")
	}
}
