package helper

import (
	"testing"

	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
)

func TestSplitHostPortIPv4(t *testing.T) {
	host, port, ok := splitHostPort(mustAddr(t, "/ip4/127.0.0.1/tcp/9000"))
	if !ok {
		t.Fatal("expected a dialable ip4/tcp address to split")
	}
	if host != "127.0.0.1" || port != 9000 {
		t.Fatalf("got host=%q port=%d, want 127.0.0.1:9000", host, port)
	}
}

func TestSplitHostPortIPv6(t *testing.T) {
	host, port, ok := splitHostPort(mustAddr(t, "/ip6/::1/tcp/4001"))
	if !ok {
		t.Fatal("expected a dialable ip6/tcp address to split")
	}
	if host != "::1" || port != 4001 {
		t.Fatalf("got host=%q port=%d, want ::1:4001", host, port)
	}
}

func TestSplitHostPortRejectsNonTCP(t *testing.T) {
	_, _, ok := splitHostPort(mustAddr(t, "/ip4/127.0.0.1/udp/9000"))
	if ok {
		t.Fatal("a non-TCP transport should not be considered dialable")
	}
}

func TestSplitHostPortRejectsNonIPFirstComponent(t *testing.T) {
	id := mustPeerID(t)
	_, _, ok := splitHostPort(mustAddr(t, "/p2p/"+id.String()))
	if ok {
		t.Fatal("an address not starting with ip4/ip6 should not split")
	}
}

func TestAddrInfoToPeerInfo(t *testing.T) {
	id := mustPeerID(t)
	info := peer.AddrInfo{
		ID:    id,
		Addrs: []ma.Multiaddr{mustAddr(t, "/ip4/203.0.113.9/tcp/8302")},
	}

	pi, ok := addrInfoToPeerInfo(info)
	if !ok {
		t.Fatal("expected a dialable address to convert")
	}
	if pi.Host != "203.0.113.9" || pi.Libp2pPort != 8302 || pi.PeerID != id.String() {
		t.Fatalf("unexpected PeerInfo: %+v", pi)
	}
}

func TestAddrInfoToPeerInfoNoDialableAddr(t *testing.T) {
	info := peer.AddrInfo{ID: mustPeerID(t)}
	if _, ok := addrInfoToPeerInfo(info); ok {
		t.Fatal("expected no dialable address for an empty AddrInfo")
	}
}

func TestParseMultiaddrWithID(t *testing.T) {
	id := mustPeerID(t)
	raw := "/ip4/198.51.100.2/tcp/8302/p2p/" + id.String()

	info, err := parseMultiaddrWithID(raw)
	if err != nil {
		t.Fatalf("parseMultiaddrWithID: %v", err)
	}
	if info.ID != id {
		t.Fatalf("got peer id %s, want %s", info.ID, id)
	}
}

func TestParseMultiaddrWithIDRequiresPeerComponent(t *testing.T) {
	if _, err := parseMultiaddrWithID("/ip4/198.51.100.2/tcp/8302"); err == nil {
		t.Fatal("expected error for a multiaddr missing /p2p/<id>")
	}
}
