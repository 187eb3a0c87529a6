package helper

import (
	"testing"

	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
)

func mustAddr(t *testing.T, raw string) ma.Multiaddr {
	t.Helper()
	addr, err := ma.NewMultiaddr(raw)
	if err != nil {
		t.Fatalf("NewMultiaddr(%q): %v", raw, err)
	}
	return addr
}

func mustPeerID(t *testing.T) peer.ID {
	t.Helper()
	kp, err := generateIdentity()
	if err != nil {
		t.Fatalf("generateIdentity: %v", err)
	}
	id, err := peer.Decode(kp.PeerID)
	if err != nil {
		t.Fatalf("peer.Decode: %v", err)
	}
	return id
}

func TestGatingPolicyDefaultAllowsEverything(t *testing.T) {
	g := newGatingPolicy()
	addr := mustAddr(t, "/ip4/1.2.3.4/tcp/8302")
	if !g.addrAllowed(addr) {
		t.Fatal("default policy should allow unlisted addresses")
	}
	if !g.peerAllowed(mustPeerID(t)) {
		t.Fatal("default policy should allow unlisted peers")
	}
}

func TestGatingPolicyBannedIP(t *testing.T) {
	g := newGatingPolicy()
	if err := g.apply(gatingConfig{BannedIPs: []string{"1.2.3.0/24"}}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if g.addrAllowed(mustAddr(t, "/ip4/1.2.3.4/tcp/8302")) {
		t.Fatal("address inside a banned CIDR should be denied")
	}
	if !g.addrAllowed(mustAddr(t, "/ip4/9.9.9.9/tcp/8302")) {
		t.Fatal("address outside the banned CIDR should be allowed")
	}
}

func TestGatingPolicyBannedIPAcceptsBareIP(t *testing.T) {
	g := newGatingPolicy()
	if err := g.apply(gatingConfig{BannedIPs: []string{"1.2.3.4"}}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if g.addrAllowed(mustAddr(t, "/ip4/1.2.3.5/tcp/8302")) != true {
		t.Fatal("a bare banned IP should not widen to the whole /24")
	}
	if g.addrAllowed(mustAddr(t, "/ip4/1.2.3.4/tcp/8302")) {
		t.Fatal("the exact banned IP should be denied")
	}
}

func TestGatingPolicyIsolateDeniesExceptTrusted(t *testing.T) {
	g := newGatingPolicy()
	if err := g.apply(gatingConfig{
		Isolate:    true,
		TrustedIPs: []string{"10.0.0.0/8"},
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if g.addrAllowed(mustAddr(t, "/ip4/8.8.8.8/tcp/8302")) {
		t.Fatal("isolate should deny addresses outside the trusted set")
	}
	if !g.addrAllowed(mustAddr(t, "/ip4/10.1.2.3/tcp/8302")) {
		t.Fatal("isolate should still allow explicitly trusted addresses")
	}
}

func TestGatingPolicyTrustedOverridesBanned(t *testing.T) {
	g := newGatingPolicy()
	if err := g.apply(gatingConfig{
		BannedIPs:  []string{"1.2.3.4/32"},
		TrustedIPs: []string{"1.2.3.4/32"},
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !g.addrAllowed(mustAddr(t, "/ip4/1.2.3.4/tcp/8302")) {
		t.Fatal("an address both banned and trusted should be allowed")
	}
}

func TestGatingPolicyPeerAllowedOverride(t *testing.T) {
	g := newGatingPolicy()
	id := mustPeerID(t)

	if err := g.apply(gatingConfig{BannedPeerIDs: []string{id.String()}}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if g.peerAllowed(id) {
		t.Fatal("a banned peer should be denied")
	}

	if err := g.apply(gatingConfig{
		BannedPeerIDs:  []string{id.String()},
		TrustedPeerIDs: []string{id.String()},
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !g.peerAllowed(id) {
		t.Fatal("trusted_peers must strictly override denied_peers")
	}
}

func TestGatingPolicyRejectsInvalidCIDR(t *testing.T) {
	g := newGatingPolicy()
	if err := g.apply(gatingConfig{BannedIPs: []string{"not-an-ip"}}); err == nil {
		t.Fatal("expected error applying an invalid CIDR entry")
	}
}

func TestGatingPolicyIgnoresNonIPAddrs(t *testing.T) {
	g := newGatingPolicy()
	if err := g.apply(gatingConfig{Isolate: true}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	// An address with no resolvable IP component (e.g. a bare /p2p/<id>) can't
	// be matched against any CIDR, so it passes through unfiltered.
	id := mustPeerID(t)
	addr := mustAddr(t, "/p2p/"+id.String())
	if !g.addrAllowed(addr) {
		t.Fatal("addresses without an IP component should not be blocked by isolate")
	}
}
