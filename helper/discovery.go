package helper

import (
	"context"
	"fmt"
	"time"

	"github.com/libp2p/go-libp2p/core/discovery"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/peerstore"
	mdns "github.com/libp2p/go-libp2p/p2p/discovery/mdns"
	drouting "github.com/libp2p/go-libp2p/p2p/discovery/routing"
)

// discoveryState holds the two discovery subsystems beginAdvertising wires
// up, plus the cancel function that stops the periodic DHT lookup loop.
type discoveryState struct {
	mdnsService mdns.Service
	routing     *drouting.RoutingDiscovery
	cancel      context.CancelFunc
}

type mdnsNotifee struct {
	found chan peer.AddrInfo
}

func (n *mdnsNotifee) HandlePeerFound(info peer.AddrInfo) {
	n.found <- info
}

// beginAdvertising starts local mDNS discovery and DHT-based rendezvous
// advertising/lookup, emitting discoveredPeer upcalls through emit for every
// valid peer either subsystem turns up, and for every new connection.
func beginAdvertising(ctx context.Context, s *p2pState, emit func(discoveredPeerUpcall)) error {
	notifee := &mdnsNotifee{found: make(chan peer.AddrInfo)}
	svc := mdns.NewMdnsService(s.host, mdnsServiceTag, notifee)
	if err := svc.Start(); err != nil {
		return badP2P(err)
	}

	routingDisc := drouting.NewRoutingDiscovery(s.dht)

	discCtx, cancel := context.WithCancel(ctx)
	s.discovery = &discoveryState{
		mdnsService: svc,
		routing:     routingDisc,
		cancel:      cancel,
	}

	validPeer := func(who peer.ID) bool {
		return who.Validate() == nil && who != s.me
	}
	foundPeer := func(who peer.ID) {
		addrs := addrInfoAddrsAsStrings(s.host, who)
		if len(addrs) == 0 {
			return
		}
		emit(discoveredPeerUpcall{
			Upcall:     upcallDiscoveredPeer,
			PeerID:     who.String(),
			Multiaddrs: addrs,
		})
	}

	go func() {
		for info := range notifee.found {
			if !validPeer(info.ID) {
				continue
			}
			s.host.Peerstore().AddAddrs(info.ID, info.Addrs, peerstore.ConnectedAddrTTL)
			foundPeer(info.ID)
		}
	}()

	if _, err := routingDisc.Advertise(discCtx, s.rendezvous); err != nil {
		return badP2P(err)
	}

	s.connManager.onConnect = func(_ network.Network, c network.Conn) {
		foundPeer(c.RemotePeer())
	}
	s.connManager.onDisconnect = func(network.Network, network.Conn) {}

	go func() {
		for {
			peersCh, err := routingDisc.FindPeers(discCtx, s.rendezvous, discovery.Limit(dhtFindPeersLimit))
			if err == nil {
				for info := range peersCh {
					if validPeer(info.ID) {
						s.host.Peerstore().AddAddrs(info.ID, info.Addrs, peerstore.ConnectedAddrTTL)
						foundPeer(info.ID)
					}
				}
			}
			select {
			case <-time.After(dhtFindPeersInterval):
			case <-discCtx.Done():
				return
			}
		}
	}()

	return nil
}

func (s *p2pState) stopAdvertising() {
	if s.discovery == nil {
		return
	}
	s.discovery.cancel()
	_ = s.discovery.mdnsService.Close()
}

// findPeer reports the peer info derived from the first open connection to
// id, the same contract as the original helper's findPeerInfo. With no open
// connection, it falls back to 127.0.0.1:0 under unsafe_no_trust_ip and
// errors otherwise.
func findPeer(s *p2pState, id peer.ID) (PeerInfo, error) {
	conns := s.host.Network().ConnsToPeer(id)
	if len(conns) == 0 {
		if s.unsafeNoTrustIP {
			return PeerInfo{Host: "127.0.0.1", Libp2pPort: 0, PeerID: id.String()}, nil
		}
		return PeerInfo{}, badP2P(fmt.Errorf("tried to find peer info but no open connections to that peer ID"))
	}
	conn := conns[0]
	host, port, ok := splitHostPort(conn.RemoteMultiaddr())
	if !ok {
		return PeerInfo{}, badP2P(fmt.Errorf("only IP/TCP connections are supported, got %s", conn.RemoteMultiaddr()))
	}
	return PeerInfo{Host: host, Libp2pPort: port, PeerID: id.String()}, nil
}

// listPeers enumerates currently connected peers, deduplicated by peer ID.
func listPeers(h host.Host) []PeerInfo {
	conns := h.Network().Conns()
	out := make([]PeerInfo, 0, len(conns))
	seen := make(map[peer.ID]struct{}, len(conns))
	for _, c := range conns {
		id := c.RemotePeer()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if pi, ok := addrInfoToPeerInfo(peer.AddrInfo{ID: id, Addrs: h.Peerstore().Addrs(id)}); ok {
			out = append(out, pi)
		}
	}
	return out
}
