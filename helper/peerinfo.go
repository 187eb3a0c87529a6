package helper

import (
	"fmt"
	"strconv"

	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
)

// addrInfoToPeerInfo extracts the dialable {host, port} back out of a
// multiaddr-bearing AddrInfo, preferring the first TCP/IP address present.
func addrInfoToPeerInfo(info peer.AddrInfo) (PeerInfo, bool) {
	for _, addr := range info.Addrs {
		host, port, ok := splitHostPort(addr)
		if !ok {
			continue
		}
		return PeerInfo{Host: host, Libp2pPort: port, PeerID: info.ID.String()}, true
	}
	return PeerInfo{}, false
}

// splitHostPort mirrors the original helper's parseMultiaddrWithID: only IP
// addresses directly followed by a TCP port are considered dialable.
func splitHostPort(addr ma.Multiaddr) (string, int, bool) {
	ipComponent, rest := ma.SplitFirst(addr)
	if ipComponent == nil {
		return "", 0, false
	}
	switch ipComponent.Protocol().Code {
	case ma.P_IP4, ma.P_IP6:
	default:
		return "", 0, false
	}

	tcpComponent, _ := ma.SplitFirst(rest)
	if tcpComponent == nil || tcpComponent.Protocol().Code != ma.P_TCP {
		return "", 0, false
	}

	port, err := strconv.Atoi(tcpComponent.Value())
	if err != nil {
		return "", 0, false
	}
	return ipComponent.Value(), port, true
}

// parseMultiaddrWithID splits a full "/ip4/.../tcp/.../p2p/<id>" multiaddr
// into its dialable prefix and trailing peer ID, mirroring the original
// helper's addPeer/findPeer argument handling.
func parseMultiaddrWithID(raw string) (peer.AddrInfo, error) {
	addr, err := ma.NewMultiaddr(raw)
	if err != nil {
		return peer.AddrInfo{}, badExternalAddr(fmt.Errorf("parse multiaddr %q: %w", raw, err))
	}
	info, err := peer.AddrInfoFromP2pAddr(addr)
	if err != nil {
		return peer.AddrInfo{}, badExternalAddr(fmt.Errorf("multiaddr %q missing /p2p/<peer id>: %w", raw, err))
	}
	return *info, nil
}
