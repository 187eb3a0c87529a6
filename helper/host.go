package helper

import (
	"context"
	"fmt"
	"path/filepath"

	badger "github.com/ipfs/go-ds-badger"
	libp2p "github.com/libp2p/go-libp2p"
	dht "github.com/libp2p/go-libp2p-kad-dht"
	"github.com/libp2p/go-libp2p-kad-dht/dual"
	pstoreds "github.com/libp2p/go-libp2p-peerstore/pstoreds"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/routing"
	record "github.com/libp2p/go-libp2p-record"
	mplex "github.com/libp2p/go-libp2p-mplex"
	ma "github.com/multiformats/go-multiaddr"
	"golang.org/x/crypto/blake2b"
)

// pkOnlyValidator restricts the DHT record validator to the "pk" namespace,
// excluding IPNS resolution from this network entirely.
type pkOnlyValidator struct {
	base record.Validator
}

func (v pkOnlyValidator) Validate(key string, value []byte) error {
	return v.base.Validate(key, value)
}

func (v pkOnlyValidator) Select(key string, values [][]byte) (int, error) {
	return v.base.Select(key, values)
}

// p2pState bundles everything configure produces and every later method
// operates on. It stands in for the original helper's package-level "P2p"
// pointer field on app.
type p2pState struct {
	host            host.Host
	dht             *dual.DHT
	pubsub          *pubsub.PubSub
	gating          *gatingPolicy
	connManager     *trackingConnManager
	me              peer.ID
	rendezvous      string
	peerstoreDS     *badger.Datastore
	dhtDS           *badger.Datastore
	unsafeNoTrustIP bool

	discovery *discoveryState
}

type configureParams struct {
	Statedir        string       `json:"statedir"`
	PrivateKey      string       `json:"privk"`
	NetworkID       string       `json:"network_id"`
	ListenOn        []string     `json:"ifaces"`
	External        string       `json:"external_maddr"`
	UnsafeNoTrustIP bool         `json:"unsafe_no_trust_ip"`
	Flood           bool         `json:"flood"`
	PeerExchange    bool         `json:"peer_exchange"`
	DirectPeers     []string     `json:"direct_peers"`
	SeedPeers       []string     `json:"seed_peers"`
	GatingConfig    gatingConfig `json:"gating_config"`
}

// configure builds the full libp2p stack from scratch, mirroring MakeHelper:
// two badger datastores backing the peerstore and DHT, a blake2b-derived
// private network key, a dual WAN/LAN DHT restricted to the pk record
// namespace, and gossipsub layered on top.
func configure(ctx context.Context, p configureParams) (*p2pState, error) {
	priv, err := parsePrivateKey(p.PrivateKey)
	if err != nil {
		return nil, badRPC(fmt.Errorf("parse privk: %w", err))
	}
	me, err := peer.IDFromPrivateKey(priv)
	if err != nil {
		return nil, badRPC(fmt.Errorf("derive peer id: %w", err))
	}

	listenAddrs := make([]ma.Multiaddr, len(p.ListenOn))
	for i, raw := range p.ListenOn {
		addr, err := ma.NewMultiaddr(raw)
		if err != nil {
			return nil, badRPC(fmt.Errorf("parse iface %q: %w", raw, err))
		}
		listenAddrs[i] = addr
	}

	seeds, err := decodeAddrInfos(p.SeedPeers)
	if err != nil {
		return nil, err
	}
	directPeers, err := decodeAddrInfos(p.DirectPeers)
	if err != nil {
		return nil, err
	}

	var externalAddr ma.Multiaddr
	if p.External != "" {
		externalAddr, err = ma.NewMultiaddr(p.External)
		if err != nil {
			return nil, badExternalAddr(fmt.Errorf("parse external_maddr: %w", err))
		}
	}

	gating := newGatingPolicy()
	if err := gating.apply(p.GatingConfig); err != nil {
		return nil, err
	}

	peerstoreDS, err := badger.NewDatastore(filepath.Join(p.Statedir, "libp2p-peerstore-v0"), &badger.DefaultOptions)
	if err != nil {
		return nil, badHelperInit(err)
	}
	dhtDS, err := badger.NewDatastore(filepath.Join(p.Statedir, "libp2p-dht-v0"), &badger.DefaultOptions)
	if err != nil {
		return nil, badHelperInit(err)
	}

	ps, err := pstoreds.NewPeerstore(ctx, peerstoreDS, pstoreds.DefaultOpts())
	if err != nil {
		return nil, badHelperInit(err)
	}

	rendezvous := fmt.Sprintf(rendezvousTemplate, p.NetworkID)
	pnetKey := blake2b.Sum256([]byte(rendezvous))

	validator := pkOnlyValidator{base: record.NamespacedValidator{"pk": record.PublicKeyValidator{}}}

	connManager, err := newTrackingConnManager()
	if err != nil {
		return nil, badHelperInit(err)
	}

	var kad *dual.DHT
	opts := []libp2p.Option{
		libp2p.Muxer(mplexProtocolID, mplex.DefaultTransport),
		libp2p.Identity(priv),
		libp2p.Peerstore(ps),
		libp2p.DisableRelay(),
		libp2p.ConnectionGater(gating),
		libp2p.ConnectionManager(connManager),
		libp2p.ListenAddrs(listenAddrs...),
		libp2p.NATPortMap(),
		libp2p.PrivateNetwork(pnetKey[:]),
		libp2p.Routing(func(h host.Host) (routing.PeerRouting, error) {
			d, err := dual.New(ctx, h,
				dual.WanDHTOption(dht.Datastore(dhtDS)),
				dual.DHTOption(dht.Validator(validator)),
				dual.WanDHTOption(dht.BootstrapPeers(seeds...)),
				dual.DHTOption(dht.ProtocolPrefix(dhtProtocolPrefix)),
			)
			kad = d
			return d, err
		}),
	}
	if externalAddr != nil {
		opts = append(opts, libp2p.AddrsFactory(func(as []ma.Multiaddr) []ma.Multiaddr {
			return append(as, externalAddr)
		}))
	}
	h, err := libp2p.New(opts...)
	if err != nil {
		return nil, badHelperInit(err)
	}

	kad.Bootstrap(ctx)

	pubsubOpts := []pubsub.Option{
		pubsub.WithMaxMessageSize(gossipsubMaxMessageBytes),
		pubsub.WithPeerExchange(p.PeerExchange),
		pubsub.WithFloodPublish(p.Flood),
		pubsub.WithDirectPeers(directPeers),
	}
	gs, err := pubsub.NewGossipSub(ctx, h, pubsubOpts...)
	if err != nil {
		return nil, badHelperInit(err)
	}

	return &p2pState{
		host:            h,
		dht:             kad,
		pubsub:          gs,
		gating:          gating,
		connManager:     connManager,
		me:              me,
		rendezvous:      rendezvous,
		peerstoreDS:     peerstoreDS,
		dhtDS:           dhtDS,
		unsafeNoTrustIP: p.UnsafeNoTrustIP,
	}, nil
}

func decodeAddrInfos(raw []string) ([]peer.AddrInfo, error) {
	out := make([]peer.AddrInfo, 0, len(raw))
	for _, v := range raw {
		info, err := parseMultiaddrWithID(v)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

func (s *p2pState) close() error {
	if s.dht != nil {
		_ = s.dht.Close()
	}
	if s.host != nil {
		_ = s.host.Close()
	}
	if s.connManager != nil {
		_ = s.connManager.Close()
	}
	if s.peerstoreDS != nil {
		_ = s.peerstoreDS.Close()
	}
	if s.dhtDS != nil {
		_ = s.dhtDS.Close()
	}
	return nil
}

// addrInfoAddrsAsStrings renders a peerstore's known addresses for a peer as
// plain strings, used by discovery's discoveredPeer upcall.
func addrInfoAddrsAsStrings(h host.Host, id peer.ID) []string {
	addrs := h.Peerstore().Addrs(id)
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.String()
	}
	return out
}
