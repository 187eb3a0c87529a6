package helper

import (
	"context"

	coreconnmgr "github.com/libp2p/go-libp2p/core/connmgr"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	connmgr "github.com/libp2p/go-libp2p/p2p/net/connmgr"
	ma "github.com/multiformats/go-multiaddr"
)

// trackingConnManager wraps the stock watermark-trimming connection manager
// and fans Connected/Disconnected notifications out to a caller-supplied
// hook, the same proxy-and-intercept shape as the teacher's connection
// manager wrapper.
type trackingConnManager struct {
	inner        *connmgr.BasicConnMgr
	onConnect    func(network.Network, network.Conn)
	onDisconnect func(network.Network, network.Conn)
}

func newTrackingConnManager() (*trackingConnManager, error) {
	inner, err := connmgr.NewConnManager(
		connManagerLowWater,
		connManagerHighWater,
		connmgr.WithGracePeriod(connManagerGrace),
	)
	if err != nil {
		return nil, err
	}
	noop := func(network.Network, network.Conn) {}
	return &trackingConnManager{inner: inner, onConnect: noop, onDisconnect: noop}, nil
}

// proxy coreconnmgr.ConnManager to the wrapped BasicConnMgr so this type can
// be passed directly to libp2p.ConnectionManager.
func (c *trackingConnManager) TagPeer(p peer.ID, tag string, weight int) {
	c.inner.TagPeer(p, tag, weight)
}
func (c *trackingConnManager) UntagPeer(p peer.ID, tag string) { c.inner.UntagPeer(p, tag) }
func (c *trackingConnManager) UpsertTag(p peer.ID, tag string, upsert func(int) int) {
	c.inner.UpsertTag(p, tag, upsert)
}
func (c *trackingConnManager) GetTagInfo(p peer.ID) *coreconnmgr.TagInfo {
	return c.inner.GetTagInfo(p)
}
func (c *trackingConnManager) TrimOpenConns(ctx context.Context)    { c.inner.TrimOpenConns(ctx) }
func (c *trackingConnManager) Protect(p peer.ID, tag string)        { c.inner.Protect(p, tag) }
func (c *trackingConnManager) Unprotect(p peer.ID, tag string) bool { return c.inner.Unprotect(p, tag) }
func (c *trackingConnManager) IsProtected(p peer.ID, tag string) bool {
	return c.inner.IsProtected(p, tag)
}
func (c *trackingConnManager) CheckLimit(l coreconnmgr.GetConnLimiter) error {
	return c.inner.CheckLimit(l)
}

func (c *trackingConnManager) Notifee() network.Notifiee { return c }

func (c *trackingConnManager) Listen(n network.Network, a ma.Multiaddr) {
	c.inner.Notifee().Listen(n, a)
}
func (c *trackingConnManager) ListenClose(n network.Network, a ma.Multiaddr) {
	c.inner.Notifee().ListenClose(n, a)
}
func (c *trackingConnManager) OpenedStream(n network.Network, s network.Stream) {}
func (c *trackingConnManager) ClosedStream(n network.Network, s network.Stream) {}
func (c *trackingConnManager) Connected(n network.Network, conn network.Conn) {
	c.onConnect(n, conn)
	c.inner.Notifee().Connected(n, conn)
}
func (c *trackingConnManager) Disconnected(n network.Network, conn network.Conn) {
	c.onDisconnect(n, conn)
	c.inner.Notifee().Disconnected(n, conn)
}

func (c *trackingConnManager) Close() error { return c.inner.Close() }
