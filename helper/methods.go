package helper

import (
	"fmt"

	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
)

type listenBody struct {
	Iface string `json:"iface"`
}

type publishBody struct {
	Topic string `json:"topic"`
	Data  string `json:"data"`
}

type subscribeBody struct {
	Topic        string `json:"topic"`
	Subscription int    `json:"subscription_idx"`
}

type unsubscribeBody struct {
	Subscription int `json:"subscription_idx"`
}

type validationCompleteBody struct {
	Seqno   int64  `json:"seqno"`
	IsValid string `json:"is_valid"`
}

type generateKeypairResult struct {
	PrivateKey string `json:"sk"`
	PublicKey  string `json:"pk"`
	PeerID     string `json:"peer_id"`
}

type openStreamBody struct {
	Peer       string `json:"peer"`
	ProtocolID string `json:"protocol"`
}

type closeStreamBody struct {
	StreamIdx int64 `json:"stream_idx"`
}

type resetStreamBody struct {
	StreamIdx int64 `json:"stream_idx"`
}

type sendStreamMsgBody struct {
	StreamIdx int64  `json:"stream_idx"`
	Data      string `json:"data"`
}

type addStreamHandlerBody struct {
	Protocol string `json:"protocol"`
}

type removeStreamHandlerBody struct {
	Protocol string `json:"protocol"`
}

type addPeerBody struct {
	Peer string `json:"peer"`
}

type findPeerBody struct {
	PeerID string `json:"peer_id"`
}

// dispatch runs one already-decoded command against a. It returns the value
// to marshal as the success payload, or a tagged error. Every branch mirrors
// one method of the original helper's per-tag handler table.
func (a *App) dispatch(method Method, body []byte) (any, error) {
	if method != MethodConfigure && method != MethodGenerateKeypair && a.p2p() == nil {
		return nil, errNotConfigured()
	}

	switch method {
	case MethodConfigure:
		var params configureParams
		decodeBody(body, &params)
		state, err := configure(a.ctx, params)
		if err != nil {
			return nil, err
		}
		a.setP2P(state)
		return "configure success", nil

	case MethodListen:
		var b listenBody
		decodeBody(body, &b)
		addrs, err := listenOn(a.p2p(), b.Iface)
		if err != nil {
			return nil, err
		}
		return addrs, nil

	case MethodListeningAddrs:
		return a.p2p().host.Addrs(), nil

	case MethodPublish:
		var b publishBody
		decodeBody(body, &b)
		if err := publish(a.p2p(), b.Topic, b.Data); err != nil {
			return nil, err
		}
		return "publish success", nil

	case MethodSubscribe:
		var b subscribeBody
		decodeBody(body, &b)
		if err := subscribe(a.ctx, a.p2p(), a.pubsub, a.seq, b.Subscription, b.Topic, a.emit); err != nil {
			return nil, err
		}
		return "subscribe success", nil

	case MethodUnsubscribe:
		var b unsubscribeBody
		decodeBody(body, &b)
		if err := unsubscribe(a.pubsub, b.Subscription); err != nil {
			return nil, err
		}
		return "unsubscribe success", nil

	case MethodValidationComplete:
		var b validationCompleteBody
		decodeBody(body, &b)
		if err := validationComplete(a.pubsub, b.Seqno, b.IsValid); err != nil {
			return nil, err
		}
		return "validationComplete success", nil

	case MethodGenerateKeypair:
		kp, err := generateIdentity()
		if err != nil {
			return nil, badP2P(err)
		}
		return generateKeypairResult{PrivateKey: kp.PrivateKey, PublicKey: kp.PublicKey, PeerID: kp.PeerID}, nil

	case MethodOpenStream:
		var b openStreamBody
		decodeBody(body, &b)
		res, err := openStream(a.ctx, a.p2p(), a.streams, a.seq, b.Peer, b.ProtocolID, a.emit)
		if err != nil {
			return nil, err
		}
		return res, nil

	case MethodCloseStream:
		var b closeStreamBody
		decodeBody(body, &b)
		if err := closeStream(a.streams, b.StreamIdx); err != nil {
			return nil, err
		}
		return "closeStream success", nil

	case MethodResetStream:
		var b resetStreamBody
		decodeBody(body, &b)
		if err := resetStream(a.streams, b.StreamIdx); err != nil {
			return nil, err
		}
		return "resetStream success", nil

	case MethodSendStreamMsg:
		var b sendStreamMsgBody
		decodeBody(body, &b)
		if err := sendStreamMsg(a.streams, b.StreamIdx, b.Data); err != nil {
			return nil, err
		}
		return "sendStreamMsg success", nil

	case MethodAddStreamHandler:
		var b addStreamHandlerBody
		decodeBody(body, &b)
		addStreamHandler(a.p2p(), a.streams, a.seq, b.Protocol, a.emit)
		return "addStreamHandler success", nil

	case MethodRemoveStreamHandler:
		var b removeStreamHandlerBody
		decodeBody(body, &b)
		removeStreamHandler(a.p2p(), b.Protocol)
		return "removeStreamHandler success", nil

	case MethodAddPeer:
		return nil, badRPC(fmt.Errorf("addPeer is disabled -- rebootstrap logic needs reimplementing"))

	case MethodBeginAdvertising:
		if err := beginAdvertising(a.ctx, a.p2p(), func(u discoveredPeerUpcall) { a.emit(u) }); err != nil {
			return nil, err
		}
		return "beginAdvertising success", nil

	case MethodFindPeer:
		var b findPeerBody
		decodeBody(body, &b)
		id, err := peer.Decode(b.PeerID)
		if err != nil {
			return nil, badRPC(err)
		}
		return findPeer(a.p2p(), id)

	case MethodListPeers:
		return listPeers(a.p2p().host), nil

	case MethodSetGatingConfig:
		var cfg gatingConfig
		decodeBody(body, &cfg)
		if err := a.p2p().gating.apply(cfg); err != nil {
			return nil, err
		}
		return "setGatingConfig success", nil

	default:
		panic(fmt.Sprintf("unknown method tag %d", method))
	}
}

func listenOn(s *p2pState, iface string) ([]ma.Multiaddr, error) {
	addr, err := ma.NewMultiaddr(iface)
	if err != nil {
		return nil, badP2P(err)
	}
	if err := s.host.Network().Listen(addr); err != nil {
		return nil, badP2P(err)
	}
	return s.host.Addrs(), nil
}
