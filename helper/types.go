// Package helper implements the peer-to-peer network helper: a long-running
// child process that speaks a line-delimited JSON protocol on stdin/stdout
// and owns all libp2p networking on behalf of a host application.
package helper

import (
	"encoding/json"
	"time"
)

// Method is the closed, positionally-stable method enumeration the host and
// helper agree on over the wire. The integer values must never be reordered.
type Method int

const (
	MethodConfigure Method = iota
	MethodListen
	MethodPublish
	MethodSubscribe
	MethodUnsubscribe
	MethodValidationComplete
	MethodGenerateKeypair
	MethodOpenStream
	MethodCloseStream
	MethodResetStream
	MethodSendStreamMsg
	MethodRemoveStreamHandler
	MethodAddStreamHandler
	MethodListeningAddrs
	MethodAddPeer
	MethodBeginAdvertising
	MethodFindPeer
	MethodListPeers
	MethodSetGatingConfig
)

const (
	mplexProtocolID    = "/coda/mplex/1.0.0"
	dhtProtocolPrefix  = "/coda"
	rendezvousTemplate = "/coda/0.0.1/%s"
	mdnsServiceTag     = "_coda-discovery._udp.local"

	gossipsubMaxMessageBytes = 32 * 1024 * 1024
	validationTimeout        = 5 * time.Minute
	dhtFindPeersInterval     = 2 * time.Minute
	dhtFindPeersLimit        = 20
	openStreamReaderDelay    = 250 * time.Millisecond
	streamReadBufferBytes    = 4096

	connManagerLowWater  = 25
	connManagerHighWater = 250
	connManagerGrace     = 30 * time.Second

	outboundQueueCapacity = 4096
)

// Envelope is the shape of every inbound command line.
type Envelope struct {
	Method Method          `json:"method"`
	Seqno  int             `json:"seqno"`
	Body   json.RawMessage `json:"body"`
}

// SuccessResponse is emitted once per envelope on success.
type SuccessResponse struct {
	Seqno    int             `json:"seqno"`
	Success  json.RawMessage `json:"success"`
	Duration string          `json:"duration"`
}

// ErrorResponse is emitted once per envelope on failure.
type ErrorResponse struct {
	Seqno int    `json:"seqno"`
	Error string `json:"error"`
}

// PeerInfo is the wire tuple describing a reachable peer.
type PeerInfo struct {
	Host       string `json:"host"`
	Libp2pPort int    `json:"libp2p_port"`
	PeerID     string `json:"peer_id"`
}

// Upcall discriminator strings, literal and never paired with a seqno.
const (
	upcallValidate           = "validate"
	upcallPublish            = "publish"
	upcallIncomingStream     = "incomingStream"
	upcallIncomingStreamMsg  = "incomingStreamMsg"
	upcallStreamReadComplete = "streamReadComplete"
	upcallStreamLost         = "streamLost"
	upcallDiscoveredPeer     = "discoveredPeer"
)

type validateUpcall struct {
	Upcall       string    `json:"upcall"`
	Sender       *PeerInfo `json:"sender"`
	Data         string    `json:"data"`
	Seqno        int64     `json:"seqno"`
	Subscription int       `json:"subscription_idx"`
}

type incomingStreamUpcall struct {
	Upcall    string   `json:"upcall"`
	Peer      PeerInfo `json:"peer"`
	StreamIdx int64    `json:"stream_idx"`
	Protocol  string   `json:"protocol"`
}

type incomingStreamMsgUpcall struct {
	Upcall    string `json:"upcall"`
	StreamIdx int64  `json:"stream_idx"`
	Data      string `json:"data"`
}

type streamReadCompleteUpcall struct {
	Upcall    string `json:"upcall"`
	StreamIdx int64  `json:"stream_idx"`
}

type streamLostUpcall struct {
	Upcall    string `json:"upcall"`
	StreamIdx int64  `json:"stream_idx"`
	Reason    string `json:"reason"`
}

type discoveredPeerUpcall struct {
	Upcall     string   `json:"upcall"`
	PeerID     string   `json:"peer_id"`
	Multiaddrs []string `json:"multiaddrs"`
}
