package helper

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"
)

// streamRegistry tracks every open application stream by the index the
// helper assigned it when it was opened or accepted.
type streamRegistry struct {
	mu      sync.Mutex
	streams map[int64]network.Stream
}

func newStreamRegistry() *streamRegistry {
	return &streamRegistry{streams: make(map[int64]network.Stream)}
}

func (r *streamRegistry) put(idx int64, s network.Stream) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streams[idx] = s
}

func (r *streamRegistry) get(idx int64) (network.Stream, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.streams[idx]
	return s, ok
}

func (r *streamRegistry) delete(idx int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.streams, idx)
}

// readStream drains a stream in a fixed 4096-byte buffer, emitting one
// incomingStreamMsg upcall per non-empty read and a terminal streamLost or
// streamReadComplete upcall once the stream ends.
func readStream(idx int64, s network.Stream, emit func(any)) {
	buf := make([]byte, streamReadBufferBytes)
	for {
		n, err := s.Read(buf)
		if n > 0 {
			emit(incomingStreamMsgUpcall{
				Upcall:    upcallIncomingStreamMsg,
				StreamIdx: idx,
				Data:      blobEncode(buf[:n]),
			})
		}
		if err != nil {
			if err != io.EOF {
				emit(streamLostUpcall{
					Upcall:    upcallStreamLost,
					StreamIdx: idx,
					Reason:    fmt.Sprintf("read failure: %s", err.Error()),
				})
				return
			}
			break
		}
	}
	emit(streamReadCompleteUpcall{Upcall: upcallStreamReadComplete, StreamIdx: idx})
}

type openStreamResult struct {
	StreamIdx int64    `json:"stream_idx"`
	Peer      PeerInfo `json:"peer"`
}

// openStream dials peerID over protocolID, registers the resulting stream
// under a fresh index, and delays its reader goroutine briefly so the
// caller's response is guaranteed to precede any upcalls about the stream.
func openStream(ctx context.Context, s *p2pState, streams *streamRegistry, seq *seqSource, peerID, protocolID string, emit func(any)) (openStreamResult, error) {
	id, err := peer.Decode(peerID)
	if err != nil {
		return openStreamResult{}, badRPC(fmt.Errorf("decode peer id %q: %w", peerID, err))
	}

	stream, err := s.host.NewStream(ctx, id, protocol.ID(protocolID))
	if err != nil {
		return openStreamResult{}, badP2P(err)
	}

	remotePI, perr := peerInfoFromConn(stream)
	if perr != nil {
		_ = stream.Reset()
		return openStreamResult{}, perr
	}

	idx := seq.nextID()
	streams.put(idx, stream)

	go func() {
		time.Sleep(openStreamReaderDelay)
		readStream(idx, stream, emit)
	}()

	return openStreamResult{StreamIdx: idx, Peer: remotePI}, nil
}

func peerInfoFromConn(stream network.Stream) (PeerInfo, error) {
	conn := stream.Conn()
	host, port, ok := splitHostPort(conn.RemoteMultiaddr())
	if !ok {
		return PeerInfo{}, badP2P(fmt.Errorf("only IP/TCP connections are supported, got %s", conn.RemoteMultiaddr()))
	}
	return PeerInfo{Host: host, Libp2pPort: port, PeerID: conn.RemotePeer().String()}, nil
}

func closeStream(streams *streamRegistry, idx int64) error {
	stream, ok := streams.get(idx)
	if !ok {
		return badRPC(fmt.Errorf("unknown stream_idx %d", idx))
	}
	if err := stream.Close(); err != nil {
		return badP2P(err)
	}
	return nil
}

func resetStream(streams *streamRegistry, idx int64) error {
	stream, ok := streams.get(idx)
	if !ok {
		return badRPC(fmt.Errorf("unknown stream_idx %d", idx))
	}
	streams.delete(idx)
	if err := stream.Reset(); err != nil {
		return badP2P(err)
	}
	return nil
}

func sendStreamMsg(streams *streamRegistry, idx int64, data string) error {
	raw, err := blobDecode(data)
	if err != nil {
		return badRPC(err)
	}
	stream, ok := streams.get(idx)
	if !ok {
		return badRPC(fmt.Errorf("unknown stream_idx %d", idx))
	}
	n, err := stream.Write(raw)
	if err != nil {
		return badP2P(fmt.Errorf("only wrote %d out of %d bytes: %w", n, len(raw), err))
	}
	return nil
}

// addStreamHandler installs a protocol handler that registers every
// incoming stream under a fresh index and announces it via emit before
// starting to drain it.
func addStreamHandler(s *p2pState, streams *streamRegistry, seq *seqSource, protocolID string, emit func(any)) {
	s.host.SetStreamHandler(protocol.ID(protocolID), func(stream network.Stream) {
		pi, err := peerInfoFromConn(stream)
		if err != nil {
			_ = stream.Reset()
			return
		}
		idx := seq.nextID()
		streams.put(idx, stream)
		emit(incomingStreamUpcall{
			Upcall:    upcallIncomingStream,
			Peer:      pi,
			StreamIdx: idx,
			Protocol:  protocolID,
		})
		readStream(idx, stream, emit)
	})
}

func removeStreamHandler(s *p2pState, protocolID string) {
	s.host.RemoveStreamHandler(protocol.ID(protocolID))
}
