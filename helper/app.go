package helper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"sync"
)

// App is the process-level daemon: it owns the command dispatch loop, the
// outbound writer, and the (initially absent) libp2p stack that configure
// installs. It stands in for the original helper's package-level app value.
type App struct {
	ctx     context.Context
	logger  *slog.Logger
	seq     *seqSource
	streams *streamRegistry
	pubsub  *pubsubState
	out     *outbound

	mu    sync.RWMutex
	state *p2pState
}

func NewApp(ctx context.Context, logger *slog.Logger) *App {
	return &App{
		ctx:     ctx,
		logger:  logger,
		seq:     newSeqSource(),
		streams: newStreamRegistry(),
		pubsub:  newPubsubState(),
		out:     newOutbound(),
	}
}

func (a *App) p2p() *p2pState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

func (a *App) setP2P(s *p2pState) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = s
}

// emit pushes an upcall onto the outbound queue. Upcalls never carry a
// seqno, so they share the same queue as responses but never the same
// wire shape.
func (a *App) emit(msg any) {
	a.out.send(msg)
}

// Run reads newline-delimited commands from r, dispatches each one
// synchronously, and writes responses/upcalls to w until r is exhausted or a
// read fails; the loop does not watch ctx. A single writer goroutine owns w
// for the App's lifetime.
func (a *App) Run(r io.Reader, w io.Writer) error {
	writer := newLineWriter(w)
	go a.out.run(writer)
	defer a.out.close()

	defer func() {
		if rec := recover(); rec != nil {
			a.logger.Error("panic while handling RPC", "panic", rec, "stack", string(debug.Stack()))
			panic(rec)
		}
	}()

	reader := newLineReader(r)
	for {
		line, ok, err := reader.next()
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		if !ok {
			break
		}
		a.runLine(line)
	}
	return fmt.Errorf("helper stdin scanning stopped")
}

// Close releases the libp2p stack, if configure ever ran.
func (a *App) Close() error {
	if s := a.p2p(); s != nil {
		s.stopAdvertising()
		return s.close()
	}
	return nil
}
