package helper

// outbound is a single buffered channel shared by responses and upcalls; one
// writer goroutine drains it so stdout writes never interleave and never
// race with the command-dispatch goroutine.
type outbound struct {
	ch chan any
}

func newOutbound() *outbound {
	return &outbound{ch: make(chan any, outboundQueueCapacity)}
}

func (o *outbound) send(msg any) {
	o.ch <- msg
}

// run drains the outbound queue onto w until the channel is closed. A write
// failure is fatal: the host's read loop is the only consumer, and if it is
// gone there is nothing left for this process to do.
func (o *outbound) run(w *lineWriter) {
	for msg := range o.ch {
		if err := w.writeJSON(msg); err != nil {
			panic(err)
		}
	}
}

func (o *outbound) close() {
	close(o.ch)
}
