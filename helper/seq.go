package helper

import "sync/atomic"

// seqSource hands out a strictly increasing stream of 63-bit identifiers,
// used for validation tickets and stream indices alike. Every identifier the
// wire protocol exchanges is typed as an integer, so unlike the teacher's
// request/message IDs (uuid.NewV7 strings), a single atomic counter is
// enough: the host only needs monotonicity, not global string uniqueness.
type seqSource struct {
	next int64
}

func newSeqSource() *seqSource {
	return &seqSource{}
}

func (s *seqSource) nextID() int64 {
	return atomic.AddInt64(&s.next, 1)
}
