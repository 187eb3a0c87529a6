package helper

import (
	"encoding/json"
	"fmt"
	"time"
)

// runLine decodes one input line, dispatches it, and pushes a matching
// success or error response onto the outbound queue. A malformed envelope,
// an out-of-range method tag, or a body that fails to decode into its
// handler's shape is unrecoverable: each panics, terminating the process,
// exactly as the protocol contract requires.
func (a *App) runLine(line string) {
	env, err := decodeEnvelope(line)
	if err != nil {
		panic(fmt.Sprintf("malformed envelope: %v", err))
	}
	if env.Method < MethodConfigure || env.Method > MethodSetGatingConfig {
		panic(fmt.Sprintf("unknown method tag %d", env.Method))
	}

	start := time.Now()
	result, err := a.dispatch(env.Method, env.Body)
	if err != nil {
		a.out.send(ErrorResponse{Seqno: env.Seqno, Error: err.Error()})
		return
	}

	raw, err := json.Marshal(result)
	if err != nil {
		a.out.send(ErrorResponse{Seqno: env.Seqno, Error: err.Error()})
		return
	}
	a.out.send(SuccessResponse{Seqno: env.Seqno, Success: raw, Duration: time.Since(start).String()})
}
