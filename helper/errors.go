package helper

import "fmt"

// Error tags, matching the four response error prefixes the host expects.
const (
	tagInternalRPC      = "internal RPC error"
	tagLibp2p           = "libp2p error"
	tagInitHelper       = "initializing helper"
	tagInitExternalAddr = "initializing external addr"
)

// TaggedError is a response-level error: its wire form is "<tag>: <detail>".
type TaggedError struct {
	Tag    string
	Detail error
}

func (e *TaggedError) Error() string {
	if e.Detail == nil {
		return e.Tag
	}
	return fmt.Sprintf("%s: %s", e.Tag, e.Detail.Error())
}

func (e *TaggedError) Unwrap() error { return e.Detail }

func badRPC(err error) error { return &TaggedError{Tag: tagInternalRPC, Detail: err} }
func badP2P(err error) error { return &TaggedError{Tag: tagLibp2p, Detail: err} }
func badHelperInit(err error) error {
	return &TaggedError{Tag: tagInitHelper, Detail: err}
}
func badExternalAddr(err error) error {
	return &TaggedError{Tag: tagInitExternalAddr, Detail: err}
}

func errNotConfigured() error {
	return badRPC(fmt.Errorf("helper not yet configured"))
}

func errDHTNotReady() error {
	return badRPC(fmt.Errorf("helper not yet joined to pubsub"))
}
