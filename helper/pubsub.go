package helper

import (
	"context"
	"fmt"
	"sync"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/peer"
)

// pendingValidation tracks one in-flight validate upcall's ticket: the
// completion channel a validationComplete call resolves, and whether the
// validator timed out waiting on it (kept only for diagnostics).
type pendingValidation struct {
	completion chan string
	timedOut   bool
}

// pubsubState owns every active subscription and the ticket table backing
// the host-supervised validator bridge.
type pubsubState struct {
	mu   sync.Mutex
	subs map[int]*subscription

	validatorMu sync.Mutex
	validators  map[int64]*pendingValidation
}

type subscription struct {
	sub    *pubsub.Subscription
	cancel context.CancelFunc
}

func newPubsubState() *pubsubState {
	return &pubsubState{
		subs:       make(map[int]*subscription),
		validators: make(map[int64]*pendingValidation),
	}
}

func publish(s *p2pState, topic, data string) error {
	if s.dht == nil {
		return errDHTNotReady()
	}
	raw, err := blobDecode(data)
	if err != nil {
		return badRPC(err)
	}
	if err := s.pubsub.Publish(topic, raw); err != nil {
		return badP2P(err)
	}
	return nil
}

// subscribe joins topic, installs a validator that hands every non-self
// message whose sender resolves to a PeerInfo to the host via a validate
// upcall and blocks on a completion channel (or the shared validation
// timeout), ignores messages whose sender does not resolve, and starts
// draining the
// subscription. Per the original helper, validated messages are consumed
// silently: the host already saw the payload in the validate upcall, so
// there is no separate post-validation delivery.
func subscribe(ctx context.Context, s *p2pState, ps *pubsubState, seq *seqSource, subIdx int, topic string, emit func(any)) error {
	if s.dht == nil {
		return errDHTNotReady()
	}

	if _, err := s.pubsub.Join(topic); err != nil {
		return badP2P(err)
	}

	validator := func(vctx context.Context, id peer.ID, msg *pubsub.Message) pubsub.ValidationResult {
		if id == s.me {
			return pubsub.ValidationAccept
		}

		ticket := seq.nextID()
		pv := &pendingValidation{completion: make(chan string, 1)}
		ps.validatorMu.Lock()
		ps.validators[ticket] = pv
		ps.validatorMu.Unlock()

		var sender *PeerInfo
		if pi, err := findPeer(s, id); err == nil {
			sender = &pi
		} else {
			ps.validatorMu.Lock()
			delete(ps.validators, ticket)
			ps.validatorMu.Unlock()
			return pubsub.ValidationIgnore
		}

		emit(validateUpcall{
			Upcall:       upcallValidate,
			Sender:       sender,
			Data:         blobEncode(msg.Data),
			Seqno:        ticket,
			Subscription: subIdx,
		})

		select {
		case <-vctx.Done():
			ps.validatorMu.Lock()
			pv.timedOut = true
			ps.validatorMu.Unlock()
			if s.unsafeNoTrustIP {
				return pubsub.ValidationAccept
			}
			return pubsub.ValidationReject
		case res := <-pv.completion:
			switch res {
			case "accept":
				return pubsub.ValidationAccept
			case "ignore":
				return pubsub.ValidationIgnore
			default:
				return pubsub.ValidationReject
			}
		}
	}

	if err := s.pubsub.RegisterTopicValidator(topic, validator, pubsub.WithValidatorTimeout(validationTimeout)); err != nil {
		return badP2P(err)
	}

	sub, err := s.pubsub.Subscribe(topic)
	if err != nil {
		return badP2P(err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	ps.mu.Lock()
	ps.subs[subIdx] = &subscription{sub: sub, cancel: cancel}
	ps.mu.Unlock()

	go func() {
		for {
			_, err := sub.Next(subCtx)
			if err != nil {
				return
			}
			// The host already received this message's payload in the
			// validate upcall; a validated message needs no further
			// delivery.
		}
	}()

	return nil
}

func unsubscribe(ps *pubsubState, subIdx int) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	sub, ok := ps.subs[subIdx]
	if !ok {
		return badRPC(fmt.Errorf("subscription %d not found", subIdx))
	}
	sub.sub.Cancel()
	sub.cancel()
	delete(ps.subs, subIdx)
	return nil
}

func validationComplete(ps *pubsubState, ticket int64, isValid string) error {
	ps.validatorMu.Lock()
	defer ps.validatorMu.Unlock()
	pv, ok := ps.validators[ticket]
	if !ok {
		return badRPC(fmt.Errorf("validation seqno %d unknown", ticket))
	}
	pv.completion <- isValid
	delete(ps.validators, ticket)
	return nil
}
