// Package pubsub implements the channel/pattern publish-subscribe
// broker described in spec.md §4.10: exact-channel and glob-pattern
// subscriptions, a bounded per-subscriber inbox that drops the oldest
// message and counts the drop rather than blocking a slow publisher,
// and three payload encodings.
package pubsub

import (
	"sync"
	"sync/atomic"

	"github.com/emberkv/emberkv/kverrors"
)

const (
	// DefaultInboxCapacity is the default bounded inbox size per
	// subscriber before drop-oldest backpressure kicks in.
	DefaultInboxCapacity = 128
	// DefaultMaxMessageSize rejects publishes larger than this many
	// bytes, per spec.md §4.10 "message size limit".
	DefaultMaxMessageSize = 1 << 20 // 1MiB
)

// Message is one delivered publish, with the channel it was published
// to (useful for pattern subscribers fanning multiple channels into
// one inbox).
type Message struct {
	Channel string
	Payload Payload
}

// RecvResult is the outcome of a blocking-style Recv call.
type RecvResult struct {
	Message Message
	Lagged  uint64 // >0 means this many messages were dropped before Message
	Closed  bool
}

// Subscription is a single subscriber's bounded inbox.
type Subscription struct {
	broker  *Broker
	channel string  // exact channel, or "" if pattern-based
	pattern string  // glob pattern, or "" if exact-channel
	inbox   chan Message
	lagged  atomic.Uint64
	closed  atomic.Bool
}

// Recv blocks until a message, a lag notification, or closure. It
// never returns TryRecvError-style Empty; use TryRecv for that.
func (s *Subscription) Recv() RecvResult {
	if n := s.lagged.Swap(0); n > 0 {
		return RecvResult{Lagged: n}
	}
	msg, ok := <-s.inbox
	if !ok {
		return RecvResult{Closed: true}
	}
	if n := s.lagged.Swap(0); n > 0 {
		// A lag occurred while waiting; report the count together with
		// the message just received so that message is not lost.
		return RecvResult{Message: msg, Lagged: n}
	}
	return RecvResult{Message: msg}
}

// TryRecv is the non-blocking counterpart; returns ok=false with no
// error when the inbox is empty.
func (s *Subscription) TryRecv() (RecvResult, bool) {
	if n := s.lagged.Swap(0); n > 0 {
		return RecvResult{Lagged: n}, true
	}
	select {
	case msg, ok := <-s.inbox:
		if !ok {
			return RecvResult{Closed: true}, true
		}
		return RecvResult{Message: msg}, true
	default:
		return RecvResult{}, false
	}
}

// Unsubscribe removes this subscription from the broker and closes
// its inbox. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.broker.unsubscribe(s)
}

// Broker fans published messages out to subscribers matching either
// an exact channel name or a glob pattern.
type Broker struct {
	mu          sync.RWMutex
	exact       map[string]map[*Subscription]struct{}
	patterns    map[string]map[*Subscription]struct{}
	inboxCap    int
	maxMsgBytes int
}

// New creates an empty broker with the given per-subscriber inbox
// capacity and maximum message size.
func New(inboxCap, maxMsgBytes int) *Broker {
	if inboxCap <= 0 {
		inboxCap = DefaultInboxCapacity
	}
	if maxMsgBytes <= 0 {
		maxMsgBytes = DefaultMaxMessageSize
	}
	return &Broker{
		exact:       make(map[string]map[*Subscription]struct{}),
		patterns:    make(map[string]map[*Subscription]struct{}),
		inboxCap:    inboxCap,
		maxMsgBytes: maxMsgBytes,
	}
}

// Subscribe registers a new subscription to an exact channel name.
func (b *Broker) Subscribe(channel string) *Subscription {
	sub := &Subscription{broker: b, channel: channel, inbox: make(chan Message, b.inboxCap)}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.exact[channel] == nil {
		b.exact[channel] = make(map[*Subscription]struct{})
	}
	b.exact[channel][sub] = struct{}{}
	return sub
}

// PSubscribe registers a new subscription to a glob pattern over
// channel names.
func (b *Broker) PSubscribe(pattern string) *Subscription {
	sub := &Subscription{broker: b, pattern: pattern, inbox: make(chan Message, b.inboxCap)}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.patterns[pattern] == nil {
		b.patterns[pattern] = make(map[*Subscription]struct{})
	}
	b.patterns[pattern][sub] = struct{}{}
	return sub
}

func (b *Broker) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub.closed.Swap(true) {
		return
	}
	if sub.channel != "" {
		if set, ok := b.exact[sub.channel]; ok {
			delete(set, sub)
			if len(set) == 0 {
				delete(b.exact, sub.channel)
			}
		}
	}
	if sub.pattern != "" {
		if set, ok := b.patterns[sub.pattern]; ok {
			delete(set, sub)
			if len(set) == 0 {
				delete(b.patterns, sub.pattern)
			}
		}
	}
	close(sub.inbox)
}

// Publish delivers payload to every subscriber of channel (exact or
// pattern match), returning the number of subscribers it was
// delivered to. Per spec.md §4.10, publishing to a channel with no
// subscribers is not an error — it simply delivers to zero.
func (b *Broker) Publish(channel string, payload Payload) (int, error) {
	if len(payload.Bytes()) > b.maxMsgBytes {
		return 0, kverrors.PubSubError(kverrors.KindPubSubMessageTooBig, "pubsub: message exceeds size limit").
			WithField("channel", channel)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	msg := Message{Channel: channel, Payload: payload}
	delivered := 0
	for sub := range b.exact[channel] {
		deliver(sub, msg)
		delivered++
	}
	for pattern, subs := range b.patterns {
		if !MatchGlob(pattern, channel) {
			continue
		}
		for sub := range subs {
			deliver(sub, msg)
			delivered++
		}
	}
	return delivered, nil
}

// deliver pushes msg into sub's inbox, dropping the oldest queued
// message and incrementing the lag counter if the inbox is full —
// backpressure never blocks the publisher.
func deliver(sub *Subscription, msg Message) {
	select {
	case sub.inbox <- msg:
	default:
		select {
		case <-sub.inbox:
		default:
		}
		select {
		case sub.inbox <- msg:
		default:
		}
		sub.lagged.Add(1)
	}
}

// ChannelNames returns every exact channel with at least one current
// subscriber, for an introspection command like PUBSUB CHANNELS.
func (b *Broker) ChannelNames() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.exact))
	for ch := range b.exact {
		names = append(names, ch)
	}
	return names
}

// NumSubscribers returns the number of exact subscribers on channel.
func (b *Broker) NumSubscribers(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.exact[channel])
}
