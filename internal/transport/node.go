package transport

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrInvalidTopic = errors.New("invalid topic")
	ErrClosed       = errors.New("node closed")
)

// MessageInfo describes where a delivered message came from.
type MessageInfo struct {
	Topic string
	Seq   uint64
}

type envelope struct {
	msg  any
	info MessageInfo
}

// Subscription delivers messages for one topic on its own goroutine.
type Subscription struct {
	topic   string
	queue   chan envelope
	handler func(any, MessageInfo)
	node    *Node
	once    sync.Once
}

func (s *Subscription) Topic() string { return s.topic }

// Unsubscribe stops delivery. Messages already queued are still handled.
func (s *Subscription) Unsubscribe() {
	s.node.remove(s)
}

// Node is an in-process topic bus. Publish never blocks the caller: each
// subscription owns a bounded queue drained by a dedicated goroutine, and
// a full queue drops the incoming message. There is no ordering guarantee
// relative to the caller of Publish.
type Node struct {
	mu        sync.RWMutex
	subs      map[string][]*Subscription
	seq       map[string]uint64
	queueSize int
	closed    bool
	wg        sync.WaitGroup

	pendingMu sync.Mutex
	pendingCv *sync.Cond
	pending   int

	log *zap.Logger
}

func NewNode(queueSize int, log *zap.Logger) *Node {
	if queueSize <= 0 {
		queueSize = 16
	}
	n := &Node{
		subs:      make(map[string][]*Subscription),
		seq:       make(map[string]uint64),
		queueSize: queueSize,
		log:       log,
	}
	n.pendingCv = sync.NewCond(&n.pendingMu)
	return n
}

// ValidTopic reports whether topic is an absolute, whitespace-free path.
func ValidTopic(topic string) bool {
	if len(topic) < 2 || topic[0] != '/' || strings.HasSuffix(topic, "/") {
		return false
	}
	if strings.Contains(topic, "//") {
		return false
	}
	return !strings.ContainsAny(topic, " \t\r\n@:#")
}

// SubscribeRaw registers an untyped handler for topic.
func (n *Node) SubscribeRaw(topic string, handler func(any, MessageInfo)) (*Subscription, error) {
	if !ValidTopic(topic) {
		return nil, fmt.Errorf("subscribe %q: %w", topic, ErrInvalidTopic)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil, ErrClosed
	}
	s := &Subscription{
		topic:   topic,
		queue:   make(chan envelope, n.queueSize),
		handler: handler,
		node:    n,
	}
	n.subs[topic] = append(n.subs[topic], s)
	n.wg.Add(1)
	go n.deliver(s)
	return s, nil
}

// Subscribe registers a typed handler. Messages of another type published
// on the same topic are dropped with a warning.
func Subscribe[T any](n *Node, topic string, fn func(T, MessageInfo)) (*Subscription, error) {
	return n.SubscribeRaw(topic, func(m any, info MessageInfo) {
		v, ok := m.(T)
		if !ok {
			n.log.Warn("dropping message of unexpected type",
				zap.String("topic", info.Topic),
				zap.String("type", fmt.Sprintf("%T", m)),
			)
			return
		}
		fn(v, info)
	})
}

// Publish fans msg out to every subscriber of topic and returns how many
// subscribers accepted it.
func (n *Node) Publish(topic string, msg any) (int, error) {
	if !ValidTopic(topic) {
		return 0, fmt.Errorf("publish %q: %w", topic, ErrInvalidTopic)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return 0, ErrClosed
	}
	n.seq[topic]++
	env := envelope{msg: msg, info: MessageInfo{Topic: topic, Seq: n.seq[topic]}}

	// Sends are non-blocking; the lock keeps queues from closing mid fan-out.
	delivered := 0
	for _, s := range n.subs[topic] {
		n.addPending(1)
		select {
		case s.queue <- env:
			delivered++
		default:
			n.addPending(-1)
			n.log.Warn("subscriber queue full, message dropped", zap.String("topic", topic))
		}
	}
	return delivered, nil
}

// Topics lists topics with at least one subscriber.
func (n *Node) Topics() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]string, 0, len(n.subs))
	for t, subs := range n.subs {
		if len(subs) > 0 {
			out = append(out, t)
		}
	}
	return out
}

// Sync blocks until every message accepted so far has been handled.
func (n *Node) Sync() {
	n.pendingMu.Lock()
	for n.pending > 0 {
		n.pendingCv.Wait()
	}
	n.pendingMu.Unlock()
}

// Close stops all subscriptions and waits for their goroutines to exit.
func (n *Node) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	for _, subs := range n.subs {
		for _, s := range subs {
			s.stop()
		}
	}
	n.subs = make(map[string][]*Subscription)
	n.mu.Unlock()
	n.wg.Wait()
}

func (n *Node) remove(s *Subscription) {
	n.mu.Lock()
	subs := n.subs[s.topic]
	for i, v := range subs {
		if v == s {
			n.subs[s.topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	s.stop()
	n.mu.Unlock()
}

func (s *Subscription) stop() {
	s.once.Do(func() { close(s.queue) })
}

func (n *Node) deliver(s *Subscription) {
	defer n.wg.Done()
	for env := range s.queue {
		n.invoke(s, env)
		n.addPending(-1)
	}
}

func (n *Node) invoke(s *Subscription, env envelope) {
	defer func() {
		if r := recover(); r != nil {
			n.log.Error("subscriber panicked",
				zap.String("topic", env.info.Topic),
				zap.Any("panic", r),
			)
		}
	}()
	s.handler(env.msg, env.info)
}

func (n *Node) addPending(d int) {
	n.pendingMu.Lock()
	n.pending += d
	if n.pending <= 0 {
		n.pending = 0
		n.pendingCv.Broadcast()
	}
	n.pendingMu.Unlock()
}
