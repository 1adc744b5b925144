package ledger

import (
	"sync"

	"github.com/vinimacar/EcoFin/internal/core"
	"github.com/vinimacar/EcoFin/internal/log"
)

// Subscriber receives the full transaction snapshot after every mutation.
// The slice is shared between subscribers and must be treated as read-only.
type Subscriber func(txns []core.Transaction)

// Notifier is a minimal observer registry. Delivery is synchronous and
// ordered by subscription order; a panicking subscriber is recovered and
// logged so the remaining subscribers still run.
type Notifier struct {
	mu     sync.Mutex
	logger *log.Logger
	subs   map[int]Subscriber
	order  []int
	nextID int
}

// Subscription is the unsubscribe handle returned by Subscribe.
type Subscription struct {
	id   int
	n    *Notifier
	once sync.Once
}

// Cancel removes the subscriber. Safe to call multiple times.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.n.mu.Lock()
		defer s.n.mu.Unlock()
		delete(s.n.subs, s.id)
		for i, id := range s.n.order {
			if id == s.id {
				s.n.order = append(s.n.order[:i], s.n.order[i+1:]...)
				break
			}
		}
	})
}

func NewNotifier(logger *log.Logger) *Notifier {
	return &Notifier{
		logger: logger.WithComponent(log.ComponentLedger),
		subs:   make(map[int]Subscriber),
	}
}

// Subscribe registers fn. There is no delivery at subscription time; a
// subscriber registered after a mutation never sees it.
func (n *Notifier) Subscribe(fn Subscriber) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.subs[id] = fn
	n.order = append(n.order, id)
	return &Subscription{id: id, n: n}
}

// Publish delivers the snapshot to every subscriber in subscription order.
func (n *Notifier) Publish(txns []core.Transaction) {
	n.mu.Lock()
	order := append([]int(nil), n.order...)
	subs := make(map[int]Subscriber, len(n.subs))
	for id, fn := range n.subs {
		subs[id] = fn
	}
	n.mu.Unlock()

	for _, id := range order {
		fn, ok := subs[id]
		if !ok {
			continue
		}
		n.deliver(id, fn, txns)
	}
}

func (n *Notifier) deliver(id int, fn Subscriber, txns []core.Transaction) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("Subscriber panicked during fan-out",
				"subscriber_id", id, "panic", r)
		}
	}()
	fn(txns)
}
