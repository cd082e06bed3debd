package events

import "sync"

// Topics carried by the bus. Item changes are scoped per order so a customer
// client only refetches its own lines.
const (
	TopicTableStatus = "tables.status"
	TopicOrderItems  = "orders.items" // + "." + orderID
	TopicStaff       = "staff.notifications"
)

func OrderItemsTopic(orderID string) string { return TopicOrderItems + "." + orderID }

// Event is the JSON payload pushed to subscribers. Type reuses the
// notification type names plus the item-change verbs.
type Event struct {
	Type    string `json:"type"`
	TableID int64  `json:"table_id,omitempty"`
	OrderID string `json:"order_id,omitempty"`
	ItemID  string `json:"item_id,omitempty"`
	Message string `json:"message,omitempty"`
}

// Item-change event types.
const (
	ItemInserted = "item_inserted"
	ItemUpdated  = "item_updated"
	ItemDeleted  = "item_deleted"
)

type Handler func(Event)

// Bus is the change-feed fanout. Production uses the NATS implementation,
// tests and single-process deployments the in-memory one.
type Bus interface {
	Publish(topic string, ev Event) error
	// Subscribe registers h for a topic and returns an unsubscribe func.
	Subscribe(topic string, h Handler) (func(), error)
	Close()
}

type memorySub struct {
	id int
	h  Handler
}

// MemoryBus delivers events synchronously to every handler subscribed to the
// topic at publish time.
type MemoryBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string][]memorySub
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string][]memorySub)}
}

func (b *MemoryBus) Publish(topic string, ev Event) error {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[topic]))
	for _, s := range b.subs[topic] {
		handlers = append(handlers, s.h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
	return nil
}

func (b *MemoryBus) Subscribe(topic string, h Handler) (func(), error) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], memorySub{id: id, h: h})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[topic]
		for i, s := range list {
			if s.id == id {
				b.subs[topic] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
	}, nil
}

func (b *MemoryBus) Close() {
	b.mu.Lock()
	b.subs = make(map[string][]memorySub)
	b.mu.Unlock()
}
