package events

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
)

// NATSBus fans events out across processes. Payloads are JSON-encoded Events;
// malformed messages are dropped rather than surfaced to handlers.
type NATSBus struct {
	conn *nats.Conn
}

func NewNATSBus(url string) (*NATSBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	return &NATSBus{conn: conn}, nil
}

func (b *NATSBus) Publish(topic string, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.conn.Publish(topic, data)
}

func (b *NATSBus) Subscribe(topic string, h Handler) (func(), error) {
	sub, err := b.conn.Subscribe(topic, func(msg *nats.Msg) {
		var ev Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return
		}
		h(ev)
	})
	if err != nil {
		return nil, err
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

func (b *NATSBus) Close() {
	if b.conn != nil {
		b.conn.Close()
	}
}
