// Package events carries record change events between the services and the
// subscription streams over NATS.
//
// Subjects have the form records.<collection>.<action>; payloads are JSON.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/gofrs/uuid/v5"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/mahenzon/todo-app/internal/metrics"
	"github.com/mahenzon/todo-app/internal/model"
)

// SubjectPrefix is the root of every record subject.
const SubjectPrefix = "records"

// Event is a record change together with the access data of the list it belongs to,
// so subscribers can apply view rules without a storage round trip.
type Event struct {
	Action     model.Action `json:"action"`
	Collection string       `json:"collection"`
	Record     model.Record `json:"record"`
	Owner      uuid.UUID    `json:"owner"`
	Public     bool         `json:"public"`
}

// Subject returns the bus subject of e.
func (e Event) Subject() string {
	return Subject(e.Collection, string(e.Action))
}

// Subject builds records.<collection>.<action>; "*" matches any token.
func Subject(collection, action string) string {
	return strings.Join([]string{SubjectPrefix, collection, action}, ".")
}

// Publisher sends record events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Subscription is a live feed of one collection's events.
type Subscription interface {
	Events() <-chan Event
	Close() error
}

// Bus publishes and subscribes record events.
type Bus interface {
	Publisher
	Subscribe(collection string) (Subscription, error)
}

// NATSBus implements Bus over a NATS connection.
type NATSBus struct {
	nc      *nats.Conn
	log     *zap.Logger
	metrics *metrics.Metrics
	buffer  int
}

// NewNATSBus wraps an established connection. The bus does not own nc.
func NewNATSBus(nc *nats.Conn, log *zap.Logger, m *metrics.Metrics) *NATSBus {
	if log == nil {
		log = zap.NewNop()
	}
	return &NATSBus{nc: nc, log: log, metrics: m, buffer: 64}
}

// Publish encodes ev and sends it on its subject.
func (b *NATSBus) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.nc.Publish(ev.Subject(), data); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Subject(), err)
	}
	if b.metrics != nil {
		b.metrics.EventsPublished.WithLabelValues(ev.Collection, string(ev.Action)).Inc()
	}
	return nil
}

// Flush waits until the server has processed every published event.
func (b *NATSBus) Flush(ctx context.Context) error {
	return b.nc.FlushWithContext(ctx)
}

// Subscribe opens a feed of every action on collection. Undecodable messages are
// logged and skipped.
func (b *NATSBus) Subscribe(collection string) (Subscription, error) {
	msgs := make(chan *nats.Msg, b.buffer)
	sub, err := b.nc.ChanSubscribe(Subject(collection, "*"), msgs)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", collection, err)
	}
	// Make sure the interest is registered before the caller reports readiness.
	if err := b.nc.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("subscribe %s: %w", collection, err)
	}

	s := &natsSubscription{
		sub:  sub,
		out:  make(chan Event, b.buffer),
		done: make(chan struct{}),
	}
	go s.pump(msgs, b.log)
	return s, nil
}

type natsSubscription struct {
	sub  *nats.Subscription
	out  chan Event
	done chan struct{}
	once sync.Once
}

func (s *natsSubscription) Events() <-chan Event { return s.out }

func (s *natsSubscription) Close() error {
	var err error
	s.once.Do(func() {
		err = s.sub.Unsubscribe()
		close(s.done)
	})
	return err
}

func (s *natsSubscription) pump(msgs <-chan *nats.Msg, log *zap.Logger) {
	defer close(s.out)
	for {
		select {
		case <-s.done:
			return
		case msg := <-msgs:
			var ev Event
			if err := json.Unmarshal(msg.Data, &ev); err != nil {
				log.Warn("drop undecodable event", zap.String("subject", msg.Subject), zap.Error(err))
				continue
			}
			select {
			case s.out <- ev:
			case <-s.done:
				return
			}
		}
	}
}
