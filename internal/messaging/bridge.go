package messaging

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/nkashyap/storefront/internal/fanout"
	"github.com/nkashyap/storefront/internal/models"
)

// CacheInvalidator drops cached product entries when a stock change
// is observed, so cached reads never outlive a ledger write made on
// another instance.
type CacheInvalidator interface {
	InvalidateProduct(ctx context.Context, id int)
}

// envelope is the wire form of a fan-out event. Origin is this
// instance's id so each instance can skip the echo of its own
// publishes off the fanout exchange.
type envelope struct {
	Origin  string          `json:"origin"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// Bridge connects the in-process hub to RabbitMQ. Publish delivers an
// event locally and to the exchange; Run re-injects events published
// by other instances into the local hub. It satisfies the publisher
// interfaces of the ledger and the order compiler.
type Bridge struct {
	hub        *fanout.Hub
	mq         *RabbitMQ
	view       *fanout.StockView
	cache      CacheInvalidator
	instanceID string
	logger     *zap.Logger
}

func NewBridge(hub *fanout.Hub, mq *RabbitMQ, cache CacheInvalidator, logger *zap.Logger) *Bridge {
	return &Bridge{
		hub:        hub,
		mq:         mq,
		view:       fanout.NewStockView(),
		cache:      cache,
		instanceID: uuid.NewString(),
		logger:     logger,
	}
}

// Publish fans the event out to local sessions and to the exchange.
// Broker failures are logged, never propagated: notification delivery
// is fire-and-forget and must not fail the mutation that caused it.
func (b *Bridge) Publish(ev models.Event) {
	if stock, ok := ev.(models.StockChangeEvent); ok {
		b.view.Apply(stock)
	}
	b.hub.Publish(ev)

	if b.mq == nil {
		return
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		b.logger.Error("failed to marshal event", zap.String("kind", ev.Kind()), zap.Error(err))
		return
	}
	body, err := json.Marshal(envelope{
		Origin:  b.instanceID,
		Kind:    ev.Kind(),
		Payload: payload,
	})
	if err != nil {
		b.logger.Error("failed to marshal envelope", zap.Error(err))
		return
	}

	if err := b.mq.Publish(context.Background(), body); err != nil {
		b.logger.Warn("failed to publish event to broker",
			zap.String("kind", ev.Kind()), zap.Error(err))
	}
}

// Run consumes the exchange until ctx is done, forwarding remote
// events into the local hub.
func (b *Bridge) Run(ctx context.Context) error {
	messages, err := b.mq.Consume()
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			b.handle(ctx, msg)
		}
	}
}

func (b *Bridge) handle(ctx context.Context, msg amqp.Delivery) {
	var env envelope
	if err := json.Unmarshal(msg.Body, &env); err != nil {
		b.logger.Warn("failed to parse event envelope", zap.Error(err))
		return
	}

	if env.Origin == b.instanceID {
		return // our own echo; already delivered locally
	}

	switch env.Kind {
	case models.EventStockUpdate:
		var ev models.StockChangeEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			b.logger.Warn("failed to parse stock event", zap.Error(err))
			return
		}
		if b.cache != nil {
			b.cache.InvalidateProduct(ctx, ev.ProductID)
		}
		// Absolute upsert: replaying a value we have already seen
		// changes nothing, so suppress the no-op broadcast.
		if !b.view.Apply(ev) {
			return
		}
		b.hub.Publish(ev)

	case models.EventNewOrder:
		var ev models.NewOrderEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			b.logger.Warn("failed to parse order event", zap.Error(err))
			return
		}
		b.hub.Publish(ev)

	default:
		b.logger.Debug("ignoring unknown event kind", zap.String("kind", env.Kind))
	}
}
