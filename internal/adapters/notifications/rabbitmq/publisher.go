package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/streadway/amqp"

	"vet-clinic-api/internal/platform/logger"
	"vet-clinic-api/internal/ports/notifications"
)

var ErrClosed = errors.New("rabbitmq channel is not available")

type Config struct {
	URL   string
	Queue string
}

// Publisher publica eventos de dominio como JSON persistente en una cola durable
// (default exchange, routing key = nombre de la cola).
type Publisher struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	log     logger.Logger
}

func Dial(cfg Config, log logger.Logger) (*Publisher, error) {
	if log == nil {
		log = logger.Nop()
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: connect: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: open channel: %w", err)
	}

	if err := declare(ch, cfg.Queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	log.Info("rabbitmq connected", logger.Fields{"queue": cfg.Queue})

	return &Publisher{conn: conn, channel: ch, queue: cfg.Queue, log: log}, nil
}

func declare(ch *amqp.Channel, queue string) error {
	_, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("rabbitmq: declare %s: %w", queue, err)
	}
	return nil
}

func (p *Publisher) Publish(ctx context.Context, ev notifications.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := encode(ev)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil {
		return ErrClosed
	}
	if err := p.channel.Publish("", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq: publish %s: %w", ev.Type, err)
	}

	p.log.Debug("event published", logger.Fields{"type": ev.Type, "queue": p.queue})
	return nil
}

func encode(ev notifications.Event) (amqp.Publishing, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("rabbitmq: marshal %s: %w", ev.Type, err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		Type:         ev.Type,
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.OccurredAt,
	}, nil
}

// Consume abre un canal propio y entrega cada evento a handle con ack manual.
// Un error de handle hace Nack sin requeue para no ciclar mensajes envenenados.
// Termina cuando ctx se cancela o el broker cierra la entrega.
func (p *Publisher) Consume(ctx context.Context, handle func(context.Context, notifications.Event) error) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq: open consumer channel: %w", err)
	}
	if err := declare(ch, p.queue); err != nil {
		_ = ch.Close()
		return err
	}

	deliveries, err := ch.Consume(p.queue, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("rabbitmq: register consumer: %w", err)
	}

	go func() {
		defer ch.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				p.deliver(ctx, d, handle)
			}
		}
	}()
	return nil
}

func (p *Publisher) deliver(ctx context.Context, d amqp.Delivery, handle func(context.Context, notifications.Event) error) {
	var ev notifications.Event
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		p.log.Warn("discarding malformed event", logger.Fields{"err": err, "tag": d.DeliveryTag})
		_ = d.Nack(false, false)
		return
	}

	if err := handle(ctx, ev); err != nil {
		p.log.Error("event handler failed", logger.Fields{"err": err, "type": ev.Type})
		_ = d.Nack(false, false)
		return
	}
	if err := d.Ack(false); err != nil {
		p.log.Warn("ack failed", logger.Fields{"err": err, "tag": d.DeliveryTag})
	}
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close channel: %w", err))
		}
		p.channel = nil
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
		p.conn = nil
	}
	return errors.Join(errs...)
}
