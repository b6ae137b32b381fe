package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"go-healthwatch/emergency"
)

const (
	ExchangeName = "healthwatch.events"

	RoutingKeyEmergency = "emergency.alert"
	RoutingKeyBroadcast = "client.broadcast"

	reconnectDelay = 5 * time.Second
	publishTimeout = 5 * time.Second
	dialAttempts   = 5
)

// BroadcastMessage wraps a client-push event on the wire.
type BroadcastMessage struct {
	Event     string      `json:"event"`
	Payload   interface{} `json:"payload"`
	Timestamp int64       `json:"timestamp"`
}

// RabbitMQ publishes emergency notifications and client broadcasts on a
// topic exchange. It satisfies the processor's Notifier port and the
// outbreak detector's Broadcaster port.
type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	url     string
	log     *logrus.Entry
	mu      sync.RWMutex
	done    chan struct{}
}

func NewRabbitMQ(url string, log *logrus.Entry) (*RabbitMQ, error) {
	rmq := &RabbitMQ{
		url:  url,
		log:  log,
		done: make(chan struct{}),
	}

	err := retry.Do(
		rmq.connect,
		retry.Attempts(dialAttempts),
		retry.Delay(reconnectDelay),
		retry.DelayType(retry.BackOffDelay),
	)
	if err != nil {
		return nil, err
	}

	go rmq.handleReconnect()

	return rmq, nil
}

func (r *RabbitMQ) connect() error {
	var err error

	r.conn, err = amqp.Dial(r.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	r.channel, err = r.conn.Channel()
	if err != nil {
		r.conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	err = r.channel.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	r.log.Info("RabbitMQ connected")
	return nil
}

func (r *RabbitMQ) handleReconnect() {
	for {
		select {
		case <-r.done:
			return
		case err := <-r.conn.NotifyClose(make(chan *amqp.Error)):
			if err != nil {
				r.log.WithError(err).Warn("RabbitMQ connection lost, reconnecting")
			}

			r.mu.Lock()
			ok := r.reconnectLoop()
			r.mu.Unlock()
			if !ok {
				return
			}
		}
	}
}

// reconnectLoop redials until a connection is established or Close is
// called. Close also closes the connection, which wakes NotifyClose with a
// nil error, so the done check must come before every dial attempt. Caller
// holds mu; returns false when shutting down.
func (r *RabbitMQ) reconnectLoop() bool {
	for {
		select {
		case <-r.done:
			return false
		default:
		}

		if err := r.connect(); err != nil {
			r.log.WithError(err).Warnf("reconnect failed, retrying in %v", reconnectDelay)
			time.Sleep(reconnectDelay)
			continue
		}
		return true
	}
}

func (r *RabbitMQ) publish(ctx context.Context, routingKey string, message interface{}) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.channel == nil {
		return fmt.Errorf("channel not available")
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = r.channel.PublishWithContext(
		pctx,
		ExchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// NotifyAuthorities publishes a synthesized emergency alert on the authority
// channel.
func (r *RabbitMQ) NotifyAuthorities(ctx context.Context, alert *emergency.Alert) (emergency.NotifyResult, error) {
	if err := r.publish(ctx, RoutingKeyEmergency, alert); err != nil {
		return emergency.NotifyResult{}, err
	}

	r.log.WithFields(logrus.Fields{
		"priority": alert.Priority,
		"disease":  alert.Disease,
		"location": alert.Location,
	}).Info("emergency alert published to authorities")

	return emergency.NotifyResult{
		Notified: true,
		Channels: []string{"amqp"},
	}, nil
}

// Broadcast publishes a named event for connected clients.
func (r *RabbitMQ) Broadcast(event string, payload interface{}) error {
	msg := BroadcastMessage{
		Event:     event,
		Payload:   payload,
		Timestamp: time.Now().Unix(),
	}
	return r.publish(context.Background(), RoutingKeyBroadcast, msg)
}

func (r *RabbitMQ) Close() {
	close(r.done)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		r.conn.Close()
	}

	r.log.Info("RabbitMQ connection closed")
}
