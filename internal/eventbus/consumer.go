// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package eventbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/tomtom215/beacon/internal/logging"
	"github.com/tomtom215/beacon/internal/metrics"
)

// Sink receives recorded events for delivery to live viewers.
type Sink interface {
	Broadcast(projectID string, payload []byte)
}

// ConsumerConfig tunes the router running the consumer.
type ConsumerConfig struct {
	CloseTimeout         time.Duration
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64
}

// DefaultConsumerConfig returns production defaults.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		CloseTimeout:         30 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
		RetryMaxInterval:     5 * time.Second,
		RetryMultiplier:      2.0,
	}
}

const consumerHandlerName = "recorded-events-live"

// Consumer reads TopicRecorded and forwards every event to a Sink. It is a
// suture service: each Serve call builds a fresh watermill router, so a
// restart after a failure starts from a clean state.
type Consumer struct {
	subscriber message.Subscriber
	sink       Sink
	cfg        ConsumerConfig
	logger     watermill.LoggerAdapter

	startOnce sync.Once
	started   chan struct{}
}

// NewConsumer creates a consumer. A nil logger uses the global logger.
func NewConsumer(sub message.Subscriber, sink Sink, cfg ConsumerConfig, logger watermill.LoggerAdapter) *Consumer {
	if logger == nil {
		logger = logging.NewWatermillLogger()
	}
	return &Consumer{
		subscriber: sub,
		sink:       sink,
		cfg:        cfg,
		logger:     logger,
		started:    make(chan struct{}),
	}
}

// Started is closed the first time the router reports it is running.
func (c *Consumer) Started() <-chan struct{} {
	return c.started
}

// Serve runs the router until ctx is canceled.
func (c *Consumer) Serve(ctx context.Context) error {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: c.cfg.CloseTimeout}, c.logger)
	if err != nil {
		return fmt.Errorf("create watermill router: %w", err)
	}

	router.AddMiddleware(middleware.Recoverer)
	retry := middleware.Retry{
		MaxRetries:      c.cfg.RetryMaxRetries,
		InitialInterval: c.cfg.RetryInitialInterval,
		MaxInterval:     c.cfg.RetryMaxInterval,
		Multiplier:      c.cfg.RetryMultiplier,
		Logger:          c.logger,
	}
	router.AddMiddleware(retry.Middleware)

	router.AddConsumerHandler(consumerHandlerName, TopicRecorded, c.subscriber, c.handle)

	go func() {
		select {
		case <-router.Running():
			c.startOnce.Do(func() { close(c.started) })
		case <-ctx.Done():
		}
	}()

	if err := router.Run(ctx); err != nil {
		return fmt.Errorf("event consumer: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logs.
func (c *Consumer) String() string {
	return "eventbus-consumer"
}

// handle never fails on bad payloads: a message that cannot be decoded will
// not decode on redelivery either, so it is logged and acknowledged.
func (c *Consumer) handle(msg *message.Message) error {
	ev, err := DecodeRecorded(msg.Payload)
	if err != nil {
		logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping undecodable recorded event")
		return nil
	}
	c.sink.Broadcast(ev.ProjectID, msg.Payload)
	metrics.BusMessagesConsumed.Inc()
	return nil
}
