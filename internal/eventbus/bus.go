// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package eventbus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/beacon/internal/config"
	"github.com/tomtom215/beacon/internal/logging"
	"github.com/tomtom215/beacon/internal/metrics"
	"github.com/tomtom215/beacon/internal/models"
)

// Backend names.
const (
	BackendGoChannel = "gochannel"
	BackendNATS      = "nats"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("event bus closed")

// Publisher announces stored events. The API depends on this rather than on
// *Bus so handlers can be tested without a broker.
type Publisher interface {
	PublishRecorded(ctx context.Context, ev *models.RecordedEvent) error
}

// Bus owns the publisher, the subscriber and, for an embedded NATS
// deployment, the server itself.
type Bus struct {
	backend    string
	publisher  message.Publisher
	subscriber message.Subscriber
	server     *EmbeddedServer
	cb         *gobreaker.CircuitBreaker[struct{}]
	breaker    string
	closed     chan struct{}
}

// New builds the bus for cfg.Backend. For the nats backend with Embedded
// set, a local JetStream server is started first; in every nats case the
// stream is provisioned before the clients connect.
func New(ctx context.Context, cfg *config.EventBusConfig, logger watermill.LoggerAdapter) (*Bus, error) {
	if logger == nil {
		logger = logging.NewWatermillLogger()
	}

	switch cfg.Backend {
	case "", BackendGoChannel:
		return NewGoChannel(logger), nil
	case BackendNATS:
		return newNATSBus(ctx, &cfg.NATS, logger)
	default:
		return nil, fmt.Errorf("unknown event bus backend %q", cfg.Backend)
	}
}

// NewGoChannel returns an in-process bus.
func NewGoChannel(logger watermill.LoggerAdapter) *Bus {
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 256,
	}, logger)
	return newBus(BackendGoChannel, pubsub, pubsub)
}

func newNATSBus(ctx context.Context, cfg *config.NATSConfig, logger watermill.LoggerAdapter) (*Bus, error) {
	url := cfg.URL
	var srv *EmbeddedServer
	if cfg.Embedded {
		var err error
		srv, err = NewEmbeddedServer(&ServerConfig{Host: cfg.Host, Port: cfg.Port, StoreDir: cfg.StoreDir})
		if err != nil {
			return nil, err
		}
		url = srv.ClientURL()
		logging.Info().Str("url", url).Str("store_dir", cfg.StoreDir).Msg("Embedded NATS server started")
	}

	b, err := dialNATS(ctx, DefaultNATSOptions(url, cfg.Stream, cfg.Durable), logger)
	if err != nil {
		if srv != nil {
			shutdownServer(srv)
		}
		return nil, err
	}
	b.server = srv
	return b, nil
}

// dialNATS provisions the stream and connects the watermill clients.
func dialNATS(ctx context.Context, o NATSOptions, logger watermill.LoggerAdapter) (*Bus, error) {
	if err := ProvisionStream(ctx, o.URL, DefaultStreamConfig(o.Stream)); err != nil {
		return nil, err
	}

	pub, err := newNATSPublisher(o, logger)
	if err != nil {
		return nil, err
	}
	sub, err := newNATSSubscriber(o, logger)
	if err != nil {
		_ = pub.Close() //nolint:errcheck // best-effort cleanup on the error path
		return nil, err
	}
	return newBus(BackendNATS, pub, sub), nil
}

func newBus(backend string, pub message.Publisher, sub message.Subscriber) *Bus {
	name := "eventbus-" + backend
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state transition")
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String())
		},
	})

	return &Bus{
		backend:    backend,
		publisher:  pub,
		subscriber: sub,
		cb:         cb,
		breaker:    name,
		closed:     make(chan struct{}),
	}
}

// Backend returns the backend name.
func (b *Bus) Backend() string {
	return b.backend
}

// Subscriber returns the subscriber a Consumer reads from.
func (b *Bus) Subscriber() message.Subscriber {
	return b.subscriber
}

// PublishRecorded publishes ev on TopicRecorded.
func (b *Bus) PublishRecorded(ctx context.Context, ev *models.RecordedEvent) error {
	select {
	case <-b.closed:
		return ErrClosed
	default:
	}

	msg, err := NewRecordedMessage(ev)
	if err != nil {
		return err
	}
	msg.SetContext(ctx)

	_, err = b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.publisher.Publish(TopicRecorded, msg)
	})
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(b.breaker, "success").Inc()
		metrics.BusMessagesPublished.WithLabelValues(b.backend).Inc()
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(b.breaker, "rejected").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(b.breaker, "failure").Inc()
	}
	metrics.BusPublishErrors.WithLabelValues(b.backend).Inc()
	return fmt.Errorf("publish %s: %w", TopicRecorded, err)
}

// Close closes the clients and stops an embedded server. It is safe to call
// more than once.
func (b *Bus) Close() error {
	select {
	case <-b.closed:
		return nil
	default:
		close(b.closed)
	}

	var errs []error
	if err := b.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	if b.subscriber != nil && any(b.subscriber) != any(b.publisher) {
		if err := b.subscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscriber: %w", err))
		}
	}
	if b.server != nil {
		shutdownServer(b.server)
	}
	return errors.Join(errs...)
}

func shutdownServer(srv *EmbeddedServer) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn().Err(err).Msg("Embedded NATS server did not stop cleanly")
	}
}
