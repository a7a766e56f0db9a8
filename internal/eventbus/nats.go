// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

package eventbus

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/beacon/internal/logging"
)

// NATSOptions tunes the JetStream publisher and subscriber.
type NATSOptions struct {
	URL           string
	Stream        string
	Durable       string
	MaxReconnects int
	ReconnectWait time.Duration
	AckWait       time.Duration
	MaxDeliver    int
	MaxAckPending int
	CloseTimeout  time.Duration
}

// DefaultNATSOptions returns production defaults for url, stream and durable.
func DefaultNATSOptions(url, stream, durable string) NATSOptions {
	return NATSOptions{
		URL:           url,
		Stream:        stream,
		Durable:       durable,
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		AckWait:       30 * time.Second,
		MaxDeliver:    5,
		MaxAckPending: 256,
		CloseTimeout:  30 * time.Second,
	}
}

func connectionOptions(o NATSOptions, name string) []natsgo.Option {
	log := logging.WithComponent("eventbus")
	return []natsgo.Option{
		natsgo.Name(name),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(o.MaxReconnects),
		natsgo.ReconnectWait(o.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Str("client", name).Msg("NATS disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			log.Info().Str("client", name).Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		natsgo.ErrorHandler(func(_ *natsgo.Conn, _ *natsgo.Subscription, err error) {
			log.Error().Err(err).Str("client", name).Msg("NATS async error")
		}),
	}
}

func newNATSPublisher(o NATSOptions, logger watermill.LoggerAdapter) (message.Publisher, error) {
	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         o.URL,
		NatsOptions: connectionOptions(o, "beacon-publisher"),
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create NATS publisher: %w", err)
	}
	return pub, nil
}

func newNATSSubscriber(o NATSOptions, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              o.URL,
		SubscribersCount: 1,
		AckWaitTimeout:   o.AckWait,
		CloseTimeout:     o.CloseTimeout,
		NatsOptions:      connectionOptions(o, "beacon-subscriber"),
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false,
			AckAsync:      false,
			DurablePrefix: o.Durable,
			SubscribeOptions: []natsgo.SubOpt{
				natsgo.MaxDeliver(o.MaxDeliver),
				natsgo.MaxAckPending(o.MaxAckPending),
				natsgo.AckWait(o.AckWait),
				natsgo.DeliverNew(),
				natsgo.BindStream(o.Stream),
			},
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create NATS subscriber: %w", err)
	}
	return sub, nil
}
