// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tomtom215/vigil/internal/logging"
)

// Config holds router settings for the ingest service.
type Config struct {
	// Topic is the subject violations arrive on.
	Topic string

	// CloseTimeout is how long to wait for in-flight messages on shutdown.
	CloseTimeout time.Duration

	// Retry configuration for store failures.
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64

	// ThrottlePerSecond caps message handling rate (0 = disabled).
	ThrottlePerSecond int64
}

// DefaultConfig returns production defaults for topic.
func DefaultConfig(topic string) Config {
	return Config{
		Topic:                topic,
		CloseTimeout:         30 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 500 * time.Millisecond,
		RetryMaxInterval:     10 * time.Second,
		RetryMultiplier:      2.0,
	}
}

// Service runs a Watermill router that feeds Handler. Each Serve call
// builds a fresh router, so a supervisor may restart it.
type Service struct {
	config     Config
	subscriber message.Subscriber
	handler    *Handler
	logger     watermill.LoggerAdapter

	runningOnce sync.Once
	running     chan struct{}
}

// NewService creates the ingest service. The subscriber is not closed by
// the service.
func NewService(cfg Config, subscriber message.Subscriber, handler *Handler) (*Service, error) {
	if subscriber == nil {
		return nil, fmt.Errorf("ingest subscriber required")
	}
	if handler == nil {
		return nil, fmt.Errorf("ingest handler required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("ingest topic required")
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = 30 * time.Second
	}
	return &Service{
		config:     cfg,
		subscriber: subscriber,
		handler:    handler,
		logger:     logging.NewWatermillAdapter(logging.WithComponent("ingest-router")),
		running:    make(chan struct{}),
	}, nil
}

func (s *Service) newRouter() (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: s.config.CloseTimeout,
	}, s.logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	// Outer to inner: recover panics, retry store failures, throttle.
	router.AddMiddleware(middleware.Recoverer)

	retry := middleware.Retry{
		MaxRetries:      s.config.RetryMaxRetries,
		InitialInterval: s.config.RetryInitialInterval,
		MaxInterval:     s.config.RetryMaxInterval,
		Multiplier:      s.config.RetryMultiplier,
		Logger:          s.logger,
	}
	router.AddMiddleware(retry.Middleware)

	if s.config.ThrottlePerSecond > 0 {
		throttle := middleware.NewThrottle(s.config.ThrottlePerSecond, time.Second)
		router.AddMiddleware(throttle.Middleware)
	}

	router.AddConsumerHandler(
		"violation-ingest",
		s.config.Topic,
		s.subscriber,
		s.handler.Handle,
	)
	return router, nil
}

// Serve implements suture.Service. It blocks until ctx is cancelled or
// the router fails.
func (s *Service) Serve(ctx context.Context) error {
	router, err := s.newRouter()
	if err != nil {
		return err
	}

	go func() {
		select {
		case <-router.Running():
			s.runningOnce.Do(func() { close(s.running) })
			logging.Info().Str("topic", s.config.Topic).Msg("Violation ingest running")
		case <-ctx.Done():
		}
	}()

	if err := router.Run(ctx); err != nil {
		return fmt.Errorf("ingest router: %w", err)
	}
	return ctx.Err()
}

// Running is closed once the first router is consuming.
func (s *Service) Running() <-chan struct{} {
	return s.running
}

// String implements fmt.Stringer for supervisor logs.
func (s *Service) String() string {
	return "violation-ingest"
}

// NewGoChannel returns an in-process pub/sub for publishing violations
// within the same binary.
func NewGoChannel(buffer int64) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: buffer,
	}, logging.NewWatermillAdapter(logging.WithComponent("ingest-gochannel")))
}
