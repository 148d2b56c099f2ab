// Package server provides application lifecycle management: ordered startup,
// signal handling, and bounded graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Component is a long-running part of the application.
type Component interface {
	// Start runs the component and blocks until it stops or fails.
	Start() error
	// Shutdown stops the component, finishing in-flight work until ctx expires.
	Shutdown(ctx context.Context) error
}

// Hooks adapts a start/shutdown function pair into the Component interface.
type Hooks struct {
	OnStart    func() error
	OnShutdown func(ctx context.Context) error
}

// Start calls OnStart if set.
func (h Hooks) Start() error {
	if h.OnStart == nil {
		return nil
	}
	return h.OnStart()
}

// Shutdown calls OnShutdown if set.
func (h Hooks) Shutdown(ctx context.Context) error {
	if h.OnShutdown == nil {
		return nil
	}
	return h.OnShutdown(ctx)
}

// Lifecycle starts components in registration order and shuts them down in
// reverse order on SIGINT, SIGTERM, context cancellation, or component
// failure.
type Lifecycle struct {
	logger      *zap.Logger
	stopTimeout time.Duration

	mu         sync.Mutex
	components []namedComponent
}

type namedComponent struct {
	name      string
	component Component
}

// NewLifecycle creates a Lifecycle manager. stopTimeout bounds each
// component's shutdown.
//
// Precondition: logger must be non-nil; stopTimeout must be positive.
func NewLifecycle(logger *zap.Logger, stopTimeout time.Duration) *Lifecycle {
	return &Lifecycle{
		logger:      logger,
		stopTimeout: stopTimeout,
	}
}

// Add registers a named component. Components start in the order added.
//
// Precondition: name must be non-empty; c must be non-nil.
func (l *Lifecycle) Add(name string, c Component) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.components = append(l.components, namedComponent{name: name, component: c})
}

// Run starts every component and blocks until shutdown is triggered, then
// stops them all in reverse order.
//
// Postcondition: Every component's Shutdown has returned (or timed out)
// before Run returns. The returned error is the component failure that
// triggered shutdown, joined with any shutdown errors; a signal-triggered
// exit with a clean shutdown returns nil.
func (l *Lifecycle) Run(ctx context.Context) error {
	start := time.Now()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	failures := make(chan error, len(l.components))
	for _, nc := range l.components {
		nc := nc
		go func() {
			l.logger.Info("starting component", zap.String("component", nc.name))
			began := time.Now()
			if err := nc.component.Start(); err != nil {
				l.logger.Error("component failed",
					zap.String("component", nc.name),
					zap.Error(err),
					zap.Duration("uptime", time.Since(began)),
				)
				failures <- fmt.Errorf("component %s: %w", nc.name, err)
				cancel()
			}
		}()
	}

	l.logger.Info("all components started",
		zap.Int("count", len(l.components)),
		zap.Duration("startup", time.Since(start)),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		l.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case runErr = <-failures:
		l.logger.Error("component error, shutting down", zap.Error(runErr))
	case <-ctx.Done():
		l.logger.Info("context cancelled, shutting down")
	}

	err := errors.Join(runErr, l.shutdown())
	l.logger.Info("shutdown complete", zap.Duration("total_uptime", time.Since(start)))
	return err
}

// shutdown stops components in reverse registration order, each bounded by
// the configured stop timeout.
func (l *Lifecycle) shutdown() error {
	began := time.Now()
	var errs []error
	for i := len(l.components) - 1; i >= 0; i-- {
		nc := l.components[i]
		l.logger.Info("stopping component", zap.String("component", nc.name))

		stopCtx, cancel := context.WithTimeout(context.Background(), l.stopTimeout)
		stopBegan := time.Now()
		if err := nc.component.Shutdown(stopCtx); err != nil {
			l.logger.Error("component shutdown failed",
				zap.String("component", nc.name),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("stopping %s: %w", nc.name, err))
		} else {
			l.logger.Info("component stopped",
				zap.String("component", nc.name),
				zap.Duration("elapsed", time.Since(stopBegan)),
			)
		}
		cancel()
	}
	l.logger.Info("all components stopped", zap.Duration("shutdown_elapsed", time.Since(began)))
	return errors.Join(errs...)
}
