// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package eventloop

import "github.com/joeycumines/logiface"

// loopOptions holds configuration resolved from a chain of LoopOption.
type loopOptions struct {
	logger           *logiface.Logger[logiface.Event]
	queueCapacity    int
	reactorMethodOverride string
}

// LoopOption configures a Loop at construction time.
type LoopOption interface {
	applyLoop(*loopOptions) error
}

type loopOptionImpl struct {
	applyLoopFunc func(*loopOptions) error
}

func (l *loopOptionImpl) applyLoop(opts *loopOptions) error {
	return l.applyLoopFunc(opts)
}

// WithLogger sets the structured logger used for panic recovery and
// lifecycle diagnostics. When omitted, a disabled logger is used and
// logging is a no-op.
func WithLogger(logger *logiface.Logger[logiface.Event]) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithQueueCapacity records a capacity hint for the task queue. The
// eapache/queue ring buffer takes no capacity argument, so the hint does
// not change its initial size; the queue grows as needed.
func WithQueueCapacity(capacity int) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		opts.queueCapacity = capacity
		return nil
	}}
}

// WithReactorMethodOverride overrides the string reported by the reactor's
// diagnostic method name, bypassing the platform-specific detection. It
// exists so tests can assert on diagnostic output portably; production
// callers should not need it.
func WithReactorMethodOverride(method string) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		opts.reactorMethodOverride = method
		return nil
	}}
}

// resolveLoopOptions applies a chain of LoopOption to produce loopOptions.
func resolveLoopOptions(opts []LoopOption) (*loopOptions, error) {
	cfg := &loopOptions{
		queueCapacity: 16,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyLoop(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
