package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bft-labs/sheetbridge/internal/domain"
	"github.com/bft-labs/sheetbridge/internal/ports"
	"github.com/bft-labs/sheetbridge/pkg/log"
)

// ShutdownTimeout is the default time Stop waits for channels to finish.
const ShutdownTimeout = 30 * time.Second

// ChannelService creates one Channel per inbound connection, all relaying
// to a single shared processor.
type ChannelService struct {
	logger    ports.Logger
	metrics   *Metrics
	lifecycle *Lifecycle

	mu        sync.RWMutex
	processor ports.Processor
	ctx       context.Context
	cancel    context.CancelFunc
	listeners int
	channels  map[string]*Channel
}

// NewChannelService creates a stopped service.
func NewChannelService(logger ports.Logger, metrics *Metrics, emitter EventEmitter) *ChannelService {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	return &ChannelService{
		logger:    logger,
		metrics:   metrics,
		lifecycle: NewLifecycle(logger, emitter),
		channels:  make(map[string]*Channel),
	}
}

// Start installs processor as the processor for every channel created from
// now on and registers one connection handler with host.
//
// The processor is installed before host is probed for
// ports.ConnectionListener. When host has no such capability Start logs a
// warning and returns nil without starting; Processor still reports the
// installed processor.
//
// Start is meant to be called once. A second call replaces the processor and
// registers an additional handler, so each later connection gets one channel
// per registration.
func (s *ChannelService) Start(ctx context.Context, processor ports.Processor, host interface{}) error {
	s.mu.Lock()
	s.processor = processor
	s.mu.Unlock()

	listener, ok := host.(ports.ConnectionListener)
	if !ok || listener == nil {
		s.logger.Warn("host cannot deliver connections; channel service not started")
		return nil
	}

	s.mu.Lock()
	if s.ctx == nil {
		if err := s.lifecycle.TransitionTo(StateStarting, "Start() called"); err != nil {
			s.mu.Unlock()
			return err
		}
		s.ctx, s.cancel = context.WithCancel(ctx)
		if err := s.lifecycle.TransitionTo(StateRunning, "listener registered"); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.listeners++
	n := s.listeners
	s.mu.Unlock()

	if n > 1 {
		s.logger.Warn("channel service started more than once",
			log.Int("listeners", n))
	}
	listener.OnConnect(s.accept)
	return nil
}

// accept is the connection handler registered by Start.
func (s *ChannelService) accept(conn ports.Connection) {
	s.mu.Lock()
	ctx := s.ctx
	if ctx == nil || ctx.Err() != nil {
		s.mu.Unlock()
		s.logger.Debug("rejecting connection: service stopped", log.String("conn", conn.ID()))
		_ = conn.Close()
		return
	}

	ch, err := NewChannel(conn, s.processor, s.logger, s.metrics)
	if err != nil {
		s.mu.Unlock()
		s.logger.Error("cannot open channel", log.String("conn", conn.ID()), log.Err(err))
		_ = conn.Close()
		return
	}
	s.channels[ch.ID()] = ch
	// Registered under mu so Stop never waits while a worker is being added.
	s.lifecycle.AddWorker()
	s.mu.Unlock()

	go func() {
		defer s.lifecycle.WorkerDone()
		defer func() {
			s.mu.Lock()
			delete(s.channels, ch.ID())
			s.mu.Unlock()
		}()
		_ = ch.Run(ctx)
	}()
}

// Stop closes every open channel and waits up to timeout for them to exit.
// Registered handlers stay registered but reject connections until the next Start.
func (s *ChannelService) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.lifecycle.CanStop() {
		s.mu.Unlock()
		return domain.ErrNotRunning
	}
	if err := s.lifecycle.TransitionTo(StateStopping, "Stop() called"); err != nil {
		s.mu.Unlock()
		return err
	}
	cancel := s.cancel
	s.ctx, s.cancel = nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	err := s.lifecycle.WaitWithTimeout(timeout)
	if err != nil {
		_ = s.lifecycle.TransitionTo(StateCrashed, "shutdown timeout")
		return err
	}
	return s.lifecycle.TransitionTo(StateStopped, "channels closed")
}

// State returns the service lifecycle state.
func (s *ChannelService) State() State { return s.lifecycle.State() }

// Processor returns the installed processor, or nil.
func (s *ChannelService) Processor() ports.Processor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.processor
}

// Channels returns the open channels ordered by id.
func (s *ChannelService) Channels() []*Channel {
	s.mu.RLock()
	out := make([]*Channel, 0, len(s.channels))
	for _, ch := range s.channels {
		out = append(out, ch)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
