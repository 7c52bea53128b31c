package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/sheetbridge/internal/domain"
	"github.com/bft-labs/sheetbridge/internal/ports"
	"github.com/bft-labs/sheetbridge/pkg/log"
)

// Channel relays messages between one connection and the shared processor.
// It owns the connection for its whole lifetime and closes it when Run returns.
type Channel struct {
	id        string
	conn      ports.Connection
	processor ports.Processor
	logger    ports.Logger
	metrics   *Metrics
	opened    time.Time
}

// NewChannel binds conn to processor. It fails with domain.ErrNoProcessor
// when processor is nil.
func NewChannel(conn ports.Connection, processor ports.Processor, logger ports.Logger, metrics *Metrics) (*Channel, error) {
	if processor == nil {
		return nil, domain.ErrNoProcessor
	}
	if conn == nil {
		return nil, errors.New("channel: nil connection")
	}
	if logger == nil {
		logger = log.NoopLogger{}
	}
	id := uuid.NewString()
	return &Channel{
		id:        id,
		conn:      conn,
		processor: processor,
		logger:    log.With(logger, log.String("channel", id), log.String("conn", conn.ID())),
		metrics:   metrics,
		opened:    time.Now(),
	}, nil
}

// ID returns the channel's unique id.
func (c *Channel) ID() string { return c.id }

// Processor returns the processor this channel relays to.
func (c *Channel) Processor() ports.Processor { return c.processor }

// Conn returns the connection this channel owns.
func (c *Channel) Conn() ports.Connection { return c.conn }

// Run relays messages until the peer closes the connection or ctx is done.
// Replies are written in request order. A clean close returns nil.
func (c *Channel) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Unblock a pending read when ctx ends.
	stop := context.AfterFunc(ctx, func() { _ = c.conn.Close() })
	defer stop()
	defer c.conn.Close()

	c.metrics.channelOpened()
	defer c.metrics.channelClosed()
	c.logger.Info("channel opened")

	for {
		msg, err := c.conn.ReadMessage(ctx)
		if err != nil {
			var de *domain.DecodeError
			if errors.As(err, &de) {
				c.metrics.message("invalid", "error")
				if werr := c.conn.WriteMessage(ctx, domain.ErrorReply(domain.Message{}, err, 0)); werr != nil {
					return c.closed(ctx, werr)
				}
				continue
			}
			return c.closed(ctx, err)
		}

		out := c.handle(ctx, msg)
		if err := c.conn.WriteMessage(ctx, out); err != nil {
			return c.closed(ctx, fmt.Errorf("write reply: %w", err))
		}
	}
}

func (c *Channel) closed(ctx context.Context, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, domain.ErrConnectionClosed) || ctx.Err() != nil {
		c.logger.Info("channel closed", log.Duration("open_for", time.Since(c.opened)))
		return nil
	}
	c.logger.Warn("channel failed", log.Err(err))
	return err
}

func (c *Channel) handle(ctx context.Context, msg domain.Message) (out domain.Message) {
	defer func() {
		if r := recover(); r != nil {
			c.metrics.message(msg.Type, "panic")
			c.logger.Error("processor panic", log.String("type", msg.Type), log.Any("panic", r))
			out = domain.ErrorReply(msg, fmt.Errorf("internal error"), 0)
		}
	}()

	reply, err := c.processor.Process(ctx, msg)
	if err != nil {
		c.metrics.message(msg.Type, "error")
		status := 0
		var rfe *domain.RemoteFetchError
		if errors.As(err, &rfe) {
			status = rfe.Status
		}
		c.logger.Debug("message failed", log.String("type", msg.Type), log.Err(err))
		return domain.ErrorReply(msg, err, status)
	}

	c.metrics.message(msg.Type, "ok")
	if reply.ID == "" {
		reply.ID = msg.ID
	}
	return reply
}
