// Package transport connects the gateway to the translation backend over
// ZeroMQ. The backend binds a PULL socket for inbound commands and a PUB
// socket for results; the gateway dials PUSH for outbound pings and SUB
// for the event stream.
//
// Every received message is handed to the router as-is. ZeroMQ already
// frames multipart messages, so a message with more than one frame maps
// directly onto the multipart wire layout.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-zeromq/zmq4"
	"github.com/google/uuid"

	"github.com/lingomesh/voxgate/log"
	"github.com/lingomesh/voxgate/wire"
)

// DefaultPushEndpoint is the backend PULL socket the gateway pushes to.
const DefaultPushEndpoint = "tcp://127.0.0.1:5555"

// DefaultSubEndpoint is the backend PUB socket the gateway subscribes to.
const DefaultSubEndpoint = "tcp://127.0.0.1:5558"

// DefaultPingInterval is the default keepalive ping period.
const DefaultPingInterval = 30 * time.Second

// Handler consumes received wire messages.
type Handler interface {
	HandleMessage(msg wire.Message)
}

// Config configures the backend client.
type Config struct {
	// PushEndpoint is the backend PULL address (default tcp://127.0.0.1:5555).
	PushEndpoint string
	// SubEndpoint is the backend PUB address (default tcp://127.0.0.1:5558).
	SubEndpoint string
	// PingInterval is the keepalive period; <= 0 disables pings.
	PingInterval time.Duration
	// Logger receives connection lifecycle logs.
	Logger *log.Logger
}

// Client is the gateway's ZeroMQ backend connection.
type Client struct {
	config  Config
	handler Handler
	logger  *log.Logger

	sub  zmq4.Socket
	push zmq4.Socket
}

// NewClient creates a backend client delivering messages to handler.
func NewClient(cfg Config, handler Handler) (*Client, error) {
	if handler == nil {
		return nil, errors.New("transport: handler is required")
	}
	if cfg.PushEndpoint == "" {
		cfg.PushEndpoint = DefaultPushEndpoint
	}
	if cfg.SubEndpoint == "" {
		cfg.SubEndpoint = DefaultSubEndpoint
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewLogger("transport")
	}
	return &Client{config: cfg, handler: handler, logger: logger}, nil
}

// Run dials both sockets and consumes the event stream until ctx is
// canceled. Blocks; callers run it in a goroutine or as the main loop.
func (c *Client) Run(ctx context.Context) error {
	sub := zmq4.NewSub(ctx, zmq4.WithAutomaticReconnect(true))
	if err := sub.Dial(c.config.SubEndpoint); err != nil {
		return fmt.Errorf("transport: dial sub %s: %w", c.config.SubEndpoint, err)
	}
	if err := sub.SetOption(zmq4.OptionSubscribe, ""); err != nil {
		sub.Close()
		return fmt.Errorf("transport: subscribe: %w", err)
	}
	c.sub = sub

	push := zmq4.NewPush(ctx, zmq4.WithAutomaticReconnect(true))
	if err := push.Dial(c.config.PushEndpoint); err != nil {
		sub.Close()
		return fmt.Errorf("transport: dial push %s: %w", c.config.PushEndpoint, err)
	}
	c.push = push

	defer func() {
		_ = sub.Close()
		_ = push.Close()
	}()

	c.logger.Info("connected to backend", map[string]any{
		"sub_endpoint":  c.config.SubEndpoint,
		"push_endpoint": c.config.PushEndpoint,
	})

	if c.config.PingInterval > 0 {
		go c.pingLoop(ctx)
	}

	return c.recvLoop(ctx)
}

// recvLoop receives until ctx cancellation. Recv errors other than
// cancellation are logged and the loop keeps going; the socket layer
// redials on its own.
func (c *Client) recvLoop(ctx context.Context) error {
	for {
		msg, err := c.sub.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("receive failed", map[string]any{
				"error": err.Error(),
			})
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}
		c.handler.HandleMessage(toWire(msg))
	}
}

// toWire maps a ZeroMQ message onto the wire layout. A single-frame
// message is a plain envelope; anything longer carries binary frames.
func toWire(msg zmq4.Msg) wire.Message {
	if len(msg.Frames) <= 1 {
		var buf []byte
		if len(msg.Frames) == 1 {
			buf = msg.Frames[0]
		}
		return wire.Single(buf)
	}
	return wire.Multipart(msg.Frames)
}

func (c *Client) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Ping(); err != nil {
				c.logger.Warn("ping failed", map[string]any{
					"error": err.Error(),
				})
			}
		}
	}
}

// Ping sends one keepalive to the backend. The pong comes back on the
// event stream and is handled by the router like any other message.
func (c *Client) Ping() error {
	body, err := json.Marshal(map[string]any{
		"type":      "ping",
		"requestId": uuid.NewString(),
		"timestamp": float64(time.Now().UnixNano()) / 1e9,
	})
	if err != nil {
		return fmt.Errorf("transport: encode ping: %w", err)
	}
	if err := c.push.Send(zmq4.NewMsg(body)); err != nil {
		return fmt.Errorf("transport: send ping: %w", err)
	}
	return nil
}
