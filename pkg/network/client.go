// pkg/network/client.go
package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/opd-ai/go-arena/pkg/config"
	"github.com/opd-ai/go-arena/pkg/logging"
	"github.com/opd-ai/go-arena/pkg/validation"
)

const (
	dialAttempts  = 3
	dialBaseDelay = 500 * time.Millisecond
	helloTimeout  = 5 * time.Second
)

// FrameClient reads a frame stream. Run keeps the newest frame, which
// Latest returns; Frames delivers frames to a consumer that keeps up.
type FrameClient struct {
	conn   net.Conn
	hello  Hello
	logger *logging.Logger

	mu       sync.RWMutex
	latest   Frame
	has      bool
	frames   chan Frame
	rejected int
}

// Dial connects to a FrameServer, retrying through a circuit breaker, and
// reads the stream's hello. A nil logger discards.
func Dial(ctx context.Context, address string, breaker config.CircuitBreakerConfig, logger *logging.Logger) (*FrameClient, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	guard := NewGuard("dial-"+address, breaker, logger)

	var conn net.Conn
	err := guard.ExecuteWithRetry(ctx, func() error {
		var d net.Dialer
		c, err := d.DialContext(ctx, "tcp", address)
		if err != nil {
			return err
		}
		conn = c
		return nil
	}, dialAttempts, dialBaseDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}

	c := &FrameClient{conn: conn, logger: logger, frames: make(chan Frame, 1)}
	if err := c.readHello(); err != nil {
		conn.Close()
		return nil, err
	}

	logger.Info(ctx, "connected to frame stream",
		"address", address,
		"stream_run_id", c.hello.RunID,
	)
	return c, nil
}

func (c *FrameClient) readHello() error {
	c.conn.SetReadDeadline(time.Now().Add(helloTimeout))
	defer c.conn.SetReadDeadline(time.Time{})

	msgType, data, err := ReadMessage(c.conn)
	if err != nil {
		return fmt.Errorf("failed to read hello: %w", err)
	}
	if msgType != HelloMessage {
		return fmt.Errorf("expected %s, got %s", HelloMessage, msgType)
	}
	if err := json.Unmarshal(data, &c.hello); err != nil {
		return fmt.Errorf("failed to parse hello: %w", err)
	}
	return validation.ValidateHello(c.hello.RunID, c.hello.Width, c.hello.Height, c.hello.TickRate)
}

// Hello returns the stream description sent by the server
func (c *FrameClient) Hello() Hello { return c.hello }

// Latest returns the newest frame; ok is false before the first
func (c *FrameClient) Latest() (Frame, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest, c.has
}

// Frames delivers received frames. Frames a slow consumer misses are
// dropped; Latest always has the newest.
func (c *FrameClient) Frames() <-chan Frame { return c.frames }

// Rejected returns how many frames failed validation and were dropped
func (c *FrameClient) Rejected() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rejected
}

// Run reads frames until ctx is cancelled or the server ends the stream,
// both of which return nil. Frames that fail validation are dropped. The
// connection is closed on return.
func (c *FrameClient) Run(ctx context.Context) error {
	defer c.conn.Close()
	check := validation.NewStreamValidator(c.hello.Width, c.hello.Height)

	stop := context.AfterFunc(ctx, func() { c.conn.Close() })
	defer stop()

	for {
		msgType, data, err := ReadMessage(c.conn)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("reading frame stream: %w", err)
		}
		if msgType != FrameMessage {
			c.logger.Debug(ctx, "ignoring message", "type", msgType.String())
			continue
		}

		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("failed to parse frame: %w", err)
		}
		if err := check.Frame(f.Tick, f.Width, f.Height, f.Bodies); err != nil {
			c.mu.Lock()
			c.rejected++
			c.mu.Unlock()
			c.logger.Warn(ctx, "dropping frame", "tick", f.Tick, "error", err.Error())
			continue
		}
		c.store(f)
	}
}

func (c *FrameClient) store(f Frame) {
	c.mu.Lock()
	c.latest, c.has = f, true
	c.mu.Unlock()

	select {
	case c.frames <- f:
	default:
		select {
		case <-c.frames:
		default:
		}
		select {
		case c.frames <- f:
		default:
		}
	}
}

// Close closes the connection, ending Run
func (c *FrameClient) Close() error {
	return c.conn.Close()
}
