// pkg/network/server.go
package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/opd-ai/go-arena/pkg/config"
	"github.com/opd-ai/go-arena/pkg/engine"
	"github.com/opd-ai/go-arena/pkg/logging"
	"github.com/opd-ai/go-arena/pkg/validation"
)

// FrameServer broadcasts snapshots to every connected viewer. Each viewer
// has its own writer goroutine holding at most one pending frame, so a
// slow viewer skips frames instead of delaying the simulation. A viewer
// is disconnected on its first failed write.
type FrameServer struct {
	cfg    config.StreamConfig
	hello  Hello
	logger *logging.Logger

	listener net.Listener
	limiter  *validation.RateLimiter
	mu       sync.RWMutex
	viewers  map[uint64]*viewer
	nextID   uint64
	closed   bool
	wg       sync.WaitGroup
}

// viewer is one connected stream
type viewer struct {
	id      uint64
	conn    net.Conn
	guard   *Guard
	pending chan []byte
	done    chan struct{}
	once    sync.Once
}

// NewFrameServer creates a server for cfg; hello is sent to every viewer
// on connect. A nil logger discards.
func NewFrameServer(cfg config.StreamConfig, hello Hello, logger *logging.Logger) *FrameServer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &FrameServer{
		cfg:     cfg,
		hello:   hello,
		logger:  logger,
		viewers: make(map[uint64]*viewer),
	}
}

// Start listens on the configured address and accepts viewers until Close
func (s *FrameServer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrServerClosed
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("failed to start frame server: %w", err)
	}
	s.listener = listener
	if s.cfg.ConnectsPerMinute > 0 {
		s.limiter = validation.NewRateLimiter(s.cfg.ConnectsPerMinute, time.Minute)
	}

	s.wg.Add(1)
	go s.acceptConnections(ctx)

	s.logger.Info(ctx, "frame server started", "address", listener.Addr().String())
	return nil
}

// Addr returns the listening address, or "" when not listening
func (s *FrameServer) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil || s.closed {
		return ""
	}
	return s.listener.Addr().String()
}

// Viewers returns the number of connected viewers
func (s *FrameServer) Viewers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.viewers)
}

// Broadcast encodes snap once and queues it for every viewer. An older
// frame still waiting for a viewer is replaced.
func (s *FrameServer) Broadcast(snap engine.Snapshot) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrServerClosed
	}
	if len(s.viewers) == 0 {
		return nil
	}

	data, err := EncodeMessage(FrameMessage, NewFrame(snap))
	if err != nil {
		return err
	}
	for _, v := range s.viewers {
		v.offer(data)
	}
	return nil
}

// Close stops accepting, disconnects every viewer and waits for the
// server goroutines to exit
func (s *FrameServer) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true

	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	if s.limiter != nil {
		s.limiter.Close()
	}
	for _, v := range s.viewers {
		v.stop()
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info(context.Background(), "frame server stopped")
	return err
}

// acceptConnections accepts new viewers
func (s *FrameServer) acceptConnections(ctx context.Context) {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn(ctx, "error accepting viewer", "error", err.Error())
			continue
		}
		if s.limiter != nil && !s.limiter.Allow(remoteHost(conn)) {
			s.logger.Warn(ctx, "rejecting viewer, too many connection attempts",
				"remote", conn.RemoteAddr().String(),
			)
			conn.Close()
			continue
		}
		s.addViewer(ctx, conn)
	}
}

// remoteHost strips the port from the peer address
func remoteHost(conn net.Conn) string {
	addr := conn.RemoteAddr().String()
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

// addViewer registers conn and starts its writer, or rejects it when the
// server is full
func (s *FrameServer) addViewer(ctx context.Context, conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || len(s.viewers) >= s.cfg.MaxViewers {
		s.logger.Warn(ctx, "rejecting viewer, server full",
			"remote", conn.RemoteAddr().String(),
			"viewers", len(s.viewers),
		)
		conn.Close()
		return
	}

	s.nextID++
	v := &viewer{
		id:      s.nextID,
		conn:    conn,
		guard:   NewGuard(fmt.Sprintf("viewer-%d", s.nextID), s.cfg.CircuitBreaker, s.logger),
		pending: make(chan []byte, 1),
		done:    make(chan struct{}),
	}
	s.viewers[v.id] = v

	s.wg.Add(2)
	go s.writeLoop(ctx, v)
	go s.watchViewer(v)

	s.logger.Info(ctx, "viewer connected",
		"viewer_id", v.id,
		"remote", conn.RemoteAddr().String(),
	)
}

// writeLoop sends the hello, then queued frames until the viewer stops
// or a write fails
func (s *FrameServer) writeLoop(ctx context.Context, v *viewer) {
	defer s.wg.Done()
	defer s.removeViewer(ctx, v)

	timeout := time.Duration(s.cfg.WriteTimeoutMs) * time.Millisecond
	write := func(data []byte) error {
		return v.guard.Execute(ctx, func() error {
			v.conn.SetWriteDeadline(time.Now().Add(timeout))
			_, err := v.conn.Write(data)
			return err
		})
	}

	hello, err := EncodeMessage(HelloMessage, s.hello)
	if err == nil {
		err = write(hello)
	}
	if err != nil {
		s.logger.Warn(ctx, "sending hello failed", "viewer_id", v.id, "error", err.Error())
		return
	}

	for {
		select {
		case <-v.done:
			return
		case data := <-v.pending:
			// A failed write may have sent part of a message, so the
			// stream can no longer be framed.
			if err := write(data); err != nil {
				s.logger.Warn(ctx, "dropping viewer, frame write failed",
					"viewer_id", v.id,
					"breaker", v.guard.State().String(),
					"error", err.Error(),
				)
				return
			}
		}
	}
}

// watchViewer stops the viewer once its connection is closed by the peer.
// Viewers never send anything; whatever arrives is discarded.
func (s *FrameServer) watchViewer(v *viewer) {
	defer s.wg.Done()
	io.Copy(io.Discard, v.conn)
	v.stop()
}

func (s *FrameServer) removeViewer(ctx context.Context, v *viewer) {
	v.stop()
	s.mu.Lock()
	delete(s.viewers, v.id)
	s.mu.Unlock()
	s.logger.Info(ctx, "viewer disconnected", "viewer_id", v.id)
}

// offer queues data, replacing a frame the writer has not taken yet
func (v *viewer) offer(data []byte) {
	for {
		select {
		case v.pending <- data:
			return
		default:
		}
		select {
		case <-v.pending:
		default:
		}
	}
}

func (v *viewer) stop() {
	v.once.Do(func() {
		close(v.done)
		v.conn.Close()
	})
}
