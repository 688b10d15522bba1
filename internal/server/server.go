// Package server runs the TCP line-protocol front end of the ledger.
//
// Connections are accepted and read by per-connection goroutines, but
// every parsed command line is funneled through one dispatch goroutine
// that owns the router and the ledger service. No two ledger mutations
// ever run in parallel, which makes the whole command stream
// linearizable without locks; it is the Go rendition of a
// single-threaded readiness loop.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ilievs/splitwise/internal/ledger"
	"github.com/ilievs/splitwise/internal/protocol"
)

// Config carries the listener settings. Nothing here is a process-wide
// constant; the caller decides.
type Config struct {
	// Host and Port form the listen address.
	Host string
	Port int

	// BufferSize bounds one command line in bytes. Input beyond it is
	// truncated, not rejected; it is a protocol constraint, not an
	// error.
	BufferSize int
}

// Addr returns the host:port listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, fmt.Sprintf("%d", c.Port))
}

// request is one command line in flight from a connection goroutine to
// the dispatch goroutine.
type request struct {
	connID string
	line   string
	reply  chan response
}

type response struct {
	text       string
	disconnect bool
}

// Server multiplexes client connections over the command router.
type Server struct {
	cfg      Config
	ledger   *ledger.Service
	router   *protocol.Router
	metrics  *Metrics
	requests chan request

	lis   net.Listener
	ready chan struct{}
}

// New creates a server over the given ledger service. A nil metrics
// value registers the collectors on a private registry, which test code
// relies on.
func New(cfg Config, svc *ledger.Service, metrics *Metrics) *Server {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1024
	}
	if metrics == nil {
		metrics = NewMetrics(prometheus.NewRegistry())
	}
	return &Server{
		cfg:      cfg,
		ledger:   svc,
		router:   protocol.NewRouter(svc),
		metrics:  metrics,
		requests: make(chan request),
		ready:    make(chan struct{}),
	}
}

// Ready returns a channel that is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound listen address. Valid after Ready is closed;
// useful when the configured port is 0.
func (s *Server) Addr() string {
	if s.lis != nil {
		return s.lis.Addr().String()
	}
	return s.cfg.Addr()
}

// Run listens on the configured address and serves until ctx is
// canceled. On shutdown, and on a fatal listener failure, the ledger is
// flushed to storage before Run returns.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr(), err)
	}
	s.lis = lis
	close(s.ready)
	slog.Info("Server listening", "address", lis.Addr().String())

	// Everything downstream runs off a derived context so that a fatal
	// accept error can tear the server down the same way an external
	// cancellation does.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Cancellation is delivered by closing the listener; Accept is the
	// only long-term blocking point of this goroutine.
	go func() {
		<-ctx.Done()
		lis.Close()
	}()

	dispatchDone := make(chan struct{})
	go s.dispatch(ctx, dispatchDone)

	var wg sync.WaitGroup
	var fatal error
	for {
		conn, err := lis.Accept()
		if err != nil {
			if ctx.Err() == nil {
				fatal = fmt.Errorf("accept failed: %w", err)
			}
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleConn(ctx, conn)
		}()
	}

	// On the fatal path the parent context is still live; canceling the
	// derived one stops the dispatch loop and unblocks connection reads
	// so the flush below is always reached.
	cancel()
	<-dispatchDone
	wg.Wait()

	// Flush on the way out, clean shutdown or not: in-memory balances
	// must survive the process.
	if err := s.ledger.Persist(context.Background()); err != nil {
		slog.Error("Failed to persist ledger on shutdown", "error", err)
		if fatal == nil {
			fatal = err
		}
	}

	if fatal != nil {
		return fatal
	}
	slog.Info("Server stopped")
	return nil
}

// dispatch owns the router: it serializes every command line, applies the
// ledger mutation and hands the response back to the connection.
func (s *Server) dispatch(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-s.requests:
			text, disconnect := s.router.Dispatch(req.line)
			s.metrics.CommandsTotal.WithLabelValues(protocol.CommandName(req.line)).Inc()

			if disconnect {
				if err := s.ledger.Persist(ctx); err != nil {
					slog.Error("Failed to persist ledger on disconnect",
						"conn_id", req.connID, "error", err)
				}
			}
			req.reply <- response{text: text, disconnect: disconnect}
		}
	}
}

// handleConn reads command lines from one client until it disconnects.
// One Read is one command; the fixed buffer bounds the line length. I/O
// failures abort this connection only.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	connID := uuid.New().String()
	logger := slog.With("conn_id", connID, "remote_addr", conn.RemoteAddr().String())
	logger.Info("Connection accepted")

	s.metrics.OpenConnections.Inc()
	defer s.metrics.OpenConnections.Dec()
	defer conn.Close()

	// Shutdown must interrupt the blocking Read below; closing the
	// connection is the wakeup.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	buf := make([]byte, s.cfg.BufferSize)
	for {
		n, err := conn.Read(buf)
		if err != nil || n <= 0 {
			logger.Info("Nothing to read, closing connection")
			return
		}
		if n == len(buf) {
			s.metrics.TruncatedReads.Inc()
			logger.Warn("Read filled the buffer, command may be truncated", "bytes", n)
		}

		line := strings.TrimSpace(string(buf[:n]))
		logger.Debug("Command received", "command", protocol.CommandName(line))

		req := request{connID: connID, line: line, reply: make(chan response, 1)}
		select {
		case s.requests <- req:
		case <-ctx.Done():
			return
		}
		resp := <-req.reply

		if resp.disconnect {
			logger.Info("Client disconnected")
			return
		}
		if resp.text == "" {
			continue
		}
		if _, err := conn.Write([]byte(resp.text + "\n")); err != nil {
			logger.Warn("Failed to write response, closing connection", "error", err)
			return
		}
	}
}
