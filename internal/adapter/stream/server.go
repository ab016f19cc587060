// Package stream serves capture snapshots to external consumers over websockets.
//
// GET /ws upgrades the connection and pushes one JSON Frame per new snapshot,
// at most Rate times per second. GET /healthz reports the pipeline state.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/tejashwikalptaru/goscope/internal/domain"
)

const (
	writeTimeout    = 5 * time.Second
	shutdownTimeout = 3 * time.Second
	clientBuffer    = 4
)

// SnapshotSource is the part of the capture pipeline the server reads.
type SnapshotSource interface {
	Snapshot() *domain.Snapshot
	State() domain.PipelineState
}

// Config configures a Server.
type Config struct {
	// Addr is the listen address, e.g. "127.0.0.1:8089"
	Addr string

	// Rate is the maximum number of frames per second sent to each client
	Rate int
}

// Frame is the JSON document pushed to websocket clients.
type Frame struct {
	Seq        uint64    `json:"seq"`
	CapturedAt time.Time `json:"captured_at"`
	State      string    `json:"state"`
	Gated      bool      `json:"gated"`
	Peak       float64   `json:"peak"`
	Waveform   []float64 `json:"waveform"`
	Spectrum   []float64 `json:"spectrum"`
}

// NewFrame converts a snapshot for the wire.
func NewFrame(snap *domain.Snapshot, state domain.PipelineState) Frame {
	return Frame{
		Seq:        snap.Sequence,
		CapturedAt: snap.CapturedAt,
		State:      state.String(),
		Gated:      snap.Gated,
		Peak:       snap.Peak,
		Waveform:   snap.Waveform,
		Spectrum:   snap.Spectrum,
	}
}

// Health is the /healthz response body.
type Health struct {
	State   string `json:"state"`
	Seq     uint64 `json:"seq"`
	Clients int    `json:"clients"`
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan Frame
}

// Server broadcasts snapshots to websocket clients.
type Server struct {
	logger   *slog.Logger
	source   SnapshotSource
	cfg      Config
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*client
	addr    net.Addr
}

// NewServer creates a stream server. A non-positive Rate defaults to 20.
func NewServer(logger *slog.Logger, source SnapshotSource, cfg Config) *Server {
	if cfg.Rate <= 0 {
		cfg.Rate = 20
	}
	return &Server{
		logger: logger,
		source: source,
		cfg:    cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Addr returns the bound address once Serve has started, else nil.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// ClientCount returns the number of connected websocket clients.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Run listens on cfg.Addr and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then closes every client and shuts
// the HTTP server down.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		s.broadcast(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.closeClients()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	s.logger.Info("snapshot stream listening", slog.String("addr", ln.Addr().String()), slog.Int("rate", s.cfg.Rate))
	err := g.Wait()
	s.logger.Info("snapshot stream stopped")
	return err
}

// broadcast pushes every new snapshot to all clients at most Rate times a second.
func (s *Server) broadcast(ctx context.Context) {
	ticker := time.NewTicker(time.Second / time.Duration(s.cfg.Rate))
	defer ticker.Stop()

	var last uint64
	sent := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		snap := s.source.Snapshot()
		if snap == nil || (sent && snap.Sequence == last) {
			continue
		}
		last, sent = snap.Sequence, true

		frame := NewFrame(snap, s.source.State())
		s.mu.Lock()
		for _, c := range s.clients {
			deliver(c, frame)
		}
		s.mu.Unlock()
	}
}

// deliver queues frame for c, dropping it when the client is too slow.
// The caller holds s.mu.
func deliver(c *client, frame Frame) {
	select {
	case c.send <- frame:
	default:
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error
		s.logger.Debug("websocket upgrade failed", slog.Any("error", err))
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan Frame, clientBuffer),
	}
	log := s.logger.With(slog.String("client", c.id), slog.String("remote", r.RemoteAddr))

	s.mu.Lock()
	s.clients[c.id] = c
	if snap := s.source.Snapshot(); snap != nil {
		deliver(c, NewFrame(snap, s.source.State()))
	}
	s.mu.Unlock()
	log.Info("stream client connected")

	writerDone := make(chan struct{})
	go s.writeLoop(c, writerDone)

	// Clients only send control frames; reading detects the disconnect
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.mu.Lock()
	delete(s.clients, c.id)
	close(c.send)
	s.mu.Unlock()

	<-writerDone
	_ = conn.Close()
	log.Info("stream client disconnected")
}

func (s *Server) writeLoop(c *client, done chan struct{}) {
	defer close(done)

	failed := false
	for frame := range c.send {
		if failed {
			continue
		}
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteJSON(frame); err != nil {
			// Unblocks the reader so the handler unregisters the client
			failed = true
			_ = c.conn.Close()
		}
	}
}

// closeClients closes every connection; their handlers then clean up.
func (s *Server) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clients {
		_ = c.conn.Close()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h := Health{
		State:   s.source.State().String(),
		Clients: s.ClientCount(),
	}
	if snap := s.source.Snapshot(); snap != nil {
		h.Seq = snap.Sequence
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h); err != nil {
		s.logger.Warn("failed to write health response", slog.Any("error", err))
	}
}
