// Package stream serves render frames of a running cloth simulation over
// websockets.
//
// The simulation loop owns the subsystem. Clients receive every frame as a
// JSON-encoded render.Frame and may send Command messages back, which the
// loop applies between frames.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/clothsim/internal/config"
	"github.com/san-kum/clothsim/internal/physics"
	"github.com/san-kum/clothsim/internal/render"
	"github.com/san-kum/clothsim/internal/sim"
)

const (
	writeWait       = time.Second
	shutdownTimeout = 5 * time.Second
	commandBuffer   = 16
)

// Command is a control message sent by a client.
type Command struct {
	// Enabled sets the physics gate when present.
	Enabled *bool `json:"enabled,omitempty"`
	Reset   bool  `json:"reset,omitempty"`
	// Speed scales wall-clock time; zero leaves it unchanged.
	Speed float64 `json:"speed,omitempty"`
}

type Server struct {
	cfg      *config.Config
	sub      *sim.Subsystem[*physics.Simulation]
	interval time.Duration
	speed    float64
	frame    render.Frame

	upgrader websocket.Upgrader
	commands chan Command

	mu      sync.RWMutex
	clients map[*websocket.Conn]*sync.Mutex
	latest  []byte
	// skipping is set while frames fail to encode.
	skipping bool

	logger *log.Logger
}

// NewServer builds the world described by cfg. Frames are pushed fps times
// per second.
func NewServer(cfg *config.Config, fps int) (*Server, error) {
	if fps <= 0 {
		fps = config.DefaultFrameRate
	}
	cfg = cfg.Clone()
	w, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	sub, err := sim.NewSubsystem(w, cfg.Dt)
	if err != nil {
		return nil, err
	}
	sub.SetMaxFrame(config.DefaultMaxFrame)

	s := &Server{
		cfg:      cfg,
		sub:      sub,
		interval: time.Second / time.Duration(fps),
		speed:    1,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		commands: make(chan Command, commandBuffer),
		clients:  make(map[*websocket.Conn]*sync.Mutex),
		logger:   log.New(io.Discard),
	}
	if err := s.publish(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) SetLogger(l *log.Logger) {
	s.logger = l
	s.sub.SetLogger(l)
}

// Handler routes /ws to the websocket endpoint and /frame to the latest
// encoded frame.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/frame", s.handleFrame)
	return mux
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	data := s.latest
	s.mu.RUnlock()
	if data == nil {
		http.Error(w, "no frame yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("frame write failed", "remote", r.RemoteAddr, "err", err)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	connMutex := &sync.Mutex{}
	s.mu.Lock()
	s.clients[conn] = connMutex
	latest := s.latest
	s.mu.Unlock()
	defer s.drop(conn)
	s.logger.Info("client connected", "remote", r.RemoteAddr)

	if latest != nil {
		s.send(conn, connMutex, latest)
	}

	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read ended", "remote", r.RemoteAddr, "err", err)
			}
			return
		}
		select {
		case s.commands <- cmd:
		default:
			s.logger.Warn("command dropped, loop busy", "remote", r.RemoteAddr)
		}
	}
}

func (s *Server) drop(conn *websocket.Conn) {
	s.mu.Lock()
	_, ok := s.clients[conn]
	delete(s.clients, conn)
	s.mu.Unlock()
	if ok {
		s.logger.Info("client disconnected", "remote", conn.RemoteAddr())
	}
}

func (s *Server) send(conn *websocket.Conn, mu *sync.Mutex, data []byte) error {
	mu.Lock()
	defer mu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Run drives the subsystem until ctx is done, broadcasting a frame after
// every advance. It is the only goroutine touching the subsystem.
func (s *Server) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return nil
		case cmd := <-s.commands:
			s.apply(cmd)
		case now := <-ticker.C:
			s.sub.Advance(now.Sub(last).Seconds() * s.speed)
			last = now
			s.broadcast()
		}
	}
}

func (s *Server) apply(cmd Command) {
	if cmd.Enabled != nil {
		s.sub.SetEnabled(*cmd.Enabled)
	}
	if cmd.Speed > 0 {
		s.speed = cmd.Speed
		s.logger.Debug("speed changed", "speed", cmd.Speed)
	}
	if cmd.Reset {
		w, err := s.cfg.Build()
		if err != nil {
			s.logger.Error("reset failed", "err", err)
			return
		}
		s.sub.Reset(w)
		s.logger.Info("world reset")
	}
}

// broadcast publishes the render state, keeping the last good frame when it
// cannot be encoded, e.g. after the world diverged to NaN.
func (s *Server) broadcast() {
	err := s.publish()
	switch {
	case err != nil && !s.skipping:
		s.skipping = true
		s.logger.Warn("frame not encodable, serving last good frame", "tick", s.sub.Ticks(), "err", err)
	case err == nil && s.skipping:
		s.skipping = false
		s.logger.Info("frames resumed", "tick", s.sub.Ticks())
	}
}

func (s *Server) publish() error {
	s.frame.Fill(s.sub.Render())
	s.frame.Tick = s.sub.Ticks()
	s.frame.Time = s.sub.Time()
	s.frame.Alpha = s.sub.Alpha()
	s.frame.Enabled = s.sub.Enabled()
	data, err := json.Marshal(&s.frame)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.latest = data
	targets := make(map[*websocket.Conn]*sync.Mutex, len(s.clients))
	for c, m := range s.clients {
		targets[c] = m
	}
	s.mu.Unlock()

	for conn, mu := range targets {
		if err := s.send(conn, mu, data); err != nil {
			s.logger.Debug("write failed, dropping client", "remote", conn.RemoteAddr(), "err", err)
			s.drop(conn)
			conn.Close()
		}
	}
	return nil
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		delete(s.clients, conn)
	}
}

// ListenAndServe runs the simulation loop and an HTTP server on addr until
// ctx is done, then shuts the server down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.Run(ctx) })
	g.Go(func() error {
		s.logger.Info("serving frames", "addr", addr, "ws", "/ws")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
