// Package wshost drives a router from a browser over a WebSocket.
//
// The browser runs a thin client (served at /client.js) that reports the
// current location and the elements the router cares about, forwards link
// clicks and back/forward events, and applies the ops the server sends:
// history pushes and replaces, class toggles, scroll requests and HTML
// updates. Each connection is a host.Host; OnConnect typically builds a
// router.Router on it.
//
//	srv := wshost.New(nil, func(c *wshost.Conn) (func(), error) {
//		r, err := router.New(router.Config{Host: c, Routes: routes})
//		if err != nil {
//			return nil, err
//		}
//		r.Start()
//		return func() { r.Stop() }, nil
//	})
//	http.ListenAndServe(":8080", srv.Handler())
package wshost

import (
	_ "embed"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/routestate/internal/errors"
)

//go:embed client.js
var clientJS []byte

// ConnectFunc is called once a client has said hello. The returned release
// function, if any, runs when the connection ends. An error closes the
// connection.
type ConnectFunc func(c *Conn) (release func(), err error)

// Server accepts thin-client connections.
type Server struct {
	config    *Config
	upgrader  websocket.Upgrader
	onConnect ConnectFunc
	logger    *slog.Logger
	metrics   *metrics

	mu    sync.RWMutex
	conns map[string]*Conn
}

// New creates a server. A nil config uses DefaultConfig.
func New(config *Config, onConnect ConnectFunc) *Server {
	config = config.withDefaults()
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		onConnect: onConnect,
		logger:    logger.With("component", "wshost"),
		metrics:   newMetrics(config.Registerer),
		conns:     make(map[string]*Conn),
	}
}

// Handler returns the server's routes: GET /ws, GET /healthz and
// GET /client.js.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/ws", s.HandleWebSocket)
	r.Get("/healthz", s.handleHealth)
	r.Get("/client.js", s.handleClient)
	return r
}

// Conns returns the number of open connections.
func (s *Server) Conns() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}

// Conn returns the open connection with the given ID, or nil.
func (s *Server) Conn(id string) *Conn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conns[id]
}

// Close closes every open connection.
func (s *Server) Close() {
	s.mu.RLock()
	conns := make([]*Conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.RUnlock()

	for _, c := range conns {
		c.Close()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":      "ok",
		"connections": s.Conns(),
	})
}

func (s *Server) handleClient(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(clientJS)
}

// HandleWebSocket upgrades the request and serves the connection until it
// ends.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		s.metrics.failure("upgrade")
		return
	}

	ws.SetReadLimit(s.config.MaxMessageSize)
	ws.SetReadDeadline(time.Now().Add(s.config.HandshakeTimeout))

	var hello ClientMessage
	if err := ws.ReadJSON(&hello); err != nil {
		s.logger.Error("handshake read failed", "error", err)
		s.metrics.failure("handshake")
		ws.Close()
		return
	}
	if hello.Type != MsgHello || hello.Location == nil {
		s.logger.Error("handshake rejected", "type", hello.Type)
		s.metrics.failure("handshake")
		ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseProtocolError, "expected hello"),
			time.Now().Add(time.Second))
		ws.Close()
		return
	}

	s.metrics.message(MsgHello)
	c := newConn(uuid.NewString(), ws, r, s.config, s.logger, s.metrics)
	loc := *hello.Location
	if loc.Pathname == "" {
		loc.Pathname = "/"
	}
	if loc.Host == "" {
		loc.Host = r.Host
	}
	c.loc = loc
	c.setNodes(hello.Nodes)

	s.mu.Lock()
	s.conns[c.id] = c
	s.mu.Unlock()
	s.metrics.connected(1)
	defer func() {
		s.mu.Lock()
		delete(s.conns, c.id)
		s.mu.Unlock()
		s.metrics.connected(-1)
		c.Close()
	}()

	var release func()
	if s.onConnect != nil {
		release, err = s.onConnect(c)
		if err != nil {
			s.logger.Error("connect rejected", "conn_id", c.id, "error",
				errors.New("R210").WithDetail(c.id).Wrap(err))
			s.metrics.failure("connect")
			return
		}
	}
	if release != nil {
		defer release()
	}

	c.logger.Debug("connected", "path", loc.Pathname)
	go s.heartbeat(c)
	s.readLoop(c)
	c.logger.Debug("disconnected")
}

// readLoop reads client messages until the connection fails.
func (s *Server) readLoop(c *Conn) {
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	})

	for {
		c.ws.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		var msg ClientMessage
		if err := c.ws.ReadJSON(&msg); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if stderrors.As(err, &syntaxErr) || stderrors.As(err, &typeErr) {
				c.logger.Warn("bad message", "error", err)
				s.metrics.failure("decode")
				continue
			}
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.logger.Error("read error", "error", err)
				s.metrics.failure("read")
			}
			return
		}
		s.metrics.message(msg.Type)
		c.handle(msg)
	}
}

// heartbeat pings the client until the connection ends.
func (s *Server) heartbeat(c *Conn) {
	ticker := time.NewTicker(s.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.config.WriteTimeout))
			c.writeMu.Unlock()
			if err != nil {
				c.logger.Warn("ping failed", "error", err)
				s.metrics.failure("ping")
				c.Close()
				return
			}
		}
	}
}
