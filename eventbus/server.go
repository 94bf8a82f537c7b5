package eventbus

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	readLimit    = 1 << 16
	pongWait     = 60 * time.Second
	pingInterval = 25 * time.Second
	writeWait    = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	// Game clients are served from anywhere, including file:// builds.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConn adapts a websocket to Conn. Writes are serialised.
type wsConn struct {
	ws     *websocket.Conn
	mu     sync.Mutex
	closed bool
}

func (c *wsConn) Send(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, b)
}

func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (c *wsConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.ws.Close()
}

// Server exposes a Hub over HTTP.
type Server struct {
	hub *Hub
	log zerolog.Logger
}

func NewServer(hub *Hub, log zerolog.Logger) *Server {
	return &Server{hub: hub, log: log}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)
	r.HandleFunc("/trigger", s.handleTrigger).Methods(http.MethodPost)
	r.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	return r
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("upgrade failed")
		return
	}
	conn := &wsConn{ws: ws}
	defer conn.Close()

	ws.SetReadLimit(readLimit)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	reply := make(chan string, 1)
	s.hub.Inbox <- Join{Conn: conn, Reply: reply}
	id := <-reply
	defer func() { s.hub.Inbox <- Leave{ClientID: id} }()

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.ping(); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug().Err(err).Str("client", id).Msg("read failed")
			}
			return
		}
		env, err := DecodeEnvelope(msg)
		if err != nil {
			s.log.Debug().Err(err).Str("client", id).Msg("bad message")
			continue
		}
		s.hub.Inbox <- ClientMessage{ClientID: id, Envelope: env}
	}
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	var req TriggerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, readLimit)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	if !KnownType(req.Type) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown event type"})
		return
	}
	reply := make(chan Event, 1)
	select {
	case s.hub.Inbox <- Trigger{Request: req, Reply: reply}:
	case <-r.Context().Done():
		return
	}
	select {
	case ev := <-reply:
		writeJSON(w, http.StatusCreated, ev)
	case <-r.Context().Done():
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	reply := make(chan []Event, 1)
	select {
	case s.hub.Inbox <- ListEvents{Reply: reply}:
	case <-r.Context().Done():
		return
	}
	select {
	case evs := <-reply:
		writeJSON(w, http.StatusOK, evs)
	case <-r.Context().Done():
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
