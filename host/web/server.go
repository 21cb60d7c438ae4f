// Package web serves the remote-drive interface: a status endpoint and a
// websocket that takes joystick directions and streams board status
package web

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"orangebot/host/drive"
	"orangebot/host/link"
)

// DefaultStatusInterval is the period of status pushes to a websocket client
const DefaultStatusInterval = 333 * time.Millisecond

// Platform is what the server drives
type Platform interface {
	Status() link.Status
	SetPower(right, left int16)
}

// Message is the websocket envelope in both directions
type Message struct {
	Direction *drive.Direction `json:"direction,omitempty"`
	Status    *link.Status     `json:"robot_status,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Server struct {
	platform Platform
	mixer    drive.Mixer
	interval time.Duration
	logger   *log.Logger
}

// NewServer creates a server driving platform through mixer
func NewServer(platform Platform, mixer drive.Mixer, interval time.Duration, logger *log.Logger) *Server {
	if interval <= 0 {
		interval = DefaultStatusInterval
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		platform: platform,
		mixer:    mixer,
		interval: interval,
		logger:   logger,
	}
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/status", s.handleStatus)
	r.Post("/direction", s.handleDirection)
	r.Get("/ws", s.handleSocket)

	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.platform.Status()); err != nil {
		s.logger.Printf("[web][error] status encode: %v", err)
	}
}

func (s *Server) handleDirection(w http.ResponseWriter, r *http.Request) {
	var d drive.Direction
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		http.Error(w, "invalid direction: "+err.Error(), http.StatusBadRequest)
		return
	}
	s.apply(d)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) apply(d drive.Direction) {
	right, left := s.mixer.Mix(d)
	s.platform.SetPower(right, left)
}

// handleSocket reads directions and pushes status until the client leaves.
// Only the push goroutine writes to the connection.
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("[web][error] upgrade: %v", err)
		return
	}
	defer conn.Close()

	s.logger.Printf("[%s][connect]", conn.RemoteAddr())

	done := make(chan struct{})
	go s.pushStatus(conn, done)
	defer close(done)

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Printf("[%s][error] read: %v", conn.RemoteAddr(), err)
			}
			// Losing the operator stops the platform
			s.platform.SetPower(0, 0)
			return
		}
		if msg.Direction != nil {
			s.apply(*msg.Direction)
		}
	}
}

func (s *Server) pushStatus(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			status := s.platform.Status()
			if err := conn.WriteJSON(Message{Status: &status}); err != nil {
				s.logger.Printf("[%s][error] failed to send status: %v", conn.RemoteAddr(), err)
				return
			}
		}
	}
}
