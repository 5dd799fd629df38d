package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"fincoach/internal/log"
	"fincoach/internal/services"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = wsPongWait * 9 / 10
	wsMaxMessageSize = 4 << 10
)

// ClientMessage is a message from the dashboard over the coach socket.
type ClientMessage struct {
	Type     string  `json:"type"`
	Content  string  `json:"content,omitempty"`
	Income   *string `json:"income,omitempty"`
	Goal     *string `json:"goal,omitempty"`
	Risk     *string `json:"risk_profile,omitempty"`
	Language *string `json:"language,omitempty"`
}

// ServerMessage is a message to the dashboard.
type ServerMessage struct {
	Type    string `json:"type"`
	Topic   string `json:"topic,omitempty"`
	Content string `json:"content,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func newUpgrader() websocket.Upgrader {
	// nil CheckOrigin rejects cross-origin handshakes
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context()).WithComponent(log.ComponentWebSocket)

	id, err := sessionID(r)
	if err != nil {
		UnauthorizedError("missing session").Write(w)
		return
	}
	if _, err := s.coach.Session(id); err != nil {
		s.sessionError(w, r, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		logger.WarnContext(r.Context(), "WebSocket upgrade failed", log.FieldError, err)
		return
	}
	defer conn.Close()

	atomic.AddInt64(&s.metrics.sockets, 1)
	defer atomic.AddInt64(&s.metrics.sockets, -1)

	logger.InfoContext(r.Context(), "WebSocket connected", log.FieldSessionID, id)

	conn.SetReadLimit(wsMaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	stop := make(chan struct{})
	defer close(stop)
	go s.keepAlive(conn, stop)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WarnContext(r.Context(), "WebSocket read failed", log.FieldSessionID, id, log.FieldError, err)
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.send(conn, ServerMessage{Type: "error", Content: "Invalid message format"})
			continue
		}

		reply := s.dispatch(r, id, msg)
		if !s.send(conn, reply) {
			break
		}
	}

	logger.InfoContext(r.Context(), "WebSocket disconnected", log.FieldSessionID, id)
}

// dispatch answers one client message. All replies are written by the read
// loop, so the connection only ever has one data writer.
func (s *Server) dispatch(r *http.Request, id string, msg ClientMessage) ServerMessage {
	ctx := r.Context()
	switch msg.Type {
	case "ask":
		question := clampQuestion(sanitizeInput(msg.Content))
		if problem := validateQuestion(question); problem != "" {
			return ServerMessage{Type: "error", Content: problem}
		}
		advice, err := s.coach.Ask(ctx, id, question)
		if err != nil {
			return socketError(err)
		}
		atomic.AddInt64(&s.metrics.advice, 1)
		return ServerMessage{Type: "advice", Topic: string(advice.Topic), Content: advice.Text}

	case "budget":
		proposal, err := s.coach.OptimizeBudget(ctx, id)
		if err != nil {
			return socketError(err)
		}
		return ServerMessage{Type: "budget", Content: proposal.Acknowledgment, Data: newBudgetView(proposal)}

	case "invest":
		suggestion, err := s.coach.Investment(ctx, id)
		if err != nil {
			return socketError(err)
		}
		return ServerMessage{Type: "investment", Topic: string(suggestion.Risk), Content: services.DisplaySuggestion(suggestion)}

	case "dashboard", "settings":
		if msg.Type == "settings" {
			if _, err := s.coach.UpdateSettings(ctx, id, services.SettingsUpdate{
				Income:   sanitized(msg.Income),
				Goal:     sanitized(msg.Goal),
				Risk:     sanitized(msg.Risk),
				Language: sanitized(msg.Language),
			}); err != nil {
				return socketError(err)
			}
		}
		d, err := s.coach.Dashboard(ctx, id)
		if err != nil {
			return socketError(err)
		}
		return ServerMessage{Type: "dashboard", Data: newDashboardView(d)}

	default:
		return ServerMessage{Type: "error", Content: fmt.Sprintf("Unknown message type: %s", msg.Type)}
	}
}

// keepAlive pings until stop is closed or the server shuts down.
func (s *Server) keepAlive(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		case <-s.closing:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(wsWriteWait))
			_ = conn.Close()
			return
		case <-stop:
			return
		}
	}
}

func (s *Server) send(conn *websocket.Conn, msg ServerMessage) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(msg); err != nil {
		s.logger.Warn("Failed to send websocket message", "type", msg.Type, log.FieldError, err)
		return false
	}
	return true
}

func socketError(err error) ServerMessage {
	return ServerMessage{Type: "error", Content: err.Error()}
}

func sanitized(v *string) *string {
	if v == nil {
		return nil
	}
	out := sanitizeInput(*v)
	return &out
}
