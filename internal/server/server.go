package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/lotas/tabtab/internal/applog"
	"github.com/lotas/tabtab/internal/types"
	"nhooyr.io/websocket"
)

// ErrNotConnected is returned when a command is sent with no extension
// connected.
var ErrNotConnected = errors.New("extension not connected")

// Incoming message types.
const (
	TypeTabs        = "tabs"          // reply to a query command
	TypeSave        = "save"          // popup "Save & Close"
	TypeGroupByHost = "group-by-host" // popup "Group by host"
	TypeAck         = "ack"           // command result, carries ID and OK
)

// Outgoing command actions.
const (
	ActionQuery   = "query"
	ActionOpen    = "open"
	ActionClose   = "close"
	ActionGroup   = "group"
	ActionUngroup = "ungroup"
)

// IncomingMsg is a message from the extension.
type IncomingMsg struct {
	Type string          `json:"type"`
	Tabs json.RawMessage `json:"tabs,omitempty"`
	// Command response fields
	ID    string `json:"id,omitempty"`
	OK    *bool  `json:"ok,omitempty"`
	Error string `json:"error,omitempty"`
}

// OutgoingMsg is a command to the extension.
type OutgoingMsg struct {
	ID     string `json:"id"`
	Action string `json:"action"`
	URL    string `json:"url,omitempty"`
	Active bool   `json:"active,omitempty"`
	TabIDs []int  `json:"tabIds,omitempty"`
	Name   string `json:"name,omitempty"`
	Color  string `json:"color,omitempty"`
}

// Server manages the WebSocket connection to the extension.
type Server struct {
	port    int
	msgs    chan IncomingMsg
	mu      sync.Mutex
	conn    *websocket.Conn
	connCtx context.Context

	seq       atomic.Int64
	ready     chan struct{}
	readyOnce sync.Once
}

// New creates a new Server. Port 0 means the caller manages the listener.
func New(port int) *Server {
	return &Server{
		port:  port,
		msgs:  make(chan IncomingMsg, 64),
		ready: make(chan struct{}),
	}
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.port
}

// Messages returns the channel of incoming messages from the extension.
func (s *Server) Messages() <-chan IncomingMsg {
	return s.msgs
}

// Connected reports whether an extension is connected.
func (s *Server) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// WaitConnected blocks until an extension has connected at least once.
func (s *Server) WaitConnected(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for extension: %w", ctx.Err())
	}
}

func (s *Server) nextID() string {
	return "cmd-" + strconv.FormatInt(s.seq.Add(1), 10)
}

// Send sends a command to the connected extension. An empty ID is filled
// in from the server's command counter.
func (s *Server) Send(msg OutgoingMsg) error {
	s.mu.Lock()
	conn := s.conn
	ctx := s.connCtx
	s.mu.Unlock()

	if conn == nil {
		return ErrNotConnected
	}
	if msg.ID == "" {
		msg.ID = s.nextID()
	}

	applog.Info("ws.send", "action", msg.Action, "id", msg.ID)
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

// Open asks the extension to open url, in the foreground when active is set.
func (s *Server) Open(ctx context.Context, url string, active bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Send(OutgoingMsg{Action: ActionOpen, URL: url, Active: active})
}

// Close asks the extension to close the given tabs.
func (s *Server) Close(ctx context.Context, tabIDs []int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(tabIDs) == 0 {
		return nil
	}
	return s.Send(OutgoingMsg{Action: ActionClose, TabIDs: tabIDs})
}

// Group asks the extension to put the tabs of g into one titled tab group.
func (s *Server) Group(ctx context.Context, g types.HostGroup) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Send(OutgoingMsg{Action: ActionGroup, TabIDs: g.TabIDs, Name: g.Host, Color: g.Color})
}

// Ungroup asks the extension to take the given tabs out of their groups.
func (s *Server) Ungroup(ctx context.Context, tabIDs []int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Send(OutgoingMsg{Action: ActionUngroup, TabIDs: tabIDs})
}

// Query asks the extension for its open tabs and waits for the reply.
// It reads from Messages, so it must not run alongside Run.
func (s *Server) Query(ctx context.Context) ([]types.OpenTab, error) {
	id := s.nextID()
	if err := s.Send(OutgoingMsg{ID: id, Action: ActionQuery}); err != nil {
		return nil, fmt.Errorf("send query: %w", err)
	}
	for {
		select {
		case msg := <-s.msgs:
			if msg.Type != TypeTabs || (msg.ID != "" && msg.ID != id) {
				continue
			}
			return ParseOpenTabs(msg)
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for tabs: %w", ctx.Err())
		}
	}
}

// Handler returns an http.Handler that accepts WebSocket upgrades.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			log.Printf("websocket accept: %v", err)
			applog.Error("ws.accept", err)
			return
		}

		conn.SetReadLimit(16 << 20) // windows with many tabs send large lists

		ctx := r.Context()
		s.mu.Lock()
		if s.conn != nil {
			applog.Info("ws.replaced")
			s.conn.CloseNow()
		}
		s.conn = conn
		s.connCtx = ctx
		s.mu.Unlock()
		s.readyOnce.Do(func() { close(s.ready) })

		applog.Info("ws.connected", "remote", r.RemoteAddr)

		defer func() {
			s.mu.Lock()
			if s.conn == conn {
				s.conn = nil
				s.connCtx = nil
			}
			s.mu.Unlock()
			conn.CloseNow()
			applog.Info("ws.disconnected")
		}()

		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			var msg IncomingMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				applog.Error("ws.parse", err)
				continue
			}
			applog.Info("ws.recv", "type", msg.Type)
			select {
			case s.msgs <- msg:
			default:
			}
		}
	})
}

// ListenAndServe starts the WebSocket server on the configured port.
func (s *Server) ListenAndServe(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/", s.Handler())

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	applog.Info("server.start", "addr", addr)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	return srv.ListenAndServe()
}
