package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vibetab/internal/layout"
	"vibetab/internal/model"

	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 10 * time.Second

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 32 * 1024,
	CheckOrigin:     sameOrigin,
}

// sameOrigin accepts requests without an Origin header (non-browser clients) and browser
// requests whose origin host equals the requested host.
func sameOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Host, strings.TrimSpace(r.Host))
}

// wsMsg is a live editing command sent by a browser while dragging.
type wsMsg struct {
	Type   string       `json:"type"`
	ID     string       `json:"id,omitempty"`
	DxPx   int          `json:"dxPx,omitempty"`
	DyPx   int          `json:"dyPx,omitempty"`
	Width  int          `json:"width,omitempty"`
	Height int          `json:"height,omitempty"`
	Policy model.Policy `json:"policy,omitempty"`
}

type wsReply struct {
	Type   string    `json:"type"`
	Layout *layoutVM `json:"layout,omitempty"`
	Error  string    `json:"error,omitempty"`
	Code   string    `json:"code,omitempty"`
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ch, unsubscribe := s.hub.subscribe()
	defer unsubscribe()

	replies := make(chan wsReply, 8)
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.pumpWSCommands(ctx, conn, replies)
	}()

	if err := writeWS(conn, s.layoutReply()); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket closed", "err", err)
			}
			return
		case rep := <-replies:
			if err := writeWS(conn, rep); err != nil {
				return
			}
		case <-ch:
			if err := writeWS(conn, s.layoutReply()); err != nil {
				return
			}
		}
	}
}

// pumpWSCommands applies incoming commands until the connection drops. Successful commands are
// answered through the hub broadcast, failures directly.
func (s *Server) pumpWSCommands(ctx context.Context, conn *websocket.Conn, replies chan<- wsReply) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var msg wsMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			select {
			case replies <- wsReply{Type: "error", Error: "invalid command: " + err.Error(), Code: "bad_request"}:
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		changed, err := s.applyWS(msg)
		if err != nil {
			_, code := statusFor(err)
			select {
			case replies <- wsReply{Type: "error", Error: err.Error(), Code: code}:
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		if changed {
			s.changed()
		}
	}
}

func (s *Server) applyWS(msg wsMsg) (bool, error) {
	if s.cfg.ReadOnly {
		return false, errReadOnly
	}
	policy, ok := model.ParsePolicy(string(msg.Policy))
	if !ok {
		return false, fmt.Errorf("%w: unknown policy %q", layout.ErrInvalid, msg.Policy)
	}
	switch msg.Type {
	case "move":
		_, err := s.d.MoveByPx(msg.ID, msg.DxPx, msg.DyPx, policy)
		return err == nil, err
	case "resize":
		_, err := s.d.ResizeByPx(msg.ID, msg.DxPx, msg.DyPx, policy)
		return err == nil, err
	case "viewport":
		if msg.Width <= 0 || msg.Height <= 0 {
			return false, fmt.Errorf("%w: viewport must be positive", layout.ErrInvalid)
		}
		s.d.ResizeViewport(msg.Width, msg.Height)
		return true, nil
	case "undo":
		return s.d.Undo(), nil
	case "redo":
		return s.d.Redo(), nil
	default:
		return false, fmt.Errorf("%w: unknown message type %q", layout.ErrInvalid, msg.Type)
	}
}

func (s *Server) layoutReply() wsReply {
	vm := s.layoutVM(false)
	return wsReply{Type: "layout", Layout: &vm}
}

func writeWS(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(v)
}
