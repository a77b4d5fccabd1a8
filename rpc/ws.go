package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"nhooyr.io/websocket"

	"ajochain/core/types"
)

const (
	wsWriteTimeout = 10 * time.Second
)

// eventFilter narrows a stream by event type and plan. Empty fields match
// everything.
type eventFilter struct {
	types  map[string]struct{}
	planID string
}

func parseEventFilter(r *http.Request) eventFilter {
	filter := eventFilter{planID: strings.TrimSpace(r.URL.Query().Get("planId"))}
	if raw := strings.TrimSpace(r.URL.Query().Get("types")); raw != "" {
		filter.types = make(map[string]struct{})
		for _, part := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				filter.types[trimmed] = struct{}{}
			}
		}
	}
	return filter
}

func (f eventFilter) match(evt *types.Event) bool {
	if evt == nil {
		return false
	}
	if len(f.types) > 0 {
		if _, ok := f.types[evt.Type]; !ok {
			return false
		}
	}
	if f.planID != "" && evt.Attribute("planId") != f.planID {
		return false
	}
	return true
}

func (s *Server) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	if s == nil || s.node == nil {
		http.Error(w, "node unavailable", http.StatusServiceUnavailable)
		return
	}
	filter := parseEventFilter(r)
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "stream closed")
	// The client never sends; CloseRead keeps control frames flowing and
	// cancels ctx when the peer goes away.
	ctx := conn.CloseRead(r.Context())
	if err := s.streamEvents(ctx, conn, filter); err != nil {
		if status := websocket.CloseStatus(err); status == -1 && ctx.Err() == nil {
			s.logger.Debug("event stream ended", "error", err)
			_ = conn.Close(websocket.StatusInternalError, "stream error")
		}
	}
}

func (s *Server) streamEvents(ctx context.Context, conn *websocket.Conn, filter eventFilter) error {
	updates, cancel := s.node.Events().Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-updates:
			if !ok {
				return nil
			}
			if !filter.match(evt) {
				continue
			}
			if err := writeEvent(ctx, conn, evt); err != nil {
				return err
			}
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, evt *types.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
