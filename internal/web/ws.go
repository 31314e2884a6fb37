package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const wsWriteTimeout = 5 * time.Second

// handleWS pushes a State to the client every tick until it disconnects.
// Pushes also drive the countdown, so a time-up is noticed without polling.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Error("failed to accept websocket", "error", err)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "bye"); closeErr != nil {
			slog.Debug("failed to close websocket", "error", closeErr)
		}
	}()

	// The client never sends; CloseRead cancels ctx once it goes away.
	ctx := ws.CloseRead(r.Context())

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		if err := s.push(ctx, ws); err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				slog.Debug("websocket write failed", "error", err)
			}
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) push(ctx context.Context, ws *websocket.Conn) error {
	st := s.state(ctx)
	wctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return wsjson.Write(wctx, ws, st)
}
