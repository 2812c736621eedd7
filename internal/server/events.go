package server

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"

	"github.com/clipnest/clipnest/internal/session"
)

const eventWriteTimeout = 5 * time.Second

// sessionEvents streams session state changes over a websocket. The current
// state is sent first; when the client falls behind only the latest state is kept.
func (s *Server) sessionEvents(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: originPatterns(s.config.Server.CORSOrigins),
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to accept session events websocket")
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	// Nothing is read from the client; this watches for it going away
	ctx := conn.CloseRead(c.Request.Context())

	updates := make(chan session.State, 1)
	unsubscribe := s.sessions.Subscribe(func(state session.State) {
		for {
			select {
			case updates <- state:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	})
	defer unsubscribe()

	if err := writeEvent(ctx, conn, s.sessions.State()); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case state := <-updates:
			if err := writeEvent(ctx, conn, state); err != nil {
				if !errors.Is(err, context.Canceled) {
					s.logger.Debug().Err(err).Msg("Session events client dropped")
				}
				return
			}
		}
	}
}

func writeEvent(parent context.Context, conn *websocket.Conn, state session.State) error {
	ctx, cancel := context.WithTimeout(parent, eventWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, sessionResponse(state))
}

// originPatterns turns allowed CORS origins into websocket host patterns.
// Same-host connections are always accepted.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			continue
		}
		out = append(out, u.Host)
	}
	return out
}
