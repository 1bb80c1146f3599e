package httpapi

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// Origins are enforced by CORS for REST; the socket itself is guarded by
// the token.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// serveWS authenticates ?token= before upgrading and then hands the
// connection to the hub until it closes.
func (s *Server) serveWS(c echo.Context) error {
	ctx := c.Request().Context()
	p, err := s.svc.Users.Authenticate(ctx, c.QueryParam("token"))
	if err != nil {
		return err
	}
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already answered the request.
		s.logger.Debug(ctx, "websocket upgrade failed", "error", err)
		return nil
	}
	s.hub.Serve(ctx, conn, p.UserID)
	return nil
}
