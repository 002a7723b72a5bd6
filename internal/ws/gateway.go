package ws

import (
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/mwilder2/diarydawn-backend/internal/service"
	"github.com/mwilder2/diarydawn-backend/internal/storage"
)

// Gateway upgrades HTTP connections into hub clients. Identity is resolved
// at connect time; a connection that cannot be scoped to a room is refused.
type Gateway struct {
	hub      *Hub
	tokens   *service.TokenService
	registry storage.SessionRegistry
	upgrader websocket.Upgrader
	log      *zap.SugaredLogger
}

func NewGateway(hub *Hub, tokens *service.TokenService, registry storage.SessionRegistry, log *zap.SugaredLogger) *Gateway {
	return &Gateway{
		hub:      hub,
		tokens:   tokens,
		registry: registry,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: log,
	}
}

// HandleHero serves the authenticated gateway: the client presents an access
// token as a query parameter and joins its user-id room.
func (g *Gateway) HandleHero(c echo.Context) error {
	token := c.QueryParam("token")
	userID, _, err := g.tokens.VerifyAccessToken(token)
	if err != nil {
		g.log.Infow("ws connection rejected: invalid access token")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	conn, err := g.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	room := strconv.FormatInt(userID, 10)
	g.log.Infow("ws client connected", "userID", userID)
	newClient(g.hub, conn).serve(room)
	return nil
}

// HandlePublic serves the anonymous gateway: the client presents its session
// id, which is (re)inserted into the registry, refreshing the 1-hour TTL.
func (g *Gateway) HandlePublic(c echo.Context) error {
	sessionID := c.QueryParam("sessionId")
	if sessionID == "" {
		g.log.Infow("ws connection rejected: no session id")
		return echo.NewHTTPError(http.StatusBadRequest, "sessionId is required")
	}

	if err := g.registry.InsertSessionID(c.Request().Context(), sessionID); err != nil {
		g.log.Errorw("failed to register public session", "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "session registration failed")
	}

	conn, err := g.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	g.log.Infow("ws client connected", "sessionID", sessionID)
	newClient(g.hub, conn).serve(sessionID)
	return nil
}
