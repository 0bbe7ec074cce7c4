package handlers

import (
	"log"
	"net/http"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"agrohire/internal/api/ws"
	"agrohire/internal/config"
)

type WebSocketHandler struct {
	cfg      *config.Config
	upgrader websocket.Upgrader
}

func NewWebSocketHandler(cfg *config.Config) *WebSocketHandler {
	return &WebSocketHandler{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Browsers cannot set Authorization headers on websocket
				// upgrades, auth happens via the token query parameter.
				return true
			},
		},
	}
}

// HandleConnection upgrades the request and registers the connection in the
// hub. Everything the server pushes goes through the hub; the read loop only
// exists to notice the client going away.
func (h *WebSocketHandler) HandleConnection(c echo.Context) error {
	userID, err := h.authenticate(c.QueryParam("token"))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("websocket upgrade: %v", err)
		return err
	}

	hub := ws.GetHub()
	hub.Register(userID, conn)

	go func() {
		defer hub.Unregister(userID)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	return nil
}

func (h *WebSocketHandler) authenticate(tokenString string) (uuid.UUID, error) {
	token, err := jwtv5.Parse(tokenString, func(t *jwtv5.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, jwtv5.ErrSignatureInvalid
		}
		return []byte(h.cfg.JWTKey), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, jwtv5.ErrTokenMalformed
	}

	claims, ok := token.Claims.(jwtv5.MapClaims)
	if !ok {
		return uuid.Nil, jwtv5.ErrTokenInvalidClaims
	}
	idStr, ok := claims["id"].(string)
	if !ok {
		return uuid.Nil, jwtv5.ErrTokenInvalidClaims
	}
	return uuid.Parse(idStr)
}
