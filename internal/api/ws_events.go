package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/annel0/tome/internal/eventbus"
)

// EventMessage сообщение потока /ws/events
type EventMessage struct {
	ID   string               `json:"id"`
	Type string               `json:"type"`
	TS   time.Time            `json:"ts"`
	Tile eventbus.TilePayload `json:"tile"`
}

// handleEvents транслирует события тайлов из шины в websocket.
// ?types=TilePlaced,TileEmpty ограничивает типы.
func (rs *RestServer) handleEvents(c *gin.Context) {
	if rs.bus == nil {
		c.JSON(http.StatusServiceUnavailable, GenericResponse{Success: false, Message: "Шина событий не настроена"})
		return
	}

	var filter eventbus.Filter
	if raw := c.Query("types"); raw != "" {
		filter.Types = strings.Split(raw, ",")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan []byte, 256)
	sub, err := rs.bus.Subscribe(ctx, filter, func(_ context.Context, ev *eventbus.Envelope) {
		payload, err := eventbus.DecodeTile(ev)
		if err != nil {
			return
		}
		b, err := json.Marshal(EventMessage{ID: ev.ID, Type: ev.EventType, TS: ev.Timestamp, Tile: payload})
		if err != nil {
			return
		}
		select {
		case out <- b:
		default:
			// Медленный клиент теряет события
		}
	})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, GenericResponse{Success: false, Message: "Шина событий недоступна"})
		return
	}
	defer sub.Unsubscribe()

	// Подписка оформлена до рукопожатия, чтобы клиент не пропустил события
	conn, err := rs.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		rs.logger.Debug("ws: рукопожатие с %s не удалось: %v", c.ClientIP(), err)
		return
	}
	defer conn.Close()

	rs.logger.Debug("ws: клиент %s подключен", c.ClientIP())

	// Читатель нужен только для обработки закрытия соединения
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
			if err := conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(time.Second)); err != nil {
				rs.logger.Debug("ws: закрытие %s: %v", c.ClientIP(), err)
			}
			rs.logger.Debug("ws: клиент %s отключен", c.ClientIP())
			return
		case b := <-out:
			if err := conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				rs.logger.Debug("ws: дедлайн записи %s: %v", c.ClientIP(), err)
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				rs.logger.Debug("ws: запись %s: %v", c.ClientIP(), err)
				return
			}
		}
	}
}
