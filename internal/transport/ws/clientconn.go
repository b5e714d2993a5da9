package ws

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/kiryu-dev/five-in-a-row/internal/domain"
	"github.com/pkg/errors"
)

// client serializes writes: the read loop and the deferred bot runner both
// write to the same connection.
type client struct {
	conn *websocket.Conn
	uuid string
	mu   *sync.Mutex
}

func newClient(conn *websocket.Conn, uuid string) client {
	return client{
		conn: conn,
		uuid: uuid,
		mu:   &sync.Mutex{},
	}
}

func (c client) WriteMessage(msg domain.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteJSON(msg); err != nil {
		return errors.WithMessage(err, "websocket conn write json")
	}
	return nil
}

func (c client) ReadMessage() (domain.Message, error) {
	var msg domain.Message
	err := c.conn.ReadJSON(&msg)
	switch {
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived),
		websocket.IsUnexpectedCloseError(err):
		return domain.Message{}, domain.ErrConnectionClosed
	case err != nil:
		return domain.Message{}, errors.WithMessage(err, "websocket conn read json")
	}
	return msg, nil
}

func (c client) Uuid() string {
	return c.uuid
}

func (c client) Close() {
	_ = c.conn.Close()
}
