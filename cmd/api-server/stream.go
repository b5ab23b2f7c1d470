package main

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	_joinDeadline   = 10 * time.Second
	_writeDeadline  = 10 * time.Second
	_sendBufferSize = 32
)

var _upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API is token-authenticated; origin checks add nothing here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsChannel adapts one websocket connection to notify.Channel. Send never
// blocks the dispatcher: payloads are queued on a buffered channel drained
// by a dedicated writer goroutine, and a full queue drops the push (the
// persisted row is the backstop). A dispatch may hold a channel snapshot
// taken before the client disconnected, so Send must stay safe after close
// and report an error instead of panicking on the closed queue.
type wsChannel struct {
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newWSChannel(conn *websocket.Conn) *wsChannel {
	return &wsChannel{
		conn: conn,
		send: make(chan []byte, _sendBufferSize),
	}
}

func (ch *wsChannel) Send(message []byte) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ch.closed {
		return errors.New("channel closed")
	}

	select {
	case ch.send <- message:
		return nil
	default:
		return errors.New("send buffer full")
	}
}

func (ch *wsChannel) close() {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ch.closed {
		return
	}
	ch.closed = true
	close(ch.send)
}

func (ch *wsChannel) writeLoop() error {
	for message := range ch.send {
		ch.conn.SetWriteDeadline(time.Now().Add(_writeDeadline))
		if err := ch.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			// Drain remaining queued payloads; the reader will notice the
			// dead connection and unregister.
			for range ch.send {
			}
			return nil
		}
	}

	return nil
}

type joinFrame struct {
	Event string `json:"event"`
	Token string `json:"token"`
}

// Handle Notification Stream
// @Summary Notification Stream
// @Description Websocket; the client opens with a join frame carrying its bearer token, then receives notification events
// @Tags notifications
// @Router /notifications/stream [get]
func (app *application) handleNotificationStream(w http.ResponseWriter, r *http.Request) {
	conn, err := _upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		app.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(_joinDeadline))

	var join joinFrame
	if err := conn.ReadJSON(&join); err != nil || join.Event != "join" {
		conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"error","error":"expected join frame"}`))
		return
	}

	user, err := parseToken(app.config.jwt.secret, join.Token)
	if err != nil {
		conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"error","error":"invalid token"}`))
		return
	}

	ch := newWSChannel(conn)

	app.registry.Register(ch, user.ID)
	defer func() {
		app.registry.Unregister(ch)
		ch.close()
	}()

	app.serverLogger().Info("live channel joined", "userId", user.ID)

	// Ack before the writer goroutine starts so the connection only ever has
	// one concurrent writer.
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"joined"}`)); err != nil {
		return
	}

	app.backgroundTask(r, ch.writeLoop)

	// Hold the connection open until the client goes away. Inbound frames
	// beyond the join are ignored.
	conn.SetReadDeadline(time.Time{})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	app.serverLogger().Info("live channel left", "userId", user.ID)
}
