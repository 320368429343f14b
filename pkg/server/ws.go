package server

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The game carries no credentials beyond the session token, so any
	// origin may connect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConn adapts a websocket connection to the Conn interface. Writes are
// serialized: gorilla permits at most one concurrent writer.
type wsConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsConn) Send(msg ServerMessage) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(msg)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

// ServeWS upgrades an HTTP request to a websocket and pumps its messages
// into the dispatcher until the peer goes away. Closure unbinds the socket
// but keeps the participant seated for reconnection.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debugf("websocket upgrade from %s failed: %v", r.RemoteAddr, err)
		return
	}
	s.log.Debugf("new websocket connection from %s", r.RemoteAddr)

	c := &wsConn{conn: conn}
	defer func() {
		s.Disconnect(c)
		_ = conn.Close()
		s.log.Debugf("websocket connection from %s closed", r.RemoteAddr)
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		s.Dispatch(c, data)
	}
}
