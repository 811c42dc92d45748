// Package wsbridge exposes the line protocol over a websocket so GUI clients
// can connect without a raw TCP socket. Clients send newline-terminated
// commands in text frames; server messages arrive as framed text the same way
// they do on TCP.
package wsbridge

import (
	"log"
	"net"
	"net/http"

	"github.com/coder/websocket"
)

// Handler upgrades to websocket and hands a net.Conn view of the socket to
// serve, which must block until the session ends.
func Handler(serve func(nc net.Conn)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// GUI clients are served from their own origin
			InsecureSkipVerify: true,
		})
		if err != nil {
			log.Printf("[WS] accept failed: %v\n", err)
			return
		}
		log.Printf("[WS] new connection from %s\n", r.RemoteAddr)
		serve(websocket.NetConn(r.Context(), c, websocket.MessageText))
	})
}
