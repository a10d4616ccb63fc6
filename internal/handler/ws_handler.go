/*
Package handler provides the HTTP handlers and routing setup for the group chat server.

This file contains the HandleWebSocket function, which upgrades the HTTP
connection to WebSocket, registers the connection with the registry, and runs
the client lifecycle.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"groupchat/internal/pkg/logx"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket
// connection requests. A successful upgrade registers the connection, which
// triggers the join sequence (roster snapshot, identity announcement, and
// the user:joined broadcast), then runs the pumps until the connection
// closes.
func HandleWebSocket(upgrader websocket.Upgrader, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := deps.Registry.Join(conn)

		go client.WritePump()

		// ReadPump blocks until the connection closes, then unregisters
		// the user and broadcasts user:left.
		client.ReadPump()
	}
}
