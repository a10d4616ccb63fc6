/*
Package client implements the chat client transport session: a reconnecting
WebSocket connection with typed senders and local projections of server state.

This file builds the connection URL from a user-supplied host descriptor.
*/
package client

import (
	"fmt"
	"strings"
)

// DefaultPort is the fixed port the chat server listens on.
const DefaultPort = 8080

// HostURL builds the WebSocket URL from a free-form host descriptor: the
// space-separated tokens are joined with dots and the fixed port appended,
// so "192 168 1 17" becomes "ws://192.168.1.17:8080/ws". The scheme is
// always the insecure variant.
func HostURL(descriptor string) string {
	host := strings.Join(strings.Fields(descriptor), ".")
	if host == "" {
		host = "localhost"
	}

	return fmt.Sprintf("ws://%s:%d/ws", host, DefaultPort)
}
