/*
Package main is a terminal chat client for the group chat server.

It owns one reconnecting transport session, prints incoming events, and sends
stdin lines as chat messages. Slash commands: /name <name> to rename,
/users to print the roster, /quit to exit.
*/
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"groupchat/internal/app/chat"
	"groupchat/internal/client"
	"groupchat/internal/pkg/logx"
)

func main() {
	host := flag.String("host", "localhost", "space-separated host tokens, e.g. \"192 168 1 17\"")
	flag.Parse()

	logx.InitGlobalLogger(false)

	url := client.HostURL(*host)
	fmt.Printf("Connecting to %s\n", url)

	session := client.NewSession(url, client.Options{
		OnEvent: printEvent,
	})
	session.Connect()
	defer session.Close()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/quit":
			return

		case line == "/users":
			for _, u := range session.Users() {
				fmt.Printf("  %s (%s)\n", u.Name, u.ID)
			}

		case strings.HasPrefix(line, "/name "):
			session.SetName(strings.TrimSpace(strings.TrimPrefix(line, "/name ")))

		default:
			session.SetTyping(true)
			session.SendMessage(line)
			session.SetTyping(false)
		}
	}
}

// printEvent renders one server event on the terminal.
func printEvent(event any) {
	switch e := event.(type) {
	case chat.MessageEvent:
		fmt.Printf("[%s] %s: %s\n", e.Date.Local().Format("15:04:05"), e.User.Name, e.Message)

	case chat.UsersEvent:
		names := make([]string, 0, len(e.Users))
		for _, u := range e.Users {
			names = append(names, u.Name)
		}
		fmt.Printf("* online: [%s]\n", strings.Join(names, ", "))

	case chat.InfoEvent:
		fmt.Printf("* you are %s\n", e.User.Name)

	case chat.PresenceEvent:
		if e.Type == chat.TypeUserJoined {
			fmt.Printf("* %s joined\n", e.User.Name)
		} else {
			fmt.Printf("* %s left\n", e.User.Name)
		}

	case chat.TypingEvent:
		if e.Typing {
			fmt.Printf("* %s is typing...\n", e.User.Name)
		}

	case chat.RenameEvent:
		fmt.Printf("* %s is now %s\n", e.User.OldName, e.User.NewName)
	}
}
