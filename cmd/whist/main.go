package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"github.com/urfave/cli/v2"

	"github.com/whistlab/knockoutwhist/pkg/server"
)

func main() {
	app := &cli.App{
		Name:  "whist",
		Usage: "Terminal client for the Knockout Whist server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "url",
				Value: "ws://127.0.0.1:8000/ws",
				Usage: "Websocket endpoint of the server",
			},
			&cli.StringFlag{
				Name:  "session",
				Usage: "Session token to reconnect with",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "whist: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	conn, _, err := websocket.DefaultDialer.Dial(c.String("url"), nil)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to connect to %s: %v", c.String("url"), err), 1)
	}
	defer conn.Close()

	p := tea.NewProgram(newModel(conn, c.String("session")), tea.WithAltScreen())

	// Pump server messages into the UI until the socket closes.
	go func() {
		for {
			var msg server.ServerMessage
			if err := conn.ReadJSON(&msg); err != nil {
				p.Send(connClosedMsg{err: err})
				return
			}
			p.Send(serverEvent(msg))
		}
	}()

	_, err = p.Run()
	return err
}
