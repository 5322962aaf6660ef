package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var jsonOutput bool
	var name string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Connect to the game socket and stream events",
		Long: `Join the world as a spectator connection and print every event the
server pushes to it.

Events include:
  - gameState: Initial world snapshot
  - playerJoined / playerLeft: Connections opening and closing
  - playerUpdate: Movement in the current scene
  - sceneState / sceneSync: Scene membership snapshots
  - chatMessage / chatHistory: Scene chat
  - scoreUpdate / leaderboardUpdate: Score changes

Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return watchEvents(name, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")
	cmd.Flags().StringVar(&name, "name", "", "Display name for the spectator connection")

	return cmd
}

// WatchedEvent is one event received on the socket
type WatchedEvent struct {
	Time  time.Time       `json:"time"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func watchEvents(name string, jsonOutput bool) error {
	wsURL := client.WebsocketURL()
	if name != "" {
		wsURL += "?name=" + url.QueryEscape(name)
	}

	// Set up cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	go func() {
		<-ctx.Done()
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
	}()

	if !jsonOutput {
		fmt.Printf("Connected to %s\n", wsURL)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			// Interrupt is expected
			if ctx.Err() != nil {
				if !jsonOutput {
					fmt.Println("\nDisconnected")
				}
				return nil
			}
			return fmt.Errorf("stream error: %w", err)
		}

		var env struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		printEvent(env.Type, env.Payload, jsonOutput)
	}
}

func printEvent(event string, data json.RawMessage, jsonOutput bool) {
	now := time.Now()

	if jsonOutput {
		evt := WatchedEvent{
			Time:  now,
			Event: event,
			Data:  data,
		}
		jsonData, _ := json.Marshal(evt)
		fmt.Println(string(jsonData))
	} else {
		timestamp := now.Format("2006-01-02 15:04:05")
		// Truncate data if it's too long for display
		display := string(data)
		if len(display) > 100 {
			display = display[:100] + "..."
		}
		display = strings.ReplaceAll(display, "\n", " ")
		fmt.Printf("[%s] %s: %s\n", timestamp, event, display)
	}
}
