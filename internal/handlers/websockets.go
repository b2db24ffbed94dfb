package handlers

import (
	"net/http"
	"time"

	"doorcam/internal/commands"
	"doorcam/internal/logger"
	"doorcam/internal/services/websocket"

	gorilla "github.com/gorilla/websocket"
)

// viewerReadTimeout is extended by every pong; the hub pings more often than
// this (websocket.DefaultPingPeriod).
var viewerReadTimeout = 60 * time.Second

var Upgrader = gorilla.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ViewWebsocketHandler registers a live-view client. Text messages from the
// client are parsed as manual commands and handed to the main loop.
func ViewWebsocketHandler(hub *websocket.HubService, logger *logger.Logger) http.HandlerFunc {
	readTimeout := viewerReadTimeout
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warning("[VIEW] WebSocket upgrade error: %v", err)
			return
		}
		connection.SetReadLimit(512)
		connection.SetReadDeadline(time.Now().Add(readTimeout))
		connection.SetPongHandler(func(appData string) error {
			connection.SetReadDeadline(time.Now().Add(readTimeout))
			return nil
		})

		hub.Register(connection)
		defer hub.Unregister(connection)

		for {
			kind, msg, err := connection.ReadMessage()
			if err != nil {
				logger.Info("[VIEW] Viewer disconnected: %v", err)
				return
			}
			connection.SetReadDeadline(time.Now().Add(readTimeout))
			if kind != gorilla.TextMessage {
				continue
			}

			cmd := commands.FromText(string(msg))
			if cmd == commands.None {
				continue
			}
			logger.Info("[VIEW] Command from viewer: %s", cmd)
			hub.SubmitCommand(cmd)
		}
	}
}
