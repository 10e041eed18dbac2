package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/Dosada05/voting-system/config"
	"github.com/Dosada05/voting-system/live"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     originAllowed,
}

// originAllowed сверяет Origin с тем же списком, что и CORS-слой.
// Запрос без Origin приходит не из браузера и пропускается.
func originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range config.AllowedOrigins {
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}

type WebSocketHandler struct {
	hub *live.Hub
}

func NewWebSocketHandler(hub *live.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// ServeWs обрабатывает GET /ws/elections/{electionID}: подписка на
// смены фаз и публикацию итогов одних выборов.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	electionID, err := getIDFromURL(r, "electionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader.Upgrade сам отправляет HTTP-ошибку клиенту.
		slog.Error("websocket upgrade failed", slog.Int("election_id", electionID), slog.Any("error", err))
		return
	}

	client := &live.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: live.RoomForElection(electionID),
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
