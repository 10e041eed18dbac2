package live

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Типы событий, которые рассылает хаб. Счётчики голосов во время
// голосования в реальном времени не транслируются — только смены фаз
// и опубликованные итоги.
const (
	EventPhaseChanged     = "PHASE_CHANGED"
	EventResultsPublished = "RESULTS_PUBLISHED"
)

type Event struct {
	Type       string      `json:"type"`
	ElectionID int         `json:"election_id"`
	Payload    interface{} `json:"payload,omitempty"`
	SentAt     time.Time   `json:"sent_at"`
}

// Hub раздаёт события по комнатам; комната — одни выборы.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client

	rooms map[string]map[*Client]bool
	mu    sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.rooms[client.Room]; !ok {
				h.rooms[client.Room] = make(map[*Client]bool)
			}
			h.rooms[client.Room][client] = true
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if roomClients, ok := h.rooms[client.Room]; ok {
				if _, okClient := roomClients[client]; okClient {
					client.closeSend()
					delete(roomClients, client)
					if len(roomClients) == 0 {
						delete(h.rooms, client.Room)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastEvent отправляет событие всем подписчикам выборов.
// Ошибки доставки не останавливают рассылку остальным клиентам.
func (h *Hub) BroadcastEvent(electionID int, eventType string, payload interface{}) {
	event := Event{
		Type:       eventType,
		ElectionID: electionID,
		Payload:    payload,
		SentAt:     time.Now().UTC(),
	}

	messageBytes, err := json.Marshal(event)
	if err != nil {
		log.Printf("live: error marshalling %s event for election %d: %v", eventType, electionID, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	roomClients, ok := h.rooms[RoomForElection(electionID)]
	if !ok {
		return
	}
	for client := range roomClients {
		client.trySend(messageBytes)
	}
}
