package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/gesture_sentry/internal/config"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// statusHub keeps the latest sentry state and result and fans them out
// to connected websocket clients.
type statusHub struct {
	mu         sync.RWMutex
	lastStatus *StatusMessage
	lastResult *ResultMessage
	clients    map[*websocket.Conn]bool
}

func newStatusHub() *statusHub {
	return &statusHub{clients: make(map[*websocket.Conn]bool)}
}

type wsEvent struct {
	Type   string         `json:"type"` // state or result
	Status *StatusMessage `json:"status,omitempty"`
	Result *ResultMessage `json:"result,omitempty"`
}

func (h *statusHub) setStatus(s StatusMessage) {
	h.mu.Lock()
	h.lastStatus = &s
	h.mu.Unlock()
	h.broadcast(wsEvent{Type: "state", Status: &s})
}

func (h *statusHub) setResult(r ResultMessage) {
	h.mu.Lock()
	h.lastResult = &r
	h.mu.Unlock()
	h.broadcast(wsEvent{Type: "result", Result: &r})
}

func (h *statusHub) broadcast(ev wsEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteJSON(ev); err != nil {
			log.Printf("web: websocket write error: %v", err)
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

func (h *statusHub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
	// Push the last known state so a fresh page is not blank.
	if h.lastStatus != nil {
		conn.WriteJSON(wsEvent{Type: "state", Status: h.lastStatus})
	}
	if h.lastResult != nil {
		conn.WriteJSON(wsEvent{Type: "result", Result: h.lastResult})
	}
}

func (h *statusHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

// RunWeb serves the browser UI: a JSON status endpoint, a trigger
// endpoint forwarding record/unlock/erase to MQTT, and a websocket
// stream of state and result updates.
func RunWeb() error {
	cfg := config.Get()
	hub := newStatusHub()

	// 1) Connect to MQTT broker
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	// 2) Subscribe to state and result topics
	stateToken := client.Subscribe(cfg.TopicState, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s StatusMessage
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("web: state unmarshal error: %v", err)
			return
		}
		hub.setStatus(s)
	})
	stateToken.Wait()
	if stateToken.Error() != nil {
		return stateToken.Error()
	}
	log.Printf("web: subscribed to %s", cfg.TopicState)

	resultToken := client.Subscribe(cfg.TopicResult, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var r ResultMessage
		if err := json.Unmarshal(msg.Payload(), &r); err != nil {
			log.Printf("web: result unmarshal error: %v", err)
			return
		}
		hub.setResult(r)
	})
	resultToken.Wait()
	if resultToken.Error() != nil {
		return resultToken.Error()
	}
	log.Printf("web: subscribed to %s", cfg.TopicResult)

	// 3) JSON API endpoint: latest state and result
	http.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		hub.mu.RLock()
		defer hub.mu.RUnlock()

		if hub.lastStatus == nil && hub.lastResult == nil {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		resp := struct {
			Status *StatusMessage `json:"status,omitempty"`
			Result *ResultMessage `json:"result,omitempty"`
		}{hub.lastStatus, hub.lastResult}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	// 4) Trigger endpoint: POST /api/trigger?action=record|unlock|erase
	http.HandleFunc("/api/trigger", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		action := r.URL.Query().Get("action")
		switch action {
		case "record", "unlock", "erase":
		default:
			http.Error(w, "action must be record, unlock or erase", http.StatusBadRequest)
			return
		}
		if token := client.Publish(cfg.TopicTrigger, 0, false, action); token.Wait() && token.Error() != nil {
			log.Printf("web: trigger publish error: %v", token.Error())
			http.Error(w, "publish failed", http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})

	// 5) Websocket stream of updates
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("web: websocket upgrade error: %v", err)
			return
		}
		hub.add(conn)
		defer func() {
			hub.remove(conn)
			conn.Close()
		}()

		// Drain reads to notice disconnects. Clients never send data.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("web: websocket error: %v", err)
				}
				return
			}
		}
	})

	// 6) Static files from ./web as the root
	fs := http.FileServer(http.Dir("web"))
	http.Handle("/", fs)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}
