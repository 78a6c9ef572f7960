package handlers

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/taskboard-dev/taskboard/internal/services"
	"github.com/taskboard-dev/taskboard/internal/types"
	"github.com/taskboard-dev/taskboard/internal/utils"
)

var (
	userClients   = make(map[uint]map[*websocket.Conn]bool)
	userClientsMu sync.RWMutex
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// DispatchEvent delivers an event to every open connection of its target
// user. Dead connections are dropped from the registry.
func DispatchEvent(event services.Event) {
	userClientsMu.RLock()
	clients, exists := userClients[event.UserID]
	if !exists || len(clients) == 0 {
		userClientsMu.RUnlock()
		return
	}

	// Copy so the lock is not held while writing to sockets
	clientsCopy := make([]*websocket.Conn, 0, len(clients))
	for conn := range clients {
		clientsCopy = append(clientsCopy, conn)
	}
	userClientsMu.RUnlock()

	for _, conn := range clientsCopy {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			log.Printf("Failed to set write deadline for event dispatch: %v", err)
			continue
		}

		err := conn.WriteJSON(map[string]interface{}{
			"type":  "notification",
			"event": event,
		})

		if err != nil {
			log.Printf("Failed to dispatch event to user %d: %v", event.UserID, err)
			removeClient(event.UserID, conn)
			conn.Close()
		}
	}
}

func removeClient(userID uint, conn *websocket.Conn) {
	userClientsMu.Lock()
	if clients, exists := userClients[userID]; exists {
		delete(clients, conn)
		if len(clients) == 0 {
			delete(userClients, userID)
		}
	}
	userClientsMu.Unlock()
}

// WebSocket upgrades the request and subscribes the connection to the
// authenticated user's private channel.
func WebSocket(c *gin.Context) {
	userID, err := utils.GetCurrentUserID(c)

	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			for _, allowed := range types.AllowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	// Set up connection parameters
	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("Failed to set initial read deadline: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("Failed to set read deadline in pong handler: %v", err)
		}
		return nil
	})

	// Register the connection under the user's channel
	userClientsMu.Lock()
	if userClients[userID] == nil {
		userClients[userID] = make(map[*websocket.Conn]bool)
	}
	userClients[userID][conn] = true
	userClientsMu.Unlock()

	channel := services.UserChannel(userID)

	// Clean up when connection closes
	defer func() {
		removeClient(userID, conn)
		conn.Close()

		log.Printf("WebSocket connection closed for channel %s", channel)
	}()

	// Send welcome message
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		log.Printf("Failed to set write deadline for welcome message: %v", err)
		return
	}

	err = conn.WriteJSON(map[string]string{
		"type":    "connected",
		"message": "WebSocket connection established",
		"channel": channel,
	})

	if err != nil {
		log.Printf("Failed to send welcome message: %v", err)
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	go func() {
		// Send pings periodically
		for range ticker.C {
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Printf("Failed to set write deadline for channel %s: %v", channel, err)
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("Ping failed for channel %s: %v", channel, err)
				return
			}
		}
	}()

	for {
		// Set read deadline for each message
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("Failed to set read deadline for channel %s: %v", channel, err)
			break
		}

		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error for channel %s: %v", channel, err)
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			log.Printf("Received message from client on channel %s: %s", channel, string(message))
		case websocket.PongMessage:
			log.Printf("Received pong on channel %s", channel)
		}
	}
}
