package websocket

import (
	"log"
	"sync"

	"github.com/dmutua84/nyumba_stays/models"
	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

type Client struct {
	UserID uuid.UUID
	Conn   *websocket.Conn
}

var clients = make(map[uuid.UUID]*websocket.Conn)
var clientsMu sync.RWMutex
var Register = make(chan *Client)
var Unregister = make(chan *Client)
var Push = make(chan *models.Notification, 64)

// Notify hands a notification to the hub without blocking the caller. In-app
// delivery is best-effort; when nobody is draining the channel the push is
// dropped and only the persisted notification row remains.
func Notify(n *models.Notification) {
	select {
	case Push <- n:
	default:
		log.Printf("Notification push queue full, dropping realtime push for user %s", n.UserID)
	}
}

func RunHub() {
	for {
		select {
		case client := <-Register:
			log.Printf("Client registered: %s", client.UserID)
			clientsMu.Lock()
			clients[client.UserID] = client.Conn
			clientsMu.Unlock()
		case client := <-Unregister:
			log.Printf("Client unregistered: %s", client.UserID)
			clientsMu.Lock()
			if conn, ok := clients[client.UserID]; ok && conn == client.Conn {
				delete(clients, client.UserID)
			}
			clientsMu.Unlock()
		case notification := <-Push:
			clientsMu.RLock()
			conn, ok := clients[notification.UserID]
			clientsMu.RUnlock()
			if !ok {
				continue
			}
			if err := conn.WriteJSON(notification); err != nil {
				log.Printf("Error pushing notification to client %s: %v", notification.UserID, err)
				conn.Close()
				clientsMu.Lock()
				delete(clients, notification.UserID)
				clientsMu.Unlock()
			}
		}
	}
}
