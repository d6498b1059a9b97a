package services

import (
	"log"
	"os"
	"sync"
	"time"

	"sklad-backend/models"

	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

// WSMessage представляет сообщение WebSocket
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// StockUpdatePayload представляет payload об изменении остатка
type StockUpdatePayload struct {
	ItemID   uint `json:"item_id"`
	Quantity int  `json:"quantity"`
	Version  uint `json:"version"`
}

// TaskCompletedPayload представляет payload о завершении задачи
type TaskCompletedPayload struct {
	TaskID  uint   `json:"task_id"`
	EventID uint   `json:"event_id"`
	Type    string `json:"type"`
}

// Client представляет подключенного клиента
type Client struct {
	ID       uint
	UserID   uint
	Conn     *websocket.Conn
	Send     chan WSMessage
	Hub      *Hub
	LastPing time.Time
}

// Hub управляет всеми подключениями и рассылает обновления склада
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan WSMessage
	mutex      sync.RWMutex
	db         *gorm.DB
}

// NewHub создает новый хаб
func NewHub(db *gorm.DB) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan WSMessage),
		db:         db,
	}
}

// Run запускает хаб
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()

			log.Printf("Client %d connected. Total clients: %d", client.UserID, len(h.clients))

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mutex.Unlock()

			log.Printf("Client %d disconnected. Total clients: %d", client.UserID, len(h.clients))

		case message := <-h.broadcast:
			h.mutex.RLock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mutex.RUnlock()
		}
	}
}

// BroadcastStockUpdate рассылает всем клиентам новый остаток позиции
func (h *Hub) BroadcastStockUpdate(item *models.Item) {
	h.broadcast <- WSMessage{
		Type: "stock.update",
		Payload: StockUpdatePayload{
			ItemID:   item.ID,
			Quantity: item.Quantity,
			Version:  item.Version,
		},
	}
}

// BroadcastTaskCompleted рассылает всем клиентам уведомление о завершении задачи
func (h *Hub) BroadcastTaskCompleted(task *models.CheckoutTask) {
	h.broadcast <- WSMessage{
		Type: "task.completed",
		Payload: TaskCompletedPayload{
			TaskID:  task.ID,
			EventID: task.EventID,
			Type:    task.Type,
		},
	}
}

// SendToUser отправляет сообщение конкретному пользователю
func (h *Hub) SendToUser(userID uint, message WSMessage) {
	h.mutex.RLock()
	for client := range h.clients {
		if client.UserID == userID {
			select {
			case client.Send <- message:
			default:
				close(client.Send)
				delete(h.clients, client)
			}
		}
	}
	h.mutex.RUnlock()
}

// HandleWebSocket обрабатывает WebSocket соединение
func (h *Hub) HandleWebSocket(c *websocket.Conn) {
	// Получаем JWT токен из query параметров
	tokenString := c.Query("token")
	if tokenString == "" {
		c.Close()
		return
	}

	secretKey := os.Getenv("JWT_SECRET")
	if secretKey == "" {
		secretKey = "sklad-secret-key-change-in-production"
	}

	// Парсим JWT токен
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(secretKey), nil
	})

	if err != nil || !token.Valid {
		c.Close()
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		c.Close()
		return
	}

	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		c.Close()
		return
	}

	userID := uint(userIDFloat)

	// Создаем клиента
	client := &Client{
		ID:       uint(time.Now().UnixNano()),
		UserID:   userID,
		Conn:     c,
		Send:     make(chan WSMessage, 256),
		Hub:      h,
		LastPing: time.Now(),
	}

	// Регистрируем клиента
	h.register <- client

	// Запускаем горутины для чтения и записи
	go client.writePump()
	go client.readPump()
}

// readPump читает сообщения из WebSocket
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(512)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		c.LastPing = time.Now()
		return nil
	})

	for {
		var message WSMessage
		err := c.Conn.ReadJSON(&message)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump записывает сообщения в WebSocket
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage обрабатывает входящие сообщения
func (c *Client) handleMessage(message WSMessage) {
	switch message.Type {
	case "ping":
		c.handlePing(message)
	}
}

// handlePing обрабатывает ping сообщения
func (c *Client) handlePing(message WSMessage) {
	pongMessage := WSMessage{
		Type: "pong",
		Payload: map[string]interface{}{
			"timestamp": time.Now().Unix(),
		},
	}

	c.Hub.SendToUser(c.UserID, pongMessage)
}
