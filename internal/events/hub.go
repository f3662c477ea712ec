package events

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"furniture-detector-go/pkg/models"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxReadSize    = 512
	broadcastQueue = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub рассылает события анализа подключенным websocket клиентам.
// Набором клиентов владеет горутина Run.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	mutex      sync.RWMutex
	count      int
	logger     *logrus.Logger
}

// NewHub создает хаб, запускать через Run
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, broadcastQueue),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run обслуживает регистрацию и рассылку до отмены ctx
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.setCount()
			h.logger.WithField("clients", len(h.clients)).Info("Клиент событий подключен")

		case client := <-h.unregister:
			if h.clients[client] {
				h.drop(client)
				h.logger.WithField("clients", len(h.clients)).Info("Клиент событий отключен")
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				if err := h.write(client, websocket.TextMessage, message); err != nil {
					h.logger.Warnf("Ошибка отправки события: %v", err)
					h.drop(client)
				}
			}

		case <-ticker.C:
			for client := range h.clients {
				if err := h.write(client, websocket.PingMessage, nil); err != nil {
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) write(client *websocket.Conn, messageType int, data []byte) error {
	_ = client.SetWriteDeadline(time.Now().Add(writeWait))
	return client.WriteMessage(messageType, data)
}

func (h *Hub) drop(client *websocket.Conn) {
	delete(h.clients, client)
	client.Close()
	h.setCount()
}

func (h *Hub) setCount() {
	h.mutex.Lock()
	h.count = len(h.clients)
	h.mutex.Unlock()
}

// Publish ставит событие в очередь рассылки. Не блокирует:
// при переполненной очереди событие отбрасывается.
func (h *Hub) Publish(event models.AnalysisEvent) {
	message, err := json.Marshal(event)
	if err != nil {
		h.logger.Errorf("Ошибка сериализации события: %v", err)
		return
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("Очередь событий переполнена, событие отброшено")
	}
}

// Register добавляет клиента. После остановки хаба соединение закрывается.
func (h *Hub) Register(client *websocket.Conn) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

// Unregister удаляет клиента и закрывает соединение
func (h *Hub) Unregister(client *websocket.Conn) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount количество подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.count
}

// ServeWS переводит запрос в websocket и держит его до отключения клиента.
// Входящие сообщения клиента игнорируются.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	connection, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnf("Ошибка перехода на WebSocket: %v", err)
		return
	}
	connection.SetReadLimit(maxReadSize)
	_ = connection.SetReadDeadline(time.Now().Add(pongWait))
	connection.SetPongHandler(func(string) error {
		return connection.SetReadDeadline(time.Now().Add(pongWait))
	})

	h.Register(connection)
	defer h.Unregister(connection)

	for {
		if _, _, err := connection.ReadMessage(); err != nil {
			return
		}
	}
}
