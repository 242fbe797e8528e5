package station

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"PellinesFM/cache"
	"PellinesFM/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// inboundMessage 客户端发来的消息；目前只支持主动请求状态
type inboundMessage struct {
	Type string `json:"type"`
}

const inboundRequestStatus = "request-status"

// Hub 事件分发中心：把状态变更事件推送给所有已连接的客户端。
// 新客户端在收到任何增量事件之前，必定先收到一条完整的 status 快照。
type Hub struct {
	station  *Station
	presence *cache.PresenceCache

	// 客户端集合，只在 Run 循环和计数读取中访问
	clients map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
}

// Client 一个已订阅的客户端连接
type Client struct {
	ID   string
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte
}

// NewHub 创建事件分发中心
func NewHub(s *Station) *Hub {
	return &Hub{
		station:    s,
		presence:   cache.NewPresenceCache(),
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

// NewClient 包装一个 WebSocket 连接
func (h *Hub) NewClient(conn *websocket.Conn) *Client {
	return &Client{
		ID:   uuid.NewString(),
		Hub:  h,
		Conn: conn,
		Send: make(chan []byte, 64),
	}
}

// Run 启动分发主循环。注册和广播都经过同一个循环，保证每个订阅者
// 看到的事件顺序与发布顺序一致。
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastAll(message)

		case <-h.done:
			h.cleanup()
			return
		}
	}
}

// Stop 停止分发循环并断开所有客户端
func (h *Hub) Stop() {
	close(h.done)
}

// Register 注册客户端
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister 注销客户端
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Publish 把事件排入广播队列。发布方永远不会被慢客户端阻塞：
// 队列满时丢弃并告警，而不是把状态变更路径卡死。
func (h *Hub) Publish(evt *Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		logger.Error("failed to marshal event", logger.String("type", string(evt.Type)), logger.ErrorField(err))
		return
	}

	select {
	case h.broadcast <- data:
	default:
		logger.Warn("event broadcast queue full, dropping event",
			logger.String("type", string(evt.Type)))
	}
}

// ClientCount 当前订阅的客户端数量
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// registerClient 先投递 status 快照，再加入广播集合，
// 保证快照一定先于后续增量事件到达。
func (h *Hub) registerClient(client *Client) {
	if data := h.statusMessage(); data != nil {
		client.Send <- data
	}

	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()

	if err := h.presence.TouchListener(context.Background(), client.ID); err != nil {
		logger.Warn("failed to update listener presence on register", logger.ErrorField(err))
	}

	logger.Info("client subscribed",
		logger.String("clientId", client.ID),
		logger.Int("subscribers", h.ClientCount()))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.Send)
	h.mu.Unlock()

	if err := h.presence.RemoveListener(context.Background(), client.ID); err != nil {
		logger.Warn("failed to remove listener presence on unregister", logger.ErrorField(err))
	}

	logger.Info("client unsubscribed",
		logger.String("clientId", client.ID),
		logger.Int("subscribers", h.ClientCount()))
}

func (h *Hub) broadcastAll(message []byte) {
	h.mu.RLock()
	clientList := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clientList = append(clientList, client)
	}
	h.mu.RUnlock()

	for _, client := range clientList {
		select {
		case client.Send <- message:
		default:
			// 发送缓冲区满：该客户端已经跟不上了，踢掉它
			h.unregisterClient(client)
		}
	}
}

func (h *Hub) cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.Send)
	}
	h.clients = make(map[*Client]bool)
}

func (h *Hub) statusMessage() []byte {
	evt, err := newEvent(EventStatus, h.station.Snapshot(context.Background()))
	if err != nil {
		logger.Error("failed to build status event", logger.ErrorField(err))
		return nil
	}
	data, err := json.Marshal(evt)
	if err != nil {
		logger.Error("failed to marshal status event", logger.ErrorField(err))
		return nil
	}
	return data
}

// ========== Client 方法 ==========

// ReadPump 读取消息循环，连接断开时自动注销
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(1024)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, message, err := c.Conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logger.Warn("websocket read error",
						logger.ErrorField(err),
						logger.String("clientId", c.ID))
				}
				return
			}

			var msg inboundMessage
			if err := json.Unmarshal(message, &msg); err != nil {
				logger.Warn("invalid message from client",
					logger.ErrorField(err),
					logger.String("clientId", c.ID))
				continue
			}

			if msg.Type == inboundRequestStatus {
				if data := c.Hub.statusMessage(); data != nil {
					select {
					case c.Send <- data:
					default:
					}
				}
			}
		}
	}
}

// WritePump 写入消息循环，定期发送心跳
func (c *Client) WritePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Hub 关闭了通道
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
