package server

import (
	"context"
	"net/http"

	"PellinesFM/logger"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 社区电台面向公开网络，事件流对任意来源开放
		return true
	},
}

// EventsHandler 把HTTP连接升级为WebSocket并订阅状态事件。
// 客户端注册后收到的第一条消息一定是完整的 status 快照。
func (h *APIHandler) EventsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	hub := h.station.Hub()
	client := hub.NewClient(conn)
	hub.Register(client)

	// 连接已被劫持，请求上下文随handler返回而取消，读循环要用独立上下文
	go client.WritePump()
	go client.ReadPump(context.Background())
}
