package api

import "Teamline/internal/api/handler"

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	UserHandler *handler.UserHandler
	RoomHandler *handler.RoomHandler
	ChatHandler *handler.ChatHandler
	WSHandler   *handler.WsHandler
}
