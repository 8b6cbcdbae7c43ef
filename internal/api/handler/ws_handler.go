package handler

import (
	"Teamline/internal/pkg/consts"
	"Teamline/internal/pkg/redis"
	"Teamline/internal/pkg/response"
	"Teamline/internal/pkg/security"
	"Teamline/internal/repository"
	"Teamline/internal/service"
	"context"
	log "log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WsHandler 事件桥：把用户频道与其房间频道上的总线事件流式推给客户端
type WsHandler struct {
	subRepo repository.SubscriptionRepo
}

func NewWsHandler(subRepo repository.SubscriptionRepo) *WsHandler {
	return &WsHandler{subRepo: subRepo}
}

func (s *WsHandler) Connect(c *gin.Context) {
	// 鉴权
	token := c.Query("token")
	if token == "" {
		response.Error(c, service.UnauthorizedError)
		return
	}
	claims, err := security.ValidateToken(token)
	if err != nil {
		log.Warn("WS 鉴权失败", "err", err)
		response.Error(c, service.UnauthorizedError)
		return
	}
	userID := claims.UserID

	// 升级 Websocket
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WS 协议升级失败", "err", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	// 用户个人频道 + 订阅的每个房间频道
	subs, err := s.subRepo.GetUserSubscriptions(context.Background(), userID)
	if err != nil {
		log.Error("获取订阅列表失败", "user_id", userID, "err", err)
		return
	}

	channels := []string{consts.UserChannelKey + strconv.FormatUint(userID, 10)}
	for _, sub := range subs {
		channels = append(channels, consts.RoomChannelKey+strconv.FormatUint(sub.RoomID, 10))
	}

	// 订阅 Redis 总线
	pubsub := redis.Subscribe(context.Background(), channels...)
	defer func() {
		_ = pubsub.Close()
	}()

	log.Info("用户 WS 连接已建立", "user_id", userID, "channels", len(channels))

	stopChan := make(chan struct{})

	// 读循环：监听客户端主动断开
	go func() {
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				close(stopChan)
				return
			}
		}
	}()

	// 写循环：监听 Redis 并推送至客户端
	redisCh := pubsub.Channel()
	for {
		select {
		case msg := <-redisCh:
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload))
			if err != nil {
				log.Error("WS 推送失败", "user_id", userID, "err", err)
				return
			}
		case <-stopChan:
			log.Info("用户 WS 连接已断开", "user_id", userID)
			return
		}
	}
}
